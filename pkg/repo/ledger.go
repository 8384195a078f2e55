package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/gocql/gocql"
	"github.com/spf13/cast"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

// LedgerRepoImply is the per-day dedup ledger. One entry exists per
// (kind, scope); its stored date decides whether a nudge already went out.
type LedgerRepoImply interface {
	HasFiredToday(ctx context.Context, kind entities.NudgeKind, scope, today string) (bool, error)
	// RecordFired overwrites the entry's date with today, whatever it was.
	RecordFired(ctx context.Context, kind entities.NudgeKind, scope, today string, entry entities.LedgerEntry) error
	// RecordFiredIfAbsent writes only when the stored date is not today and
	// reports whether this call claimed the slot.
	RecordFiredIfAbsent(
		ctx context.Context, kind entities.NudgeKind, scope, today string, entry entities.LedgerEntry,
	) (bool, error)
}

// NewLedgerRepo picks the backend named by ledger.backend.
func NewLedgerRepo(
	conf *config.AppConfModel, fs *firestore.Client, session *gocql.Session,
) (LedgerRepoImply, error) {
	switch conf.Ledger.Backend {
	case consts.LedgerFirestore:
		if fs == nil {
			return nil, fmt.Errorf("firestore ledger requires a firestore client")
		}
		return &FirestoreLedgerRepo{db: fs, conf: conf}, nil
	case consts.LedgerCassandra:
		if session == nil {
			return nil, fmt.Errorf("cassandra ledger requires a cassandra session")
		}
		return &CassandraLedgerRepo{db: session, conf: conf}, nil
	case consts.LedgerMemory:
		return NewMemoryLedgerRepo(), nil
	default:
		return nil, fmt.Errorf("unsupported ledger backend %q", conf.Ledger.Backend)
	}
}

type FirestoreLedgerRepo struct {
	db   *firestore.Client
	conf *config.AppConfModel
}

func ledgerCollection(kind entities.NudgeKind) string {
	if kind == entities.NudgeGroupSupport {
		return consts.GroupNudgeLedger
	}
	return consts.PrivateNudgeLedger
}

// ledgerDoc keeps the field names the web app already uses in each collection.
func ledgerDoc(kind entities.NudgeKind, today string, entry entities.LedgerEntry) map[string]interface{} {
	doc := map[string]interface{}{
		"date":    today,
		"groupId": entry.GroupID,
		"sentAt":  entry.SentAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		"runId":   entry.RunID,
	}

	if kind == entities.NudgeGroupSupport {
		doc["inactiveUid"] = entry.SubjectUID
		doc["inactiveName"] = entry.SubjectName
		doc["daysInactive"] = entry.DaysInactive
		return doc
	}

	doc["uid"] = entry.SubjectUID
	doc["daysInactive"] = entry.DaysInactive
	return doc
}

func (repo *FirestoreLedgerRepo) ref(kind entities.NudgeKind, scope string) *firestore.DocumentRef {
	return repo.db.Collection(ledgerCollection(kind)).Doc(scope)
}

func (repo *FirestoreLedgerRepo) HasFiredToday(
	ctx context.Context, kind entities.NudgeKind, scope, today string,
) (bool, error) {
	snap, err := repo.ref(kind, scope).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: reading %s/%s: %v", consts.ErrLedgerUnavailable, ledgerCollection(kind), scope, err)
	}

	entry := entities.LedgerEntry{Date: cast.ToString(snap.Data()["date"])}
	return entry.FiredOn(today), nil
}

func (repo *FirestoreLedgerRepo) RecordFired(
	ctx context.Context, kind entities.NudgeKind, scope, today string, entry entities.LedgerEntry,
) error {
	log := utilities.NewLoggerWithFields("FirestoreLedgerRepo.RecordFired", map[string]interface{}{
		"kind":  kind,
		"scope": scope,
	})

	if _, err := repo.ref(kind, scope).Set(ctx, ledgerDoc(kind, today, entry), firestore.MergeAll); err != nil {
		return fmt.Errorf("%w: writing %s/%s: %v", consts.ErrLedgerUnavailable, ledgerCollection(kind), scope, err)
	}

	log.Debugf("recorded nudge for %s", today)

	return nil
}

func (repo *FirestoreLedgerRepo) RecordFiredIfAbsent(
	ctx context.Context, kind entities.NudgeKind, scope, today string, entry entities.LedgerEntry,
) (bool, error) {
	ref := repo.ref(kind, scope)

	var claimed bool
	err := repo.db.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		claimed = false

		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil && (&entities.LedgerEntry{Date: cast.ToString(snap.Data()["date"])}).FiredOn(today) {
			return nil
		}

		if err = tx.Set(ref, ledgerDoc(kind, today, entry), firestore.MergeAll); err != nil {
			return err
		}
		claimed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: claiming %s/%s: %v", consts.ErrLedgerUnavailable, ledgerCollection(kind), scope, err)
	}

	return claimed, nil
}
