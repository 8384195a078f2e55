package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"
	"github.com/spf13/cast"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

type CassandraLedgerRepo struct {
	db   *gocql.Session
	conf *config.AppConfModel
}

func (repo *CassandraLedgerRepo) table(kind entities.NudgeKind) string {
	name := consts.PrivateNudgeTable
	if kind == entities.NudgeGroupSupport {
		name = consts.GroupNudgeTable
	}
	return fmt.Sprintf(`%s.%s`, repo.conf.DB.Keyspace, name)
}

func (repo *CassandraLedgerRepo) HasFiredToday(
	ctx context.Context, kind entities.NudgeKind, scope, today string,
) (bool, error) {
	var date string
	query := fmt.Sprintf(`SELECT date FROM %s WHERE scope = ?`, repo.table(kind))

	err := repo.db.Query(query, scope).WithContext(ctx).Scan(&date)
	if errors.Is(err, gocql.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", consts.ErrLedgerUnavailable, err)
	}

	return (&entities.LedgerEntry{Date: date}).FiredOn(today), nil
}

func (repo *CassandraLedgerRepo) RecordFired(
	ctx context.Context, kind entities.NudgeKind, scope, today string, entry entities.LedgerEntry,
) error {
	log := utilities.NewLoggerWithFields("CassandraLedgerRepo.RecordFired", map[string]interface{}{
		"kind":  kind,
		"scope": scope,
	})

	query := fmt.Sprintf(
		`INSERT INTO %s (scope, date, group_id, uid, name, days_inactive, sent_at, run_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		repo.table(kind),
	)
	err := repo.db.Query(
		query, scope, today, entry.GroupID, entry.SubjectUID, entry.SubjectName, entry.DaysInactive,
		entry.SentAt, entry.RunID,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("%w: %v", consts.ErrLedgerUnavailable, err)
	}

	log.Debugf("recorded nudge for %s", today)

	return nil
}

// RecordFiredIfAbsent uses two lightweight transactions: INSERT IF NOT EXISTS
// for a fresh scope, then UPDATE IF date = <stale date> to take over an
// entry left by an earlier day.
func (repo *CassandraLedgerRepo) RecordFiredIfAbsent(
	ctx context.Context, kind entities.NudgeKind, scope, today string, entry entities.LedgerEntry,
) (bool, error) {
	log := utilities.NewLoggerWithFields("CassandraLedgerRepo.RecordFiredIfAbsent", map[string]interface{}{
		"kind":  kind,
		"scope": scope,
	})

	insert := fmt.Sprintf(
		`INSERT INTO %s (scope, date, group_id, uid, name, days_inactive, sent_at, run_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`,
		repo.table(kind),
	)
	existing := make(map[string]interface{})
	applied, err := repo.db.Query(
		insert, scope, today, entry.GroupID, entry.SubjectUID, entry.SubjectName, entry.DaysInactive,
		entry.SentAt, entry.RunID,
	).WithContext(ctx).MapScanCAS(existing)
	if err != nil {
		return false, fmt.Errorf("%w: %v", consts.ErrLedgerUnavailable, err)
	}
	if applied {
		return true, nil
	}

	prev := cast.ToString(existing["date"])
	if prev == today {
		return false, nil
	}

	update := fmt.Sprintf(
		`UPDATE %s SET date = ?, group_id = ?, uid = ?, name = ?, days_inactive = ?, sent_at = ?, run_id = ? WHERE scope = ? IF date = ?`,
		repo.table(kind),
	)
	current := make(map[string]interface{})
	applied, err = repo.db.Query(
		update, today, entry.GroupID, entry.SubjectUID, entry.SubjectName, entry.DaysInactive,
		entry.SentAt, entry.RunID, scope, prev,
	).WithContext(ctx).MapScanCAS(current)
	if err != nil {
		return false, fmt.Errorf("%w: %v", consts.ErrLedgerUnavailable, err)
	}
	if applied {
		return true, nil
	}

	// lost a race; whoever won decides
	if cast.ToString(current["date"]) == today {
		return false, nil
	}

	log.Warnf("ledger entry changed concurrently from %s to %v", prev, current["date"])
	return false, fmt.Errorf("%w: concurrent update on %s", consts.ErrLedgerUnavailable, scope)
}
