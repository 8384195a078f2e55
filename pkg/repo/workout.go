package repo

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/calendar"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

type WorkoutRepo struct {
	db   *firestore.Client
	conf *config.AppConfModel
}

// WorkoutRepoImply reads the workout log store written by the web app.
type WorkoutRepoImply interface {
	// LastLogDates maps each uid to its most recent date key. Members that
	// never logged are absent from the result.
	LastLogDates(ctx context.Context, uids []string, today string) (map[string]string, error)
}

func NewWorkoutRepo(db *firestore.Client, conf *config.AppConfModel) WorkoutRepoImply {
	return &WorkoutRepo{db: db, conf: conf}
}

// LastLogDates resolves a roster in two passes: one `uid in [...]` query per
// chunk bounded to the lookback window, then a single-member query only for
// uids that had no log inside the window.
func (repo *WorkoutRepo) LastLogDates(
	ctx context.Context, uids []string, today string,
) (map[string]string, error) {
	log := utilities.NewLoggerWithFields("LastLogDates", map[string]interface{}{
		"members": len(uids),
	})

	since, err := calendar.AddDays(today, -repo.conf.Nudge.LookbackDays)
	if err != nil {
		return nil, err
	}

	latest := newLatestLogs()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(repo.lookupConcurrency())

	for _, chunk := range utilities.ChunkStrings(uids, repo.conf.Nudge.BatchSize) {
		chunk := chunk
		g.Go(func() error {
			docs, err := repo.db.Collection(consts.WorkoutLogsCollection).
				Where("uid", "in", chunk).
				Where("dateKey", ">=", since).
				Select("uid", "dateKey").
				Documents(gctx).GetAll()
			if err != nil {
				return fmt.Errorf("failed to query recent workout logs: %w", err)
			}

			for _, doc := range docs {
				data := doc.Data()
				latest.merge(cast.ToString(data["uid"]), cast.ToString(data["dateKey"]))
			}
			return nil
		})
	}

	if err = g.Wait(); err != nil {
		return nil, err
	}

	stale := latest.missing(uids)
	if len(stale) > 0 {
		log.Debugf("%d members without a log since %s, querying individually", len(stale), since)
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(repo.lookupConcurrency())

	for _, uid := range stale {
		uid := uid
		g.Go(func() error {
			docs, err := repo.db.Collection(consts.WorkoutLogsCollection).
				Where("uid", "==", uid).
				OrderBy("dateKey", firestore.Desc).
				Limit(1).
				Documents(gctx).GetAll()
			if err != nil {
				return fmt.Errorf("failed to query last workout log for %s: %w", uid, err)
			}

			if len(docs) > 0 {
				latest.merge(uid, cast.ToString(docs[0].Data()["dateKey"]))
			}
			return nil
		})
	}

	if err = g.Wait(); err != nil {
		return nil, err
	}

	return latest.byUID, nil
}

func (repo *WorkoutRepo) lookupConcurrency() int {
	if repo.conf.Nudge.LookupConcurrency <= 0 {
		return 1
	}
	return repo.conf.Nudge.LookupConcurrency
}

// latestLogs collects the max date key per uid from concurrent queries.
type latestLogs struct {
	sync.Mutex
	byUID map[string]string
}

func newLatestLogs() *latestLogs {
	return &latestLogs{byUID: make(map[string]string)}
}

// merge keeps the later key; YYYY-MM-DD keys order lexically.
func (l *latestLogs) merge(uid, dateKey string) {
	if uid == "" || dateKey == "" {
		return
	}

	l.Lock()
	defer l.Unlock()

	if cur, ok := l.byUID[uid]; !ok || dateKey > cur {
		l.byUID[uid] = dateKey
	}
}

func (l *latestLogs) missing(uids []string) []string {
	l.Lock()
	defer l.Unlock()

	out := make([]string, 0)
	for _, uid := range uids {
		if _, ok := l.byUID[uid]; !ok {
			out = append(out, uid)
		}
	}

	return out
}
