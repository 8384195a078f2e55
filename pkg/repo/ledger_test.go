package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
)

func TestMemoryLedgerRepo_dayRollover(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedgerRepo()
	scope := entities.ScopeKey("g1", "u1")

	fired, err := ledger.HasFiredToday(ctx, entities.NudgeGroupSupport, scope, "2024-05-09")
	require.NoError(t, err)
	assert.False(t, fired, "empty ledger never blocks")

	require.NoError(t, ledger.RecordFired(ctx, entities.NudgeGroupSupport, scope, "2024-05-09", entities.LedgerEntry{
		GroupID: "g1", SubjectUID: "u1",
	}))

	fired, _ = ledger.HasFiredToday(ctx, entities.NudgeGroupSupport, scope, "2024-05-09")
	assert.True(t, fired, "same day is blocked")

	fired, _ = ledger.HasFiredToday(ctx, entities.NudgeGroupSupport, scope, "2024-05-10")
	assert.False(t, fired, "yesterday's entry does not block today")

	require.NoError(t, ledger.RecordFired(ctx, entities.NudgeGroupSupport, scope, "2024-05-10", entities.LedgerEntry{}))
	fired, _ = ledger.HasFiredToday(ctx, entities.NudgeGroupSupport, scope, "2024-05-10")
	assert.True(t, fired, "blocked again after today's trigger")

	assert.Equal(t, 1, ledger.Len(), "a new day overwrites the same slot")
}

func TestMemoryLedgerRepo_kindsAreIndependent(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedgerRepo()
	scope := entities.ScopeKey("g1", "u1")

	require.NoError(t, ledger.RecordFired(ctx, entities.NudgePrivateCheckIn, scope, "2024-05-09", entities.LedgerEntry{}))

	fired, _ := ledger.HasFiredToday(ctx, entities.NudgeGroupSupport, scope, "2024-05-09")
	assert.False(t, fired)
}

func TestMemoryLedgerRepo_RecordFiredIfAbsent(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedgerRepo()
	scope := entities.ScopeKey("g1", "u1")

	claimed, err := ledger.RecordFiredIfAbsent(ctx, entities.NudgePrivateCheckIn, scope, "2024-05-09", entities.LedgerEntry{RunID: "r1"})
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, _ = ledger.RecordFiredIfAbsent(ctx, entities.NudgePrivateCheckIn, scope, "2024-05-09", entities.LedgerEntry{RunID: "r2"})
	assert.False(t, claimed)

	entry, ok := ledger.Entry(entities.NudgePrivateCheckIn, scope)
	require.True(t, ok)
	assert.Equal(t, "r1", entry.RunID, "losing claim must not overwrite")

	claimed, _ = ledger.RecordFiredIfAbsent(ctx, entities.NudgePrivateCheckIn, scope, "2024-05-10", entities.LedgerEntry{RunID: "r3"})
	assert.True(t, claimed, "stale day is taken over")
}

func TestMemoryLedgerRepo_RecordFiredIfAbsent_concurrent(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedgerRepo()
	scope := entities.ScopeKey("g1", "u1")

	var (
		mu      sync.Mutex
		winners int
	)
	wg := new(sync.WaitGroup)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := ledger.RecordFiredIfAbsent(ctx, entities.NudgeGroupSupport, scope, "2024-05-09", entities.LedgerEntry{})
			if err == nil && claimed {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestLedgerEntry_FiredOn(t *testing.T) {
	var nilEntry *entities.LedgerEntry
	assert.False(t, nilEntry.FiredOn("2024-05-09"))
	assert.False(t, (&entities.LedgerEntry{}).FiredOn(""))
	assert.False(t, (&entities.LedgerEntry{Date: "2024-05-08"}).FiredOn("2024-05-09"))
	assert.True(t, (&entities.LedgerEntry{Date: "2024-05-09"}).FiredOn("2024-05-09"))
}

func Test_ledgerDoc(t *testing.T) {
	sentAt := time.Date(2024, 5, 9, 13, 0, 0, 0, time.UTC)
	entry := entities.LedgerEntry{
		GroupID: "g1", SubjectUID: "u1", SubjectName: "Ana", DaysInactive: 4, SentAt: sentAt, RunID: "r1",
	}

	group := ledgerDoc(entities.NudgeGroupSupport, "2024-05-09", entry)
	assert.Equal(t, "2024-05-09", group["date"])
	assert.Equal(t, "u1", group["inactiveUid"])
	assert.Equal(t, "Ana", group["inactiveName"])
	assert.Equal(t, "2024-05-09T13:00:00.000Z", group["sentAt"])

	private := ledgerDoc(entities.NudgePrivateCheckIn, "2024-05-09", entry)
	assert.Equal(t, "u1", private["uid"])
	assert.Equal(t, 4, private["daysInactive"])
	assert.NotContains(t, private, "inactiveName")

	assert.Equal(t, consts.GroupNudgeLedger, ledgerCollection(entities.NudgeGroupSupport))
	assert.Equal(t, consts.PrivateNudgeLedger, ledgerCollection(entities.NudgePrivateCheckIn))
}

func TestNewLedgerRepo(t *testing.T) {
	conf := &config.AppConfModel{Ledger: config.Ledger{Backend: consts.LedgerMemory}}
	ledger, err := NewLedgerRepo(conf, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryLedgerRepo{}, ledger)

	conf.Ledger.Backend = consts.LedgerFirestore
	_, err = NewLedgerRepo(conf, nil, nil)
	assert.Error(t, err)

	conf.Ledger.Backend = consts.LedgerCassandra
	_, err = NewLedgerRepo(conf, nil, nil)
	assert.Error(t, err)
}
