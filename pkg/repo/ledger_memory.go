package repo

import (
	"context"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
)

// MemoryLedgerRepo backs mode: local and tests. Entries live for the life of
// the process.
type MemoryLedgerRepo struct {
	mu      sync.Mutex
	entries *gocache.Cache
}

func NewMemoryLedgerRepo() *MemoryLedgerRepo {
	return &MemoryLedgerRepo{entries: gocache.New(gocache.NoExpiration, 0)}
}

func memoryKey(kind entities.NudgeKind, scope string) string {
	return string(kind) + "/" + scope
}

func (repo *MemoryLedgerRepo) HasFiredToday(
	_ context.Context, kind entities.NudgeKind, scope, today string,
) (bool, error) {
	entry, ok := repo.Entry(kind, scope)
	return ok && entry.FiredOn(today), nil
}

func (repo *MemoryLedgerRepo) RecordFired(
	_ context.Context, kind entities.NudgeKind, scope, today string, entry entities.LedgerEntry,
) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	entry.Date = today
	repo.entries.SetDefault(memoryKey(kind, scope), entry)
	return nil
}

func (repo *MemoryLedgerRepo) RecordFiredIfAbsent(
	_ context.Context, kind entities.NudgeKind, scope, today string, entry entities.LedgerEntry,
) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if cur, ok := repo.entries.Get(memoryKey(kind, scope)); ok {
		stored := cur.(entities.LedgerEntry)
		if stored.FiredOn(today) {
			return false, nil
		}
	}

	entry.Date = today
	repo.entries.SetDefault(memoryKey(kind, scope), entry)
	return true, nil
}

// Entry returns the stored entry for (kind, scope), if any.
func (repo *MemoryLedgerRepo) Entry(kind entities.NudgeKind, scope string) (entities.LedgerEntry, bool) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	cur, ok := repo.entries.Get(memoryKey(kind, scope))
	if !ok {
		return entities.LedgerEntry{}, false
	}
	return cur.(entities.LedgerEntry), true
}

// Len is the number of (kind, scope) slots in use.
func (repo *MemoryLedgerRepo) Len() int {
	return repo.entries.ItemCount()
}
