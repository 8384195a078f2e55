package usecases

import (
	"context"
	"errors"
	"sync"

	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
	"github.com/JacMa99/appless-workout-mvp/pkg/repo"
)

type mockGroupRepo struct {
	groups []entities.Group
	err    error
	calls  int
}

func (m *mockGroupRepo) ListGroups(context.Context) ([]entities.Group, error) {
	m.calls++
	return m.groups, m.err
}

type mockWorkoutRepo struct {
	last    map[string]string
	failFor map[string]bool
	panicOn map[string]bool
}

func (m *mockWorkoutRepo) LastLogDates(_ context.Context, uids []string, _ string) (map[string]string, error) {
	out := make(map[string]string)
	for _, uid := range uids {
		if m.panicOn[uid] {
			panic("corrupt roster entry " + uid)
		}
		if m.failFor[uid] {
			return nil, errors.New("workout_logs query failed")
		}
		if key, ok := m.last[uid]; ok {
			out[uid] = key
		}
	}
	return out, nil
}

type mockUserRepo struct {
	names map[string]string
	err   error
}

func (m *mockUserRepo) DisplayNames(_ context.Context, uids []string) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]string, len(uids))
	for _, uid := range uids {
		name, ok := m.names[uid]
		if !ok {
			name = "Someone"
		}
		out[uid] = name
	}
	return out, nil
}

type sentMessage struct {
	to   string
	from string
	body string
}

type mockMessenger struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]bool
}

func (m *mockMessenger) Send(_ context.Context, to, from, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[to] {
		return errors.New("transport rejected " + to)
	}
	m.sent = append(m.sent, sentMessage{to: to, from: from, body: body})
	return nil
}

func (m *mockMessenger) Name() string { return "mock" }

func (m *mockMessenger) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, msg := range m.sent {
		out = append(out, msg.to)
	}
	return out
}

// brokenLedger fails the chosen operations and delegates the rest.
type brokenLedger struct {
	repo.LedgerRepoImply
	readErr  error
	writeErr error
}

func (b *brokenLedger) HasFiredToday(ctx context.Context, kind entities.NudgeKind, scope, today string) (bool, error) {
	if b.readErr != nil {
		return false, b.readErr
	}
	return b.LedgerRepoImply.HasFiredToday(ctx, kind, scope, today)
}

func (b *brokenLedger) RecordFired(
	ctx context.Context, kind entities.NudgeKind, scope, today string, entry entities.LedgerEntry,
) error {
	if b.writeErr != nil {
		return b.writeErr
	}
	return b.LedgerRepoImply.RecordFired(ctx, kind, scope, today, entry)
}

type mockReporter struct {
	summaries []*entities.NudgeRunSummary
	errs      []error
}

func (m *mockReporter) Report(_ context.Context, summary *entities.NudgeRunSummary, runErr error) error {
	m.summaries = append(m.summaries, summary)
	m.errs = append(m.errs, runErr)
	return errors.New("reporter offline")
}

func (m *mockReporter) Name() string { return "mock" }

// cancellingMessenger cancels the caller's context after its first send and,
// like a real transport, refuses to send on a done context.
type cancellingMessenger struct {
	mockMessenger
	cancel context.CancelFunc
	once   sync.Once
}

func (m *cancellingMessenger) Send(ctx context.Context, to, from, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.mockMessenger.Send(ctx, to, from, body); err != nil {
		return err
	}
	m.once.Do(m.cancel)
	return nil
}

// ctxLedger fails every call made on a done context.
type ctxLedger struct {
	repo.LedgerRepoImply
}

func (l *ctxLedger) HasFiredToday(ctx context.Context, kind entities.NudgeKind, scope, today string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return l.LedgerRepoImply.HasFiredToday(ctx, kind, scope, today)
}

func (l *ctxLedger) RecordFired(
	ctx context.Context, kind entities.NudgeKind, scope, today string, entry entities.LedgerEntry,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.LedgerRepoImply.RecordFired(ctx, kind, scope, today, entry)
}
