package usecases

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"

	uuidLib "github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/calendar"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
	"github.com/JacMa99/appless-workout-mvp/pkg/entities"
	"github.com/JacMa99/appless-workout-mvp/pkg/inactivity"
	"github.com/JacMa99/appless-workout-mvp/pkg/repo"
	"github.com/JacMa99/appless-workout-mvp/pkg/repo/driver/db"
	"github.com/JacMa99/appless-workout-mvp/pkg/repo/driver/medium"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

type RunOptions struct {
	// DryRun composes and dedups without dispatching or writing the ledger.
	DryRun bool
}

type NudgeUsecaseImply interface {
	RunNudges(context.Context, RunOptions) (*entities.NudgeRunSummary, error)
	Diagnostics(context.Context) entities.NudgeDiagnostics
}

type NudgeUsecases struct {
	conf      *config.AppConfModel
	calendar  *calendar.Service
	groups    repo.GroupRepoImply
	workouts  repo.WorkoutRepoImply
	users     repo.UserRepoImply
	ledger    repo.LedgerRepoImply
	messenger medium.Messenger
	reporters []medium.Reporter

	// at any point of time, no more than one run per process
	running chan struct{}
}

// NewNudgeUsecases wires the batch orchestrator. messenger may be nil when
// the transport is not configured; such runs fail before touching a group.
func NewNudgeUsecases(
	conf *config.AppConfModel, cal *calendar.Service, groups repo.GroupRepoImply, workouts repo.WorkoutRepoImply,
	users repo.UserRepoImply, ledger repo.LedgerRepoImply, messenger medium.Messenger, reporters ...medium.Reporter,
) NudgeUsecaseImply {
	return &NudgeUsecases{
		conf:      conf,
		calendar:  cal,
		groups:    groups,
		workouts:  workouts,
		users:     users,
		ledger:    ledger,
		messenger: messenger,
		reporters: reporters,
		running:   make(chan struct{}, 1),
	}
}

// nudgeRun is the state of one batch.
type nudgeRun struct {
	id      string
	today   string
	dryRun  bool
	summary *entities.NudgeRunSummary
	log     *logrus.Entry
}

// member is one roster entry with its computed inactivity.
type member struct {
	uid        string
	phone      string
	hasPhone   bool
	assessment inactivity.Assessment
}

func (usecase *NudgeUsecases) RunNudges(ctx context.Context, opts RunOptions) (*entities.NudgeRunSummary, error) {
	select {
	case usecase.running <- struct{}{}:
		defer func() { <-usecase.running }()
	default:
		return nil, consts.ErrRunInProgress
	}

	id := uuidLib.NewString()
	today := usecase.calendar.Today()
	run := &nudgeRun{
		id:     id,
		today:  today,
		dryRun: opts.DryRun,
		summary: &entities.NudgeRunSummary{
			Today:  today,
			RunID:  id,
			DryRun: opts.DryRun,
		},
		log: utilities.NewRunLogger("RunNudges", id, map[string]interface{}{
			"today":   today,
			"dry_run": opts.DryRun,
		}),
	}

	// Once a group has started, its sends and ledger writes run to the end
	// even if the caller goes away; ctx only stops the run between groups.
	work := context.WithoutCancel(ctx)

	err := usecase.runGroups(ctx, work, run)
	if err != nil {
		run.log.WithError(err).Error("nudge run failed")
	} else {
		run.summary.OK = true
		run.log.WithFields(logrus.Fields{
			"groups":            run.summary.Groups,
			"considered":        run.summary.Considered,
			"sent":              run.summary.Sent,
			"failed":            run.summary.Failed,
			"group_triggered":   run.summary.GroupTriggered,
			"group_deduped":     run.summary.GroupDeduped,
			"private_triggered": run.summary.PrivateTriggered,
			"private_deduped":   run.summary.PrivateDeduped,
			"ledger_errors":     run.summary.LedgerErrors,
			"group_errors":      run.summary.GroupErrors,
		}).Info("nudge run complete")
	}

	usecase.report(work, run, err)

	if err != nil {
		return nil, err
	}

	return run.summary, nil
}

func (usecase *NudgeUsecases) runGroups(ctx, work context.Context, run *nudgeRun) error {
	if !run.dryRun {
		if err := usecase.conf.TransportReady(); err != nil {
			return err
		}
		if usecase.messenger == nil {
			return consts.ErrMissingTransport
		}
	}

	groups, err := usecase.groups.ListGroups(work)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}

	for _, group := range groups {
		if err = ctx.Err(); err != nil {
			return fmt.Errorf("run interrupted after %d groups: %w", run.summary.Groups, err)
		}

		run.summary.Groups++
		if err = usecase.processGroup(work, run, group); err != nil {
			run.summary.GroupErrors++
			run.log.WithError(err).WithField("group", group.ID).Error("group skipped")
		}
	}

	return nil
}

// processGroup runs both passes for one group. A panic is turned into an
// error so the remaining groups still get processed.
func (usecase *NudgeUsecases) processGroup(ctx context.Context, run *nudgeRun, group entities.Group) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing group: %v", r)
		}
	}()

	if len(group.MemberIDs) == 0 {
		run.log.WithField("group", group.ID).Debug("empty roster")
		return nil
	}

	lastLogs, err := usecase.workouts.LastLogDates(ctx, group.MemberIDs, run.today)
	if err != nil {
		return fmt.Errorf("failed to compute last logs: %w", err)
	}

	members := make([]member, 0, len(group.MemberIDs))
	for _, uid := range group.MemberIDs {
		phone, ok := group.Phone(uid)
		members = append(members, member{
			uid:        uid,
			phone:      phone,
			hasPhone:   ok,
			assessment: inactivity.Assess(lastLogs[uid], run.today),
		})
	}

	usecase.groupSupportPass(ctx, run, group, members)
	usecase.privateCheckInPass(ctx, run, group, members)

	return nil
}

func (usecase *NudgeUsecases) groupSupportPass(
	ctx context.Context, run *nudgeRun, group entities.Group, members []member,
) {
	severe := make([]member, 0)
	for _, m := range members {
		if m.assessment.Tier == inactivity.Severe {
			severe = append(severe, m)
		}
	}
	if len(severe) == 0 {
		return
	}

	names := usecase.resolveNames(ctx, run, group, severe)
	recipients := group.Recipients()

	for _, m := range severe {
		log := run.log.WithFields(logrus.Fields{"group": group.ID, "member": m.uid, "kind": entities.NudgeGroupSupport})
		run.summary.GroupTriggered++

		scope := entities.ScopeKey(group.ID, m.uid)
		entry := usecase.ledgerEntry(run, group, m, names[m.uid])

		proceed, err := usecase.claim(ctx, run, entities.NudgeGroupSupport, scope, entry)
		if err != nil {
			run.summary.LedgerErrors++
			log.WithError(err).Error("dedup check failed, trigger skipped")
			continue
		}
		if !proceed {
			run.summary.GroupDeduped++
			log.Debug("already fired today")
			continue
		}

		body := ComposeGroupSupport(names[m.uid])

		if run.dryRun {
			run.summary.Sent += len(recipients)
			run.summary.GroupSent += len(recipients)
			log.Infof("dry run: would notify %d members", len(recipients))
			continue
		}

		sent, failed := usecase.fanOut(ctx, log, recipients, body)
		run.summary.Sent += sent
		run.summary.GroupSent += sent
		run.summary.Failed += failed

		// Recorded even when every dispatch failed: dedup is per trigger event.
		if err = usecase.record(ctx, run, entities.NudgeGroupSupport, scope, entry); err != nil {
			run.summary.LedgerErrors++
			log.WithError(err).Error("failed to record group support")
		}
	}
}

func (usecase *NudgeUsecases) privateCheckInPass(
	ctx context.Context, run *nudgeRun, group entities.Group, members []member,
) {
	for _, m := range members {
		if !m.hasPhone || !m.assessment.HasHistory {
			continue
		}
		if m.assessment.DaysInactive >= consts.MildInactiveDays {
			run.summary.Considered++
		}
		if m.assessment.Tier != inactivity.Mild {
			continue
		}

		log := run.log.WithFields(logrus.Fields{"group": group.ID, "member": m.uid, "kind": entities.NudgePrivateCheckIn})
		run.summary.PrivateTriggered++

		scope := entities.ScopeKey(group.ID, m.uid)
		entry := usecase.ledgerEntry(run, group, m, "")

		proceed, err := usecase.claim(ctx, run, entities.NudgePrivateCheckIn, scope, entry)
		if err != nil {
			run.summary.LedgerErrors++
			log.WithError(err).Error("dedup check failed, trigger skipped")
			continue
		}
		if !proceed {
			run.summary.PrivateDeduped++
			log.Debug("already fired today")
			continue
		}

		if run.dryRun {
			run.summary.Sent++
			run.summary.PrivateSent++
			log.Info("dry run: would send private check-in")
			continue
		}

		if err = usecase.messenger.Send(ctx, m.phone, usecase.conf.Transport.FromNumber, ComposePrivateCheckIn()); err != nil {
			run.summary.Failed++
			log.WithError(err).Error("private check-in failed")
			continue
		}
		run.summary.Sent++
		run.summary.PrivateSent++

		if err = usecase.record(ctx, run, entities.NudgePrivateCheckIn, scope, entry); err != nil {
			run.summary.LedgerErrors++
			log.WithError(err).Error("failed to record private check-in")
		}
	}
}

// resolveNames prefers the users collection, then the group's own name map,
// then the default. A lookup failure only costs the nicer name.
func (usecase *NudgeUsecases) resolveNames(
	ctx context.Context, run *nudgeRun, group entities.Group, severe []member,
) map[string]string {
	uids := make([]string, 0, len(severe))
	for _, m := range severe {
		uids = append(uids, m.uid)
	}

	resolved, err := usecase.users.DisplayNames(ctx, uids)
	if err != nil {
		run.log.WithError(err).WithField("group", group.ID).Warn("display name lookup failed")
	}

	names := make(map[string]string, len(uids))
	for _, uid := range uids {
		name := strings.TrimSpace(resolved[uid])
		if name == "" || name == consts.DefaultDisplayName {
			name = strings.TrimSpace(group.MemberNames[uid])
		}
		if name == "" {
			name = consts.DefaultDisplayName
		}
		names[uid] = name
	}

	return names
}

// fanOut dispatches body to every recipient. Failures are counted, never
// returned, so one bad number cannot stop the rest.
func (usecase *NudgeUsecases) fanOut(
	ctx context.Context, log *logrus.Entry, recipients []entities.Recipient, body string,
) (int, int) {
	var sent, failed atomic.Int64

	limit := usecase.conf.Nudge.FanOutConcurrency
	if limit <= 0 {
		limit = 1
	}

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for _, recipient := range recipients {
		recipient := recipient
		g.Go(func() error {
			err := usecase.messenger.Send(ctx, recipient.Phone, usecase.conf.Transport.FromNumber, body)
			if err != nil {
				failed.Add(1)
				log.WithError(err).WithField("recipient", recipient.UID).Error("group support dispatch failed")
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return int(sent.Load()), int(failed.Load())
}

// claim reports whether a trigger may fire. With conditional writes the slot
// is taken here, before any dispatch.
func (usecase *NudgeUsecases) claim(
	ctx context.Context, run *nudgeRun, kind entities.NudgeKind, scope string, entry entities.LedgerEntry,
) (bool, error) {
	if usecase.conf.Ledger.ConditionalWrite && !run.dryRun {
		return usecase.ledger.RecordFiredIfAbsent(ctx, kind, scope, run.today, entry)
	}

	fired, err := usecase.ledger.HasFiredToday(ctx, kind, scope, run.today)
	if err != nil {
		return false, err
	}

	return !fired, nil
}

func (usecase *NudgeUsecases) record(
	ctx context.Context, run *nudgeRun, kind entities.NudgeKind, scope string, entry entities.LedgerEntry,
) error {
	if run.dryRun || usecase.conf.Ledger.ConditionalWrite {
		return nil
	}

	return usecase.ledger.RecordFired(ctx, kind, scope, run.today, entry)
}

func (usecase *NudgeUsecases) ledgerEntry(
	run *nudgeRun, group entities.Group, m member, name string,
) entities.LedgerEntry {
	return entities.LedgerEntry{
		Date:         run.today,
		GroupID:      group.ID,
		SubjectUID:   m.uid,
		SubjectName:  name,
		DaysInactive: m.assessment.DaysInactive,
		SentAt:       usecase.calendar.Now().UTC(),
		RunID:        run.id,
	}
}

func (usecase *NudgeUsecases) report(ctx context.Context, run *nudgeRun, runErr error) {
	for _, reporter := range usecase.reporters {
		if err := reporter.Report(ctx, run.summary, runErr); err != nil {
			run.log.WithError(err).Warnf("%s report failed", reporter.Name())
		}
	}
}

// Diagnostics reports configuration health without running a batch.
func (usecase *NudgeUsecases) Diagnostics(_ context.Context) entities.NudgeDiagnostics {
	creds := db.InspectCredentials(usecase.conf.Firebase)

	return entities.NudgeDiagnostics{
		OK:                          true,
		Debug:                       true,
		GoVersion:                   runtime.Version(),
		Mode:                        usecase.conf.Mode,
		Timezone:                    usecase.conf.Calendar.Timezone,
		Today:                       usecase.calendar.Today(),
		HasFirebaseCredentials:      creds.HasCredentials,
		FirebaseCredentialsDecodeOk: creds.DecodeOk,
		FirebaseCredentialsJSONOk:   creds.JSONOk,
		HasPrivateKey:               creds.HasPrivateKey,
		PrivateKeyHasLiteralSlashN:  creds.PrivateKeyHasLiteralSlashN,
		LedgerBackend:               usecase.conf.Ledger.Backend,
		TransportProvider:           usecase.conf.Transport.Provider,
		TransportReady:              usecase.conf.TransportReady() == nil,
	}
}
