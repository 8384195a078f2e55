package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/JacMa99/appless-workout-mvp/config"
	"github.com/JacMa99/appless-workout-mvp/pkg/calendar"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
	"github.com/JacMa99/appless-workout-mvp/utilities"
)

// NudgeSchedulerStub triggers one run per day from inside the process, on
// the first tick at or after scheduler.not_before. A failed run is retried
// on the next tick.
func NudgeSchedulerStub(
	ctx context.Context, usecase NudgeUsecaseImply, conf *config.AppConfModel, cal *calendar.Service,
) {
	log := utilities.NewLogger("NudgeSchedulerStub")

	notBefore, err := time.Parse("15:04", conf.Scheduler.NotBefore)
	if err != nil {
		log.WithError(err).Error("invalid scheduler.not_before, scheduler disabled")
		return
	}

	ticker := time.NewTicker(conf.SchedulerInterval())

	go func() {
		lastRun := ""

		for {
			select {
			case <-ctx.Done():
				log.Info("Terminating...")
				ticker.Stop()
				return
			case <-ticker.C:
				today := cal.Today()
				if lastRun == today || !due(cal.Now(), notBefore) {
					continue
				}

				summary, err := usecase.RunNudges(ctx, RunOptions{})
				if errors.Is(err, consts.ErrRunInProgress) {
					log.Debug("run already in progress")
					continue
				}
				if err != nil {
					log.WithError(err).Error("scheduled nudge run failed")
					continue
				}

				lastRun = summary.Today
			}
		}
	}()
}

// due compares wall-clock minutes only; now must already be in the
// reference zone.
func due(now, notBefore time.Time) bool {
	return now.Hour()*60+now.Minute() >= notBefore.Hour()*60+notBefore.Minute()
}
