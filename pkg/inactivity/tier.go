// Package inactivity classifies how long a member has gone without logging.
package inactivity

import (
	"github.com/JacMa99/appless-workout-mvp/pkg/calendar"
	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
)

// Tier values are ordered by urgency.
type Tier int

const (
	Active Tier = iota
	Mild
	Severe
)

func (t Tier) String() string {
	switch t {
	case Active:
		return "active"
	case Mild:
		return "mild"
	case Severe:
		return "severe"
	default:
		return "unknown"
	}
}

// Urgency orders tiers; higher is more urgent.
func (t Tier) Urgency() int {
	return int(t)
}

// Assessment is the evaluator's view of one member on one day.
type Assessment struct {
	Tier         Tier
	DaysInactive int
	HasHistory   bool
}

// ClassifyDays maps whole days since the last log to a tier:
// [.., 2) active, [2, 3) mild, [3, ..) severe.
func ClassifyDays(days int) Tier {
	switch {
	case days >= consts.SevereInactiveDays:
		return Severe
	case days >= consts.MildInactiveDays:
		return Mild
	default:
		return Active
	}
}

// Assess evaluates a member whose most recent log is lastLogKey ("" for
// never). Members without a usable history are always Active.
func Assess(lastLogKey, today string) Assessment {
	if lastLogKey == "" {
		return Assessment{Tier: Active}
	}

	days, err := calendar.DayDifference(lastLogKey, today)
	if err != nil {
		return Assessment{Tier: Active}
	}

	return Assessment{
		Tier:         ClassifyDays(days),
		DaysInactive: days,
		HasHistory:   true,
	}
}

func Classify(lastLogKey, today string) Tier {
	return Assess(lastLogKey, today).Tier
}
