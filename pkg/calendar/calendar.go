// Package calendar turns instants into civil date keys (YYYY-MM-DD) in one
// fixed reference timezone and does whole-day arithmetic on those keys.
package calendar

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/JacMa99/appless-workout-mvp/pkg/consts"
)

const day = 24 * time.Hour

type Service struct {
	loc *time.Location
	now func() time.Time
}

// New loads tz from the embedded zone database.
func New(tz string) (*Service, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", tz, err)
	}

	return NewWithClock(loc, time.Now), nil
}

// NewWithClock pins the clock, mostly for tests and replays.
func NewWithClock(loc *time.Location, now func() time.Time) *Service {
	return &Service{loc: loc, now: now}
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// Now is the current instant in the reference zone.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// Today is the date key for the current instant.
func (s *Service) Today() string {
	return s.DateKey(s.now())
}

// DateKey converts through the zone's calendar, so DST shifts never move
// an instant onto the wrong day.
func (s *Service) DateKey(t time.Time) string {
	return t.In(s.loc).Format(consts.DateKeyLayout)
}

// LastNDays returns the n date keys ending today, oldest first.
func (s *Service) LastNDays(n int) []string {
	if n <= 0 {
		return nil
	}

	today, _ := ParseDateKey(s.Today())
	keys := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, today.AddDate(0, 0, -i).Format(consts.DateKeyLayout))
	}

	return keys
}

// WeekRange returns Monday..Sunday of the current week.
func (s *Service) WeekRange() []string {
	today, _ := ParseDateKey(s.Today())

	// time.Sunday == 0
	offset := (int(today.Weekday()) + 6) % 7
	monday := today.AddDate(0, 0, -offset)

	keys := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		keys = append(keys, monday.AddDate(0, 0, i).Format(consts.DateKeyLayout))
	}

	return keys
}

// AddDays shifts a date key by n calendar days.
func AddDays(key string, n int) (string, error) {
	t, err := ParseDateKey(key)
	if err != nil {
		return "", err
	}

	return t.AddDate(0, 0, n).Format(consts.DateKeyLayout), nil
}

// ParseDateKey anchors key at UTC midnight of the same calendar date.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.Parse(consts.DateKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}

	return t, nil
}

// DayDifference is the number of whole days from startKey to endKey. It is
// negative when endKey precedes startKey.
func DayDifference(startKey, endKey string) (int, error) {
	start, err := ParseDateKey(startKey)
	if err != nil {
		return 0, err
	}

	end, err := ParseDateKey(endKey)
	if err != nil {
		return 0, err
	}

	return int(end.Sub(start) / day), nil
}
