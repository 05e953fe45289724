package session

import "time"

// ID identifies one occurrence of the recurring club night. It is the Unix
// timestamp of the session's start, normalized to second zero, and is used as
// the partition key for slots and games.
type ID int64

// Schedule describes the weekly recurrence of the club night.
type Schedule struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
	Loc     *time.Location
}

// NewSchedule builds a Schedule; a nil location falls back to time.Local.
func NewSchedule(weekday time.Weekday, hour, minute int, loc *time.Location) Schedule {
	if loc == nil {
		loc = time.Local
	}
	return Schedule{Weekday: weekday, Hour: hour, Minute: minute, Loc: loc}
}

// Next resolves the start time of the current session for the given instant.
// On the scheduled weekday the boundary is the start hour itself: before it the
// target is today's occurrence, at or after it the target rolls a full week.
// The result has second and sub-second components zeroed.
func (s Schedule) Next(now time.Time) time.Time {
	now = now.In(s.Loc)
	days := (int(s.Weekday) - int(now.Weekday()) + 7) % 7
	target := time.Date(now.Year(), now.Month(), now.Day()+days, s.Hour, s.Minute, 0, 0, s.Loc)
	if days == 0 && !now.Before(target) {
		target = target.AddDate(0, 0, 7)
	}
	return target
}

// ID resolves the current session identifier for the given instant.
func (s Schedule) ID(now time.Time) ID {
	return ID(s.Next(now).Unix())
}
