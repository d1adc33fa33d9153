package core

import (
	"fmt"
	"time"
)

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

type (
	// Period is a coarse window granularity.
	Period string

	// Window is an inclusive [Start, End] instant range used to filter
	// expenses by date.
	Window struct {
		Start time.Time
		End   time.Time
	}
)

// ParsePeriod validates a period unit from caller input.
// An unrecognized unit is a caller programming error, not a runtime condition.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return Period(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Contains reports whether t falls inside the inclusive window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ResolveWindow computes the inclusive [start, end] window containing ref for
// the given period unit. Boundaries use calendar-local semantics in ref's
// location: day windows run 00:00:00.000 to 23:59:59.999, weeks start on the
// most recent Sunday at or before ref, months and years cover whole calendar
// units. Month ends are derived via "day 0 of next month" arithmetic so leap
// years need no special casing.
func ResolveWindow(p Period, ref time.Time) (Window, error) {
	loc := ref.Location()
	year, month, day := ref.Date()

	switch p {
	case PeriodDay:
		return Window{
			Start: time.Date(year, month, day, 0, 0, 0, 0, loc),
			End:   endOfDay(year, month, day, loc),
		}, nil
	case PeriodWeek:
		// Weekday is 0 on Sunday, so this lands on ref itself when ref is a Sunday.
		start := ref.AddDate(0, 0, -int(ref.Weekday()))
		sy, sm, sd := start.Date()
		end := start.AddDate(0, 0, 6)
		ey, em, ed := end.Date()
		return Window{
			Start: time.Date(sy, sm, sd, 0, 0, 0, 0, loc),
			End:   endOfDay(ey, em, ed, loc),
		}, nil
	case PeriodMonth:
		return MonthWindow(year, int(month), loc), nil
	case PeriodYear:
		return Window{
			Start: time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
			End:   endOfDay(year, time.December, 31, loc),
		}, nil
	}
	return Window{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, p)
}

// PreviousWindow resolves the window of the same unit immediately preceding
// the one containing ref. Day and week step back a flat 1 and 7 days; month
// and year step one calendar unit with the day-of-month clamped to the last
// valid day of the target month, so stepping back from March 31 yields
// February 29 (leap) or 28, never an overflow into March.
func PreviousWindow(p Period, ref time.Time) (Window, error) {
	switch p {
	case PeriodDay:
		return ResolveWindow(p, ref.AddDate(0, 0, -1))
	case PeriodWeek:
		return ResolveWindow(p, ref.AddDate(0, 0, -7))
	case PeriodMonth:
		return ResolveWindow(p, clampedAddMonths(ref, -1))
	case PeriodYear:
		return ResolveWindow(p, clampedAddMonths(ref, -12))
	}
	return Window{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, p)
}

// MonthWindow returns the inclusive window covering the whole calendar month.
func MonthWindow(year, month int, loc *time.Location) Window {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	// Day 0 of the next month is the last day of this one.
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, loc)
	return Window{
		Start: start,
		End:   endOfDay(last.Year(), last.Month(), last.Day(), loc),
	}
}

// PreviousMonth returns the calendar month before (year, month), rolling the
// year back when month is January.
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// clampedAddMonths shifts t by delta calendar months, clamping the day of
// month to the last valid day of the target month instead of letting the
// excess days spill into the following month.
func clampedAddMonths(t time.Time, delta int) time.Time {
	year, month, day := t.Date()
	// Normalize the target year/month through time.Date with day 1.
	first := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, t.Location())
	ty, tm, _ := first.Date()
	if last := daysIn(ty, tm); day > last {
		day = last
	}
	hour, min, sec := t.Clock()
	return time.Date(ty, tm, day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func endOfDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, 23, 59, 59, int(999*time.Millisecond), loc)
}
