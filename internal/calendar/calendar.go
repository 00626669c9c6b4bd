// Package calendar implements date-only arithmetic for payment due dates.
//
// Every value returned by this package is a calendar date represented as a
// time.Time at midnight UTC. Inputs may carry any time of day or location;
// only their year, month and day are read.
package calendar

import (
	"fmt"
	"time"
)

// Date returns the calendar date year-month-day. Out-of-range days roll over
// the way time.Date does; use InMonth to clamp instead.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the time-of-day of t, keeping the date as seen in t's location.
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// Parse reads a YYYY-MM-DD date.
func Parse(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}

	return d, nil
}

// Format renders d as YYYY-MM-DD.
func Format(d time.Time) string {
	return d.Format(time.DateOnly)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// InMonth returns day in the given month, clamped to the month's last day.
func InMonth(year int, month time.Month, day int) time.Time {
	return Date(year, month, min(day, DaysIn(year, month)))
}

// AddMonth moves d one calendar month forward. When d's day does not exist in
// the next month the result is that month's last day (Jan 31 -> Feb 28/29).
func AddMonth(d time.Time) time.Time {
	return shiftMonth(d, 1)
}

// SubtractMonth moves d one calendar month back with the same clamping as
// AddMonth. The two are not inverses once clamping has happened:
// SubtractMonth(AddMonth(Jan 31)) is Jan 28 or Jan 29.
func SubtractMonth(d time.Time) time.Time {
	return shiftMonth(d, -1)
}

func shiftMonth(d time.Time, delta int) time.Time {
	// Compute the target month from the first of the month so that
	// time.Date never overflows into the month after.
	first := Date(d.Year(), d.Month(), 1).AddDate(0, delta, 0)
	return InMonth(first.Year(), first.Month(), d.Day())
}

// IsOverdue reports whether due is strictly before today.
func IsOverdue(due, today time.Time) bool {
	return DateOf(due).Before(DateOf(today))
}

// IsUpcoming reports whether due falls on today or within the next withinDays days.
func IsUpcoming(due, today time.Time, withinDays int) bool {
	d, t := DateOf(due), DateOf(today)
	end := t.AddDate(0, 0, withinDays)

	return !d.Before(t) && !d.After(end)
}

// DaysBetween returns the number of whole days from one date to another. The
// result is negative when to is before from.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}
