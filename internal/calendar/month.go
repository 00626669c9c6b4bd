package calendar

import (
	"fmt"
	"time"
)

// Month identifies a calendar month, written as YYYY-MM.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month d falls in.
func MonthOf(d time.Time) Month {
	return Month{Year: d.Year(), Month: d.Month()}
}

// ParseMonth reads a YYYY-MM month.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("parsing month %q: %w", s, err)
	}

	return MonthOf(t), nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Start is the first day of the month.
func (m Month) Start() time.Time {
	return Date(m.Year, m.Month, 1)
}

// End is the first day of the following month, so a month covers [Start, End).
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

// Next returns the following month.
func (m Month) Next() Month {
	return MonthOf(m.End())
}

// Prev returns the preceding month.
func (m Month) Prev() Month {
	return MonthOf(m.Start().AddDate(0, -1, 0))
}

// Contains reports whether d falls inside the month.
func (m Month) Contains(d time.Time) bool {
	return MonthOf(d) == m
}

// Occurrences lists the months of the next n occurrences of a payment due on
// due, advancing with AddMonth. A non-positive n yields no months.
func Occurrences(due time.Time, n int) []Month {
	if n <= 0 {
		return nil
	}

	months := make([]Month, 0, n)

	d := DateOf(due)
	for range n {
		months = append(months, MonthOf(d))
		d = AddMonth(d)
	}

	return months
}
