package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// maxMonths bounds a requested range.
const maxMonths = 1200

// Month is a calendar month rendered as "YYYY-MM".
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(value string) (Month, error) {
	value = strings.TrimSpace(value)
	year, month, ok := strings.Cut(value, "-")
	if !ok || len(year) != 4 {
		return Month{}, fmt.Errorf("invalid month %q: want YYYY-MM", value)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", value, err)
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return Month{}, fmt.Errorf("invalid month %q: want YYYY-MM", value)
	}
	return Month{Year: y, Month: time.Month(m)}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Add returns the month n months later (n may be negative).
func (m Month) Add(n int) Month {
	t := time.Date(m.Year, m.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return MonthOf(t)
}

// Before reports whether m precedes other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// End is 23:59:59 on the last day of the month in loc.
func (m Month) End(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	firstOfNext := time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, loc)
	lastDay := firstOfNext.AddDate(0, 0, -1)
	return time.Date(lastDay.Year(), lastDay.Month(), lastDay.Day(), 23, 59, 59, 0, loc)
}

// MonthRange lists every month from start through end inclusive. A start
// after end yields an empty range.
func MonthRange(start, end Month) ([]Month, error) {
	var out []Month
	for m := start; !end.Before(m); m = m.Add(1) {
		if len(out) == maxMonths {
			return nil, fmt.Errorf("month range %s..%s exceeds %d months", start, end, maxMonths)
		}
		out = append(out, m)
	}
	return out, nil
}
