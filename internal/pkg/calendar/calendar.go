package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout         = "2006-01-02"
	semiMonthlyMaxDays = 16
)

// Day is a calendar date encoded as yyyymmdd. Every date entering the payroll
// engine is normalized to a Day in UTC so that map lookups never depend on
// the location or clock component of a time.Time.
type Day int

// DayOf truncates t to its UTC calendar date.
func DayOf(t time.Time) Day {
	t = t.UTC()
	return Day(t.Year()*10000 + int(t.Month())*100 + t.Day())
}

// NewDay builds a Day, normalizing out-of-range values the way time.Date does.
func NewDay(year int, month time.Month, day int) Day {
	return DayOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DayOf(t), nil
}

func (d Day) Year() int { return int(d) / 10000 }
func (d Day) Month() time.Month { return time.Month(int(d) / 100 % 100) }
func (d Day) DayOfMonth() int { return int(d) % 100 }
func (d Day) Weekday() time.Weekday { return d.Time().Weekday() }
func (d Day) IsZero() bool { return d == 0 }

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	return time.Date(d.Year(), d.Month(), d.DayOfMonth(), 0, 0, 0, 0, time.UTC)
}

func (d Day) AddDays(n int) Day { return DayOf(d.Time().AddDate(0, 0, n)) }

func (d Day) Before(other Day) bool { return d < other }
func (d Day) After(other Day) bool { return d > other }

func (d Day) String() string { return d.Time().Format(dateLayout) }

// SameMonth reports whether both days fall in the same calendar month and year.
func (d Day) SameMonth(other Day) bool { return int(d)/100 == int(other)/100 }

// StartOfMonth returns the first day of d's month.
func (d Day) StartOfMonth() Day { return NewDay(d.Year(), d.Month(), 1) }

// EndOfMonth returns the last day of d's month.
func (d Day) EndOfMonth() Day { return NewDay(d.Year(), d.Month()+1, 0) }

// Range is an inclusive span of days.
type Range struct {
	Start Day
	End   Day
}

// NewRange builds a Range from two instants, normalizing both.
func NewRange(start, end time.Time) Range {
	return Range{Start: DayOf(start), End: DayOf(end)}
}

func (r Range) Valid() bool { return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start) }

func (r Range) Contains(d Day) bool { return d >= r.Start && d <= r.End }

// Overlaps reports whether the two ranges share at least one day.
func (r Range) Overlaps(other Range) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Len is the number of days in the range, zero for an invalid range.
func (r Range) Len() int {
	if !r.Valid() {
		return 0
	}
	return int(r.End.Time().Sub(r.Start.Time()).Hours()/24) + 1
}

// Days lists every day of the range in order.
func (r Range) Days() []Day {
	if !r.Valid() {
		return nil
	}
	days := make([]Day, 0, r.Len())
	for d := r.Start; d <= r.End; d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// IsSemiMonthly reports whether the range is short enough to be one of two
// cutoffs in a month.
func (r Range) IsSemiMonthly() bool { return r.Len() <= semiMonthlyMaxDays }

// Label renders the range as "2006-01-02 to 2006-01-02".
func (r Range) Label() string {
	return r.Start.String() + " to " + r.End.String()
}

// WeekdayCount counts Monday through Friday days in the range.
func WeekdayCount(r Range) int {
	count := 0
	for _, d := range r.Days() {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			count++
		}
	}
	return count
}

// ParseClock parses an HH:mm string into minutes after midnight.
func ParseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 24 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}

// ParseClockPtr is ParseClock for optional values.
func ParseClockPtr(s *string) (int, bool) {
	if s == nil {
		return 0, false
	}
	return ParseClock(*s)
}
