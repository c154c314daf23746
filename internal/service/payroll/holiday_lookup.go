package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
)

// HolidayMatch describes the holiday status of a date. Type is empty when the
// date is not a holiday.
type HolidayMatch struct {
	Type holiday.Type
	Name string
}

func (m HolidayMatch) IsHoliday() bool { return m.Type != "" }
func (m HolidayMatch) IsRegular() bool { return m.Type == holiday.TypeRegular }
func (m HolidayMatch) IsSpecial() bool { return m.Type == holiday.TypeSpecial }

type holidayLookup struct {
	byDay map[calendar.Day]holiday.Holiday
}

// newHolidayLookup indexes the holidays that fall inside cutoff. When two
// holidays share a date the regular one wins.
func newHolidayLookup(holidays []holiday.Holiday, cutoff calendar.Range) *holidayLookup {
	byDay := make(map[calendar.Day]holiday.Holiday)
	for _, day := range cutoff.Days() {
		for _, h := range holidays {
			if !h.Type.IsValid() || !h.Matches(day) {
				continue
			}
			if existing, ok := byDay[day]; ok && existing.Type == holiday.TypeRegular {
				continue
			}
			byDay[day] = h
		}
	}
	return &holidayLookup{byDay: byDay}
}

// Lookup applies the precedence record override, then calendar match.
func (l *holidayLookup) Lookup(day calendar.Day, rec *attendance.Record) HolidayMatch {
	if rec != nil {
		if t, ok := rec.HolidayOverride(); ok {
			return HolidayMatch{Type: t}
		}
	}
	if h, ok := l.byDay[day]; ok {
		return HolidayMatch{Type: h.Type, Name: h.Name}
	}
	return HolidayMatch{}
}

// LookupHoliday resolves a single date against a holiday list.
func LookupHoliday(day calendar.Day, holidays []holiday.Holiday, rec *attendance.Record) HolidayMatch {
	return newHolidayLookup(holidays, calendar.Range{Start: day, End: day}).Lookup(day, rec)
}
