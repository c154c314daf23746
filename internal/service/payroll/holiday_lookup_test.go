package payroll

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/holiday"
	"github.com/stretchr/testify/assert"
)

func TestLookupHoliday(t *testing.T) {
	year := 2026
	holidays := []holiday.Holiday{
		{Name: "New Year", Date: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), Type: holiday.TypeRegular, Recurring: true},
		{Name: "Company Day", Date: time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC), Type: holiday.TypeSpecial},
		{Name: "Pinned", Date: time.Date(2020, time.April, 9, 0, 0, 0, 0, time.UTC), Type: holiday.TypeRegular, Recurring: true, Year: &year},
		{Name: "Shared special", Date: time.Date(2026, time.June, 12, 0, 0, 0, 0, time.UTC), Type: holiday.TypeSpecial},
		{Name: "Independence Day", Date: time.Date(2026, time.June, 12, 0, 0, 0, 0, time.UTC), Type: holiday.TypeRegular},
		{Name: "Broken", Date: time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), Type: "bogus"},
	}

	assert.Equal(t, HolidayMatch{Type: holiday.TypeRegular, Name: "New Year"}, LookupHoliday(day(2026, time.January, 1), holidays, nil))
	assert.True(t, LookupHoliday(day(2026, time.March, 3), holidays, nil).IsSpecial())
	assert.False(t, LookupHoliday(day(2027, time.March, 3), holidays, nil).IsHoliday())
	assert.True(t, LookupHoliday(day(2026, time.April, 9), holidays, nil).IsRegular())
	assert.False(t, LookupHoliday(day(2027, time.April, 9), holidays, nil).IsHoliday())
	assert.True(t, LookupHoliday(day(2026, time.June, 12), holidays, nil).IsRegular(), "regular wins on a shared date")
	assert.False(t, LookupHoliday(day(2026, time.July, 1), holidays, nil).IsHoliday())
}

func TestLookupHoliday_RecordOverrideWins(t *testing.T) {
	holidays := []holiday.Holiday{
		{Name: "New Year", Date: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), Type: holiday.TypeRegular},
	}
	special := holiday.TypeSpecial
	rec := &attendance.Record{Status: attendance.StatusPresent, IsHoliday: true, HolidayType: &special}

	assert.True(t, LookupHoliday(day(2026, time.January, 1), holidays, rec).IsSpecial())
	assert.True(t, LookupHoliday(day(2026, time.January, 2), holidays, rec).IsSpecial())
	assert.True(t, LookupHoliday(day(2026, time.January, 1), holidays, &attendance.Record{Status: attendance.StatusPresent}).IsRegular())
}
