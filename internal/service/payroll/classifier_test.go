package payroll

import (
	"testing"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	workday := ScheduleResolution{IsWorkday: true, InTime: "08:00", OutTime: "17:00"}
	restDay := ScheduleResolution{}
	regular := HolidayMatch{Type: holiday.TypeRegular}
	special := HolidayMatch{Type: holiday.TypeSpecial}
	rec := func(s attendance.Status) *attendance.Record { return &attendance.Record{Status: s} }

	cases := []struct {
		name       string
		rec        *attendance.Record
		sched      ScheduleResolution
		hol        HolidayMatch
		paidLeave  bool
		kind       payroll.DayKind
		multiplier string
		worked     bool
	}{
		{"present workday", rec(attendance.StatusPresent), workday, HolidayMatch{}, false, payroll.DayWorked, "1", true},
		{"present rest day", rec(attendance.StatusPresent), restDay, HolidayMatch{}, false, payroll.DayWorked, "1", true},
		{"half day", rec(attendance.StatusHalfDay), workday, HolidayMatch{}, false, payroll.DayHalfDay, "0.5", true},
		{"absent no leave", rec(attendance.StatusAbsent), workday, HolidayMatch{}, false, payroll.DayUnpaidAbsence, "0", false},
		{"no record no leave", nil, workday, HolidayMatch{}, false, payroll.DayUnpaidAbsence, "0", false},
		{"paid leave without record", nil, workday, HolidayMatch{}, true, payroll.DayPaidLeave, "1", true},
		{"leave status with paid leave", rec(attendance.StatusLeave), workday, HolidayMatch{}, true, payroll.DayPaidLeave, "1", true},
		{"leave status without approval", rec(attendance.StatusLeave), workday, HolidayMatch{}, false, payroll.DayUnpaidAbsence, "0", false},
		{"paid leave on rest day", nil, restDay, HolidayMatch{}, true, payroll.DayRestDay, "0", false},
		{"regular holiday not attended", nil, workday, regular, false, payroll.DayHolidayNoAttendance, "0", false},
		{"regular holiday on leave", nil, workday, regular, true, payroll.DayPaidLeave, "1", true},
		{"special holiday not attended", nil, workday, special, false, payroll.DayUnpaidAbsence, "0", false},
		{"absent on rest day", rec(attendance.StatusAbsent), restDay, HolidayMatch{}, false, payroll.DayUnpaidAbsence, "0", false},
		{"absent on rest day with paid leave", rec(attendance.StatusAbsent), restDay, HolidayMatch{}, true, payroll.DayRestDay, "0", false},
		{"no record on rest day", nil, restDay, HolidayMatch{}, false, payroll.DayRestDay, "0", false},
		{"absent on regular holiday", rec(attendance.StatusAbsent), workday, regular, false, payroll.DayHolidayNoAttendance, "0", false},
		{"unpaid leave on regular holiday", rec(attendance.StatusLeave), workday, regular, false, payroll.DayUnpaidAbsence, "0", false},
		{"unpaid leave on regular rest day holiday", rec(attendance.StatusLeave), restDay, regular, false, payroll.DayRestDay, "0", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cls := Classify(c.rec, c.sched, c.hol, c.paidLeave)
			assert.Equal(t, c.kind, cls.Kind)
			assertDec(t, c.multiplier, cls.Multiplier)
			assert.Equal(t, c.worked, cls.CountsAsWorked())
			assert.Equal(t, !c.sched.IsWorkday, cls.RestDay)
		})
	}
}
