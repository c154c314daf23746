package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var (
	fullDay = decimal.NewFromInt(1)
	halfDay = decimal.RequireFromString("0.5")
)

// Classification is the outcome of classifying one cutoff date.
type Classification struct {
	Kind payroll.DayKind
	// Multiplier is the share of a day paid as worked: 1, 0.5 or 0.
	Multiplier decimal.Decimal
	RestDay    bool
	Holiday    HolidayMatch
}

// CountsAsWorked reports whether the date counts toward days worked.
func (c Classification) CountsAsWorked() bool {
	switch c.Kind {
	case payroll.DayWorked, payroll.DayHalfDay, payroll.DayPaidLeave:
		return true
	}
	return false
}

// Classify combines an optional attendance record with the schedule, holiday
// and leave lookups of the same date.
func Classify(rec *attendance.Record, sched ScheduleResolution, hol HolidayMatch, paidLeave bool) Classification {
	c := Classification{Multiplier: decimal.Zero, RestDay: !sched.IsWorkday, Holiday: hol}

	if rec != nil {
		switch rec.Status {
		case attendance.StatusPresent:
			c.Kind, c.Multiplier = payroll.DayWorked, fullDay
			return c
		case attendance.StatusHalfDay:
			c.Kind, c.Multiplier = payroll.DayHalfDay, halfDay
			return c
		}
	}

	// absent, leave or no record at all; paid leave never pays a rest day.
	// Regular holiday pay without attendance needs no record or an absent one.
	absent := rec != nil && rec.Status == attendance.StatusAbsent
	switch {
	case paidLeave && !c.RestDay:
		c.Kind, c.Multiplier = payroll.DayPaidLeave, fullDay
	case hol.IsRegular() && !paidLeave && (rec == nil || absent):
		c.Kind = payroll.DayHolidayNoAttendance
	case absent && !paidLeave:
		c.Kind = payroll.DayUnpaidAbsence
	case c.RestDay:
		c.Kind = payroll.DayRestDay
	default:
		c.Kind = payroll.DayUnpaidAbsence
	}
	return c
}
