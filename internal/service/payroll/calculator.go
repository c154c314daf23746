package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

const (
	minutesPerDay   = 24 * 60
	nightStart      = 22 * 60
	nightEnd        = 6 * 60
	regularOTHours  = 8
	centavoDecimals = 2
)

var (
	hoursPerDay    = decimal.NewFromInt(payroll.HoursPerDay)
	monthsPerYear  = decimal.NewFromInt(12)
	minutesPerHour = decimal.NewFromInt(60)
	semiMonthly    = decimal.RequireFromString("0.5")
)

// DailyRate converts the employee's basic salary into a daily rate.
func DailyRate(comp employee.Compensation, rates payroll.PayrollRates) decimal.Decimal {
	switch comp.SalaryType {
	case employee.SalaryTypeDaily:
		return comp.BasicSalary
	case employee.SalaryTypeHourly:
		return comp.BasicSalary.Mul(hoursPerDay)
	}

	if rates.DailyRate == nil {
		return comp.BasicSalary.Div(decimal.NewFromInt(payroll.LegacyWorkingDaysPerMonth))
	}
	base := comp.BasicSalary
	if rates.DailyRate.IncludeAllowance {
		base = base.Add(comp.Allowance)
	}
	return base.Mul(monthsPerYear).Div(decimal.NewFromInt(int64(rates.DailyRate.Days())))
}

// HourlyRate is the daily rate spread over an eight hour day.
func HourlyRate(daily decimal.Decimal) decimal.Decimal {
	return daily.Div(hoursPerDay)
}

// MonthlyBasis is the monthly basic salary statutory contributions are read
// from. Daily and hourly rates are scaled by the working days of a month.
func MonthlyBasis(comp employee.Compensation, rates payroll.PayrollRates) decimal.Decimal {
	var daily decimal.Decimal
	switch comp.SalaryType {
	case employee.SalaryTypeDaily:
		daily = comp.BasicSalary
	case employee.SalaryTypeHourly:
		daily = comp.BasicSalary.Mul(hoursPerDay)
	default:
		return comp.BasicSalary
	}
	if rates.DailyRate == nil {
		return daily.Mul(decimal.NewFromInt(payroll.LegacyWorkingDaysPerMonth))
	}
	return daily.Mul(decimal.NewFromInt(int64(rates.DailyRate.Days()))).Div(monthsPerYear)
}

// cutoffFactor is the share of monthly figures paid in the cutoff.
func cutoffFactor(cutoff calendar.Range) decimal.Decimal {
	if cutoff.IsSemiMonthly() {
		return semiMonthly
	}
	return fullDay
}

// OvertimeMultiplier picks the overtime rate by precedence: rest day and
// holiday, holiday only, rest day only, then regular.
func OvertimeMultiplier(restDay bool, hol HolidayMatch, rates payroll.PayrollRates) decimal.Decimal {
	switch {
	case restDay && hol.IsRegular():
		return rates.RestDayRegularHolidayOvertime
	case restDay && hol.IsSpecial():
		return rates.RestDaySpecialHolidayOvertime
	case hol.IsRegular():
		return rates.RegularHolidayOvertime
	case hol.IsSpecial():
		return rates.SpecialHolidayOvertime
	case restDay:
		return rates.RestDayOvertime
	}
	return rates.RegularOvertime
}

// NightDiffHours is the overlap of the actual in/out interval with the
// 22:00-06:00 window. An out time at or before the in time is read as the
// next day.
func NightDiffHours(actualIn, actualOut string) decimal.Decimal {
	in, ok := calendar.ParseClock(actualIn)
	if !ok {
		return decimal.Zero
	}
	out, ok := calendar.ParseClock(actualOut)
	if !ok {
		return decimal.Zero
	}
	if out <= in {
		out += minutesPerDay
	}

	windows := [][2]int{
		{0, nightEnd},
		{nightStart, minutesPerDay + nightEnd},
		{minutesPerDay + nightStart, 2*minutesPerDay + nightEnd},
	}
	minutes := 0
	for _, w := range windows {
		minutes += overlap(in, out, w[0], w[1])
	}
	return decimal.NewFromInt(int64(minutes)).Div(minutesPerHour)
}

func overlap(aStart, aEnd, bStart, bEnd int) int {
	start := max(aStart, bStart)
	end := min(aEnd, bEnd)
	if end <= start {
		return 0
	}
	return end - start
}

// lateAndUndertime returns the late and undertime minutes of a worked day.
func lateAndUndertime(rec attendance.Record, sched ScheduleResolution) (late, undertime int) {
	schedInStr, schedOutStr := rec.ScheduledIn, rec.ScheduledOut
	if schedInStr == "" {
		schedInStr = sched.InTime
	}
	if schedOutStr == "" {
		schedOutStr = sched.OutTime
	}
	schedIn, okIn := calendar.ParseClock(schedInStr)
	schedOut, okOut := calendar.ParseClock(schedOutStr)
	actualIn, okActualIn := calendar.ParseClockPtr(rec.ActualIn)
	actualOut, okActualOut := calendar.ParseClockPtr(rec.ActualOut)

	if okIn && okActualIn && actualIn > schedIn {
		late = actualIn - schedIn
	}
	if okIn && okOut && okActualOut {
		if schedOut <= schedIn {
			schedOut += minutesPerDay
		}
		if okActualIn && actualOut < actualIn {
			actualOut += minutesPerDay
		}
		if actualOut < schedOut {
			undertime = schedOut - actualOut
		}
	}
	return late, undertime
}

// calculator computes pay for one employee over one cutoff.
type calculator struct {
	rates       payroll.PayrollRates
	daily       decimal.Decimal
	hourly      decimal.Decimal
	monthly     bool
	regularRate decimal.Decimal
	specialRate decimal.Decimal

	basic          decimal.Decimal
	breakdown      payroll.PayBreakdown
	absenceAmount  decimal.Decimal
	lateMinutes    int
	undertimeMins  int
	daysWorked     decimal.Decimal
	absences       int
	workedAtLeast1 bool
}

func newCalculator(comp employee.Compensation, rates payroll.PayrollRates) *calculator {
	daily := DailyRate(comp, rates)
	c := &calculator{
		rates:       rates,
		daily:       daily,
		hourly:      HourlyRate(daily),
		monthly:     comp.SalaryType != employee.SalaryTypeDaily && comp.SalaryType != employee.SalaryTypeHourly,
		regularRate: rates.RegularHolidayRate,
		specialRate: rates.SpecialHolidayRate,
	}
	if comp.RegularHolidayRate != nil {
		c.regularRate = *comp.RegularHolidayRate
	}
	if comp.SpecialHolidayRate != nil {
		c.specialRate = *comp.SpecialHolidayRate
	}
	return c
}

// applyDay adds one classified date and returns its earnings and deduction.
func (c *calculator) applyDay(cls Classification, rec *attendance.Record, sched ScheduleResolution) (earnings, deduction decimal.Decimal) {
	earnings, deduction = decimal.Zero, decimal.Zero

	switch cls.Kind {
	case payroll.DayWorked, payroll.DayHalfDay:
		m := cls.Multiplier
		c.workedAtLeast1 = true
		c.daysWorked = c.daysWorked.Add(m)

		if !c.monthly {
			base := c.daily.Mul(m)
			c.basic = c.basic.Add(base)
			earnings = earnings.Add(base)
		} else if cls.Kind == payroll.DayHalfDay {
			d := c.daily.Mul(halfDay)
			c.absenceAmount = c.absenceAmount.Add(d)
			deduction = deduction.Add(d)
		}

		if cls.RestDay {
			p := c.rates.RestDayPremium.Mul(m).Mul(c.daily)
			c.breakdown.RestDay = c.breakdown.RestDay.Add(p)
			earnings = earnings.Add(p)
		}

		switch {
		case cls.Holiday.IsRegular():
			p := c.daily.Mul(c.regularRate)
			c.breakdown.Holiday = c.breakdown.Holiday.Add(p)
			earnings = earnings.Add(p)
		case cls.Holiday.IsSpecial():
			p := c.daily.Mul(c.specialRate)
			c.breakdown.Holiday = c.breakdown.Holiday.Add(p)
			earnings = earnings.Add(p)
		}

		if rec == nil {
			return earnings, deduction
		}

		if hours := rec.OvertimeOrZero(); hours.IsPositive() {
			regularHours := decimal.Min(hours, decimal.NewFromInt(regularOTHours))
			excessHours := hours.Sub(regularHours)
			rate := c.hourly.Mul(OvertimeMultiplier(cls.RestDay, cls.Holiday, c.rates))
			regularPay := regularHours.Mul(rate)
			excessPay := excessHours.Mul(rate)

			c.breakdown.RegularOvertime = c.breakdown.RegularOvertime.Add(regularPay)
			c.breakdown.ExcessOvertime = c.breakdown.ExcessOvertime.Add(excessPay)
			c.breakdown.Overtime = c.breakdown.Overtime.Add(regularPay).Add(excessPay)
			c.breakdown.OvertimeHours = c.breakdown.OvertimeHours.Add(hours)
			c.breakdown.ExcessOvertimeHours = c.breakdown.ExcessOvertimeHours.Add(excessHours)
			earnings = earnings.Add(regularPay).Add(excessPay)
		}

		if rec.ActualIn != nil && rec.ActualOut != nil {
			if hours := NightDiffHours(*rec.ActualIn, *rec.ActualOut); hours.IsPositive() {
				p := hours.Mul(c.hourly).Mul(c.rates.NightDiffRate)
				c.breakdown.NightDiff = c.breakdown.NightDiff.Add(p)
				c.breakdown.NightDiffHours = c.breakdown.NightDiffHours.Add(hours)
				earnings = earnings.Add(p)
			}
		}

		if cls.Kind == payroll.DayWorked {
			late, undertime := lateAndUndertime(*rec, sched)
			c.lateMinutes += late
			c.undertimeMins += undertime
			if late+undertime > 0 {
				deduction = deduction.Add(c.minutesPay(late + undertime))
			}
		}

	case payroll.DayPaidLeave:
		c.workedAtLeast1 = true
		c.daysWorked = c.daysWorked.Add(fullDay)
		if !c.monthly {
			c.basic = c.basic.Add(c.daily)
			earnings = c.daily
		}

	case payroll.DayHolidayNoAttendance:
		p := c.daily.Mul(c.regularRate)
		c.breakdown.Holiday = c.breakdown.Holiday.Add(p)
		earnings = p

	case payroll.DayUnpaidAbsence:
		c.absences++
		if c.monthly {
			c.absenceAmount = c.absenceAmount.Add(c.daily)
			deduction = c.daily
		}
	}

	return earnings, deduction
}

func (c *calculator) minutesPay(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(minutesPerHour).Mul(c.hourly)
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(centavoDecimals)
}

func roundBreakdown(b payroll.PayBreakdown) payroll.PayBreakdown {
	return payroll.PayBreakdown{
		Holiday:             round(b.Holiday),
		RestDay:             round(b.RestDay),
		NightDiff:           round(b.NightDiff),
		Overtime:            round(b.RegularOvertime).Add(round(b.ExcessOvertime)),
		RegularOvertime:     round(b.RegularOvertime),
		ExcessOvertime:      round(b.ExcessOvertime),
		OvertimeHours:       b.OvertimeHours,
		ExcessOvertimeHours: b.ExcessOvertimeHours,
		NightDiffHours:      round(b.NightDiffHours),
	}
}

func indexAttendance(records []attendance.Record, employeeID string, cutoff calendar.Range) map[calendar.Day]attendance.Record {
	byDay := make(map[calendar.Day]attendance.Record, len(records))
	for _, rec := range records {
		if employeeID != "" && rec.EmployeeID != "" && rec.EmployeeID != employeeID {
			continue
		}
		day := calendar.DayOf(rec.Date)
		if cutoff.Contains(day) {
			byDay[day] = rec
		}
	}
	return byDay
}

// Compute is the single pay calculation used by every payroll flow. It reads
// only its input and never fails: malformed optional values count as zero.
func Compute(in payroll.ComputeInput) payroll.PayComputationResult {
	emp := in.Employee
	c := newCalculator(emp.Compensation, in.Rates)
	factor := cutoffFactor(in.Cutoff)

	schedules := newScheduleResolver(emp)
	holidays := newHolidayLookup(in.Holidays, in.Cutoff)
	leaves := newLeaveEligibility(in.Leaves, in.LeaveTypes, in.Cutoff)
	records := indexAttendance(in.Attendance, emp.ID, in.Cutoff)

	result := payroll.PayComputationResult{
		EmployeeID:   emp.ID,
		SemiMonthly:  in.Cutoff.IsSemiMonthly(),
		DailyRate:    c.daily,
		HourlyRate:   c.hourly,
		MonthlyBasis: MonthlyBasis(emp.Compensation, in.Rates),
	}

	for _, day := range in.Cutoff.Days() {
		var rec *attendance.Record
		if r, ok := records[day]; ok {
			rec = &r
		}
		sched := schedules.Resolve(day)
		cls := Classify(rec, sched, holidays.Lookup(day, rec), leaves.IsPaidLeave(day))
		earnings, deduction := c.applyDay(cls, rec, sched)

		result.Days = append(result.Days, payroll.DayResult{
			Date:      day.String(),
			Kind:      cls.Kind,
			RestDay:   cls.RestDay,
			Holiday:   cls.Holiday.Type,
			Earnings:  round(earnings),
			Deduction: round(deduction),
		})
	}

	if c.monthly {
		c.basic = emp.Compensation.BasicSalary.Mul(factor)
	}

	result.BasicPay = round(c.basic)
	result.Breakdown = roundBreakdown(c.breakdown)
	result.GrossPay = result.BasicPay.Add(result.Breakdown.Total())
	result.NonTaxableAllowance = round(emp.Compensation.Allowance.Mul(factor))
	result.DaysWorked = c.daysWorked
	result.Absences = c.absences
	result.LateHours = round(decimal.NewFromInt(int64(c.lateMinutes)).Div(minutesPerHour))
	result.UndertimeHours = round(decimal.NewFromInt(int64(c.undertimeMins)).Div(minutesPerHour))
	result.WorkedAtLeastOneDay = c.workedAtLeast1

	result.AttendanceDeductions = []payroll.LineItem{}
	for _, line := range []payroll.LineItem{
		{Name: payroll.LineAbsences, Amount: round(c.absenceAmount)},
		{Name: payroll.LineLate, Amount: round(c.minutesPay(c.lateMinutes))},
		{Name: payroll.LineUndertime, Amount: round(c.minutesPay(c.undertimeMins))},
	} {
		if line.Amount.IsPositive() {
			line.Category = payroll.CategoryAttendance
			result.AttendanceDeductions = append(result.AttendanceDeductions, line)
		}
	}

	return result
}
