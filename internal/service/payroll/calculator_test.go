package payroll

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyRate(t *testing.T) {
	legacy := payroll.DefaultRates()

	monthly := newEmployee("m", employee.SalaryTypeMonthly, "30000").Compensation
	assertDec(t, "1379.31", round(DailyRate(monthly, rates261())))
	assertDec(t, "172.41", round(HourlyRate(DailyRate(monthly, rates261()))))
	assertDec(t, "1000", DailyRate(newEmployee("m", employee.SalaryTypeMonthly, "22000").Compensation, legacy))

	daily := newEmployee("d", employee.SalaryTypeDaily, "800").Compensation
	assertDec(t, "800", DailyRate(daily, legacy))
	hourly := newEmployee("h", employee.SalaryTypeHourly, "100").Compensation
	assertDec(t, "800", DailyRate(hourly, rates261()))

	zeroDays := payroll.DefaultRates()
	zeroDays.DailyRate = &payroll.DailyRateConfig{}
	assertDec(t, "1379.31", round(DailyRate(monthly, zeroDays)), "zero working days falls back to 261")

	withAllowance := monthly
	withAllowance.Allowance = dec("2625")
	includeAllowance := payroll.DefaultRates()
	includeAllowance.DailyRate = &payroll.DailyRateConfig{WorkingDaysPerYear: 261, IncludeAllowance: true}
	// (30000 + 2625) * 12 / 261
	assertDec(t, "1500", DailyRate(withAllowance, includeAllowance))
}

func TestMonthlyBasis(t *testing.T) {
	daily := newEmployee("d", employee.SalaryTypeDaily, "800").Compensation
	assertDec(t, "17600", MonthlyBasis(daily, payroll.DefaultRates()))
	assertDec(t, "17400", MonthlyBasis(daily, rates261()))

	monthly := newEmployee("m", employee.SalaryTypeMonthly, "30000").Compensation
	assertDec(t, "30000", MonthlyBasis(monthly, rates261()))
}

func TestOvertimeMultiplier(t *testing.T) {
	rates := payroll.DefaultRates()
	regular := HolidayMatch{Type: holiday.TypeRegular}
	special := HolidayMatch{Type: holiday.TypeSpecial}

	assertDec(t, "2.60", OvertimeMultiplier(true, regular, rates))
	assertDec(t, "1.95", OvertimeMultiplier(true, special, rates))
	assertDec(t, "2.00", OvertimeMultiplier(false, regular, rates))
	assertDec(t, "1.69", OvertimeMultiplier(false, special, rates))
	assertDec(t, "1.69", OvertimeMultiplier(true, HolidayMatch{}, rates))
	assertDec(t, "1.25", OvertimeMultiplier(false, HolidayMatch{}, rates))
}

func TestNightDiffHours(t *testing.T) {
	cases := []struct {
		in, out string
		want    string
	}{
		{"22:00", "06:00", "8"},
		{"20:00", "23:00", "1"},
		{"23:00", "01:00", "2"},
		{"04:00", "08:00", "2"},
		{"08:00", "17:00", "0"},
		{"18:00", "07:00", "8"},
		{"bad", "06:00", "0"},
	}
	for _, c := range cases {
		assertDec(t, c.want, NightDiffHours(c.in, c.out), "%s-%s", c.in, c.out)
	}
}

func TestCompute_SemiMonthlyBasicSumsToSalary(t *testing.T) {
	emp := newEmployee("e1", employee.SalaryTypeMonthly, "30000")
	emp.Compensation.Allowance = dec("2000")

	var records []attendance.Record
	for _, d := range span(day(2026, time.January, 1), day(2026, time.January, 31)).Days() {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			records = append(records, present("e1", d, "08:00", "17:00"))
		}
	}

	first := Compute(payroll.ComputeInput{Employee: emp, Attendance: records, Rates: rates261(),
		Cutoff: span(day(2026, time.January, 1), day(2026, time.January, 15))})
	second := Compute(payroll.ComputeInput{Employee: emp, Attendance: records, Rates: rates261(),
		Cutoff: span(day(2026, time.January, 16), day(2026, time.January, 31))})

	assert.True(t, first.SemiMonthly)
	assertDec(t, "15000", first.BasicPay)
	assertDec(t, "30000", first.BasicPay.Add(second.BasicPay))
	assertDec(t, "2000", first.NonTaxableAllowance.Add(second.NonTaxableAllowance))
	assert.Empty(t, first.AttendanceDeductions)
	assert.True(t, first.WorkedAtLeastOneDay)
	assertDec(t, "11", first.DaysWorked)
	assert.Len(t, first.Days, 15)

	full := Compute(payroll.ComputeInput{Employee: emp, Attendance: records, Rates: rates261(),
		Cutoff: span(day(2026, time.January, 1), day(2026, time.January, 31))})
	assert.False(t, full.SemiMonthly)
	assertDec(t, "30000", full.BasicPay)
}

func TestCompute_LateDeduction(t *testing.T) {
	emp := newEmployee("e1", employee.SalaryTypeMonthly, "30000")
	monday := day(2026, time.January, 5)

	res := Compute(payroll.ComputeInput{
		Employee:   emp,
		Attendance: []attendance.Record{present("e1", monday, "08:30", "17:00")},
		Rates:      rates261(),
		Cutoff:     span(monday, monday),
	})

	require.Len(t, res.AttendanceDeductions, 1)
	assert.Equal(t, payroll.LineLate, res.AttendanceDeductions[0].Name)
	assert.Equal(t, payroll.CategoryAttendance, res.AttendanceDeductions[0].Category)
	assertDec(t, "86.21", res.AttendanceDeductions[0].Amount)
	assertDec(t, "0.5", res.LateHours)
	assertDec(t, "0", res.UndertimeHours)
}

func TestCompute_UndertimeUsesRecordSchedule(t *testing.T) {
	emp := newEmployee("e1", employee.SalaryTypeDaily, "800")
	monday := day(2026, time.January, 5)
	rec := present("e1", monday, "09:00", "17:00")
	rec.ScheduledIn, rec.ScheduledOut = "09:00", "18:00"

	res := Compute(payroll.ComputeInput{Employee: emp, Attendance: []attendance.Record{rec}, Rates: payroll.DefaultRates(), Cutoff: span(monday, monday)})

	require.Len(t, res.AttendanceDeductions, 1)
	assert.Equal(t, payroll.LineUndertime, res.AttendanceDeductions[0].Name)
	assertDec(t, "100", res.AttendanceDeductions[0].Amount)
	assertDec(t, "800", res.BasicPay)
}

func TestCompute_UnpaidAbsencesForMonthly(t *testing.T) {
	emp := newEmployee("e1", employee.SalaryTypeMonthly, "22000")
	week := span(day(2026, time.January, 5), day(2026, time.January, 11))

	res := Compute(payroll.ComputeInput{Employee: emp, Rates: payroll.DefaultRates(), Cutoff: week})

	assert.Equal(t, 5, res.Absences)
	assert.False(t, res.WorkedAtLeastOneDay)
	require.Len(t, res.AttendanceDeductions, 1)
	assert.Equal(t, payroll.LineAbsences, res.AttendanceDeductions[0].Name)
	assertDec(t, "5000", res.AttendanceDeductions[0].Amount)
	assert.Equal(t, payroll.DayRestDay, res.Days[5].Kind)

	dailyEmp := newEmployee("e2", employee.SalaryTypeDaily, "800")
	res = Compute(payroll.ComputeInput{Employee: dailyEmp, Rates: payroll.DefaultRates(), Cutoff: week})
	assert.Equal(t, 5, res.Absences)
	assert.Empty(t, res.AttendanceDeductions)
	assertDec(t, "0", res.GrossPay)
}

func TestCompute_AbsentRecordOnRestDay(t *testing.T) {
	emp := newEmployee("e1", employee.SalaryTypeMonthly, "22000")
	saturday := day(2026, time.January, 10)

	res := Compute(payroll.ComputeInput{
		Employee:   emp,
		Attendance: []attendance.Record{withStatus("e1", saturday, attendance.StatusAbsent)},
		Rates:      payroll.DefaultRates(),
		Cutoff:     span(saturday, saturday),
	})

	assert.Equal(t, payroll.DayUnpaidAbsence, res.Days[0].Kind)
	assert.True(t, res.Days[0].RestDay)
	assert.Equal(t, 1, res.Absences)
	require.Len(t, res.AttendanceDeductions, 1)
	assertDec(t, "1000", res.AttendanceDeductions[0].Amount)
}

func TestCompute_HolidayPay(t *testing.T) {
	newYear := day(2026, time.January, 1)
	holidays := []holiday.Holiday{{Name: "New Year", Date: newYear.Time(), Type: holiday.TypeRegular}}

	t.Run("regular holiday without attendance pays daily employee", func(t *testing.T) {
		emp := newEmployee("d", employee.SalaryTypeDaily, "1000")
		res := Compute(payroll.ComputeInput{Employee: emp, Holidays: holidays, Rates: payroll.DefaultRates(), Cutoff: span(newYear, newYear)})

		assert.Equal(t, payroll.DayHolidayNoAttendance, res.Days[0].Kind)
		assertDec(t, "1000", res.Breakdown.Holiday)
		assertDec(t, "0", res.BasicPay)
		assertDec(t, "1000", res.GrossPay)
		assert.Equal(t, 0, res.Absences)
		assert.False(t, res.WorkedAtLeastOneDay)
	})

	t.Run("absent record on regular holiday still pays", func(t *testing.T) {
		emp := newEmployee("d", employee.SalaryTypeDaily, "1000")
		res := Compute(payroll.ComputeInput{
			Employee:   emp,
			Attendance: []attendance.Record{withStatus("d", newYear, attendance.StatusAbsent)},
			Holidays:   holidays,
			Rates:      payroll.DefaultRates(),
			Cutoff:     span(newYear, newYear),
		})
		assert.Equal(t, payroll.DayHolidayNoAttendance, res.Days[0].Kind)
		assertDec(t, "1000", res.Breakdown.Holiday)
		assert.Equal(t, 0, res.Absences)
	})

	t.Run("unpaid leave on regular holiday earns no holiday pay", func(t *testing.T) {
		emp := newEmployee("d", employee.SalaryTypeDaily, "1000")
		res := Compute(payroll.ComputeInput{
			Employee:   emp,
			Attendance: []attendance.Record{withStatus("d", newYear, attendance.StatusLeave)},
			Holidays:   holidays,
			Rates:      payroll.DefaultRates(),
			Cutoff:     span(newYear, newYear),
		})
		assert.Equal(t, payroll.DayUnpaidAbsence, res.Days[0].Kind)
		assertDec(t, "0", res.Breakdown.Holiday)
		assertDec(t, "0", res.GrossPay)
		assert.Equal(t, 1, res.Absences)
	})

	t.Run("worked regular holiday adds full day for monthly", func(t *testing.T) {
		emp := newEmployee("m", employee.SalaryTypeMonthly, "22000")
		res := Compute(payroll.ComputeInput{
			Employee:   emp,
			Attendance: []attendance.Record{present("m", newYear, "08:00", "17:00")},
			Holidays:   holidays,
			Rates:      payroll.DefaultRates(),
			Cutoff:     span(newYear, newYear),
		})
		assertDec(t, "1000", res.Breakdown.Holiday)
		assertDec(t, "12000", res.GrossPay)
	})

	t.Run("employee special holiday rate overrides company rate", func(t *testing.T) {
		emp := newEmployee("d", employee.SalaryTypeDaily, "1000")
		rate := dec("0.50")
		emp.Compensation.SpecialHolidayRate = &rate
		special := holiday.TypeSpecial
		rec := present("d", newYear, "08:00", "17:00")
		rec.IsHoliday, rec.HolidayType = true, &special

		res := Compute(payroll.ComputeInput{Employee: emp, Attendance: []attendance.Record{rec}, Holidays: holidays, Rates: payroll.DefaultRates(), Cutoff: span(newYear, newYear)})
		assertDec(t, "500", res.Breakdown.Holiday)
		assertDec(t, "1500", res.GrossPay)
	})
}

func TestCompute_RestDayOvertimeAndNightDiff(t *testing.T) {
	emp := newEmployee("d", employee.SalaryTypeDaily, "800")
	saturday := day(2026, time.January, 10)
	monday := day(2026, time.January, 12)

	weekend := present("d", saturday, "08:00", "17:00")
	res := Compute(payroll.ComputeInput{Employee: emp, Attendance: []attendance.Record{weekend}, Rates: payroll.DefaultRates(), Cutoff: span(saturday, saturday)})
	assertDec(t, "240", res.Breakdown.RestDay)
	assertDec(t, "1040", res.GrossPay)
	assert.True(t, res.Days[0].RestDay)

	overtime := present("d", monday, "08:00", "17:00")
	hours := dec("10")
	overtime.OvertimeHours = &hours
	res = Compute(payroll.ComputeInput{Employee: emp, Attendance: []attendance.Record{overtime}, Rates: payroll.DefaultRates(), Cutoff: span(monday, monday)})
	assertDec(t, "1000", res.Breakdown.RegularOvertime)
	assertDec(t, "250", res.Breakdown.ExcessOvertime)
	assertDec(t, "1250", res.Breakdown.Overtime)
	assertDec(t, "2", res.Breakdown.ExcessOvertimeHours)

	night := present("d", monday, "22:00", "06:00")
	night.ScheduledIn, night.ScheduledOut = "22:00", "06:00"
	res = Compute(payroll.ComputeInput{Employee: emp, Attendance: []attendance.Record{night}, Rates: payroll.DefaultRates(), Cutoff: span(monday, monday)})
	assertDec(t, "8", res.Breakdown.NightDiffHours)
	assertDec(t, "80", res.Breakdown.NightDiff)
	assert.Empty(t, res.AttendanceDeductions)
}

func TestCompute_HalfDayAndPaidLeave(t *testing.T) {
	monday := day(2026, time.January, 5)
	tuesday := day(2026, time.January, 6)
	leaves := []leave.Request{{
		EmployeeID: "m",
		Category:   leave.CategoryVacation,
		StartDate:  tuesday.Time(),
		EndDate:    tuesday.Time(),
		Status:     leave.RequestStatusApproved,
	}}

	emp := newEmployee("m", employee.SalaryTypeMonthly, "22000")
	res := Compute(payroll.ComputeInput{
		Employee:   emp,
		Attendance: []attendance.Record{withStatus("m", monday, attendance.StatusHalfDay)},
		Leaves:     leaves,
		Rates:      payroll.DefaultRates(),
		Cutoff:     span(monday, tuesday),
	})
	assertDec(t, "1.5", res.DaysWorked)
	assert.Equal(t, 0, res.Absences)
	require.Len(t, res.AttendanceDeductions, 1)
	assertDec(t, "500", res.AttendanceDeductions[0].Amount)
	assert.Equal(t, payroll.DayPaidLeave, res.Days[1].Kind)

	dailyEmp := newEmployee("m", employee.SalaryTypeDaily, "800")
	res = Compute(payroll.ComputeInput{
		Employee:   dailyEmp,
		Attendance: []attendance.Record{withStatus("m", monday, attendance.StatusHalfDay)},
		Leaves:     leaves,
		Rates:      payroll.DefaultRates(),
		Cutoff:     span(monday, tuesday),
	})
	assertDec(t, "1200", res.BasicPay)
	assert.True(t, res.WorkedAtLeastOneDay)
}
