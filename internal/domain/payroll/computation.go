package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

// ComputeInput carries everything the pay calculation reads for one employee.
type ComputeInput struct {
	Employee   employee.Employee
	Attendance []attendance.Record
	Holidays   []holiday.Holiday
	Leaves     []leave.Request
	LeaveTypes []leave.LeaveType
	Rates      PayrollRates
	Cutoff     calendar.Range
}

type DayKind string

const (
	DayWorked              DayKind = "worked"
	DayHalfDay             DayKind = "half_day"
	DayRestDay             DayKind = "rest_day"
	DayPaidLeave           DayKind = "paid_leave"
	DayUnpaidAbsence       DayKind = "unpaid_absence"
	DayHolidayNoAttendance DayKind = "holiday_without_attendance"
)

// DayResult is the classification and pay contribution of one cutoff date.
type DayResult struct {
	Date      string          `json:"date"`
	Kind      DayKind         `json:"kind"`
	RestDay   bool            `json:"rest_day"`
	Holiday   holiday.Type    `json:"holiday,omitempty"`
	Earnings  decimal.Decimal `json:"earnings"`
	Deduction decimal.Decimal `json:"deduction"`
}

// PayComputationResult is the output of the pure pay calculation. Money
// amounts are rounded to centavos; DailyRate and HourlyRate are not.
type PayComputationResult struct {
	EmployeeID           string          `json:"employee_id"`
	SemiMonthly          bool            `json:"semi_monthly"`
	DailyRate            decimal.Decimal `json:"daily_rate"`
	HourlyRate           decimal.Decimal `json:"hourly_rate"`
	MonthlyBasis         decimal.Decimal `json:"monthly_basis"`
	BasicPay             decimal.Decimal `json:"basic_pay"`
	Breakdown            PayBreakdown    `json:"breakdown"`
	GrossPay             decimal.Decimal `json:"gross_pay"`
	NonTaxableAllowance  decimal.Decimal `json:"non_taxable_allowance"`
	AttendanceDeductions []LineItem      `json:"attendance_deductions"`
	DaysWorked           decimal.Decimal `json:"days_worked"`
	Absences             int             `json:"absences"`
	LateHours            decimal.Decimal `json:"late_hours"`
	UndertimeHours       decimal.Decimal `json:"undertime_hours"`
	WorkedAtLeastOneDay  bool            `json:"worked_at_least_one_day"`
	Days                 []DayResult     `json:"days"`
}
