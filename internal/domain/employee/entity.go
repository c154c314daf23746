package employee

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

type Employee struct {
	ID               string
	CompanyID        string
	EmployeeCode     string
	FullName         string
	HireDate         time.Time
	EmploymentStatus EmploymentStatus

	// WeeklySchedule is indexed by time.Weekday.
	WeeklySchedule [7]DaySchedule
	Overrides      []ScheduleOverride

	Compensation Compensation
	LeaveCredits []LeaveCredit
	Deductions   []Adjustment
	Incentives   []Adjustment

	CreatedAt time.Time
	UpdatedAt time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// DaySchedule is the default for one weekday. Times are HH:mm.
type DaySchedule struct {
	InTime    string `json:"in_time"`
	OutTime   string `json:"out_time"`
	IsWorkday bool   `json:"is_workday"`
}

// ScheduleOverride forces a specific date to be a working day.
type ScheduleOverride struct {
	Date    time.Time
	InTime  string
	OutTime string
}

type SalaryType string

const (
	SalaryTypeMonthly SalaryType = "monthly"
	SalaryTypeDaily   SalaryType = "daily"
	SalaryTypeHourly  SalaryType = "hourly"
)

// Compensation holds pay terms. BasicSalary is per month, per day or per hour
// depending on SalaryType. Allowance is always a monthly, non-taxable amount.
type Compensation struct {
	BasicSalary decimal.Decimal
	Allowance   decimal.Decimal
	SalaryType  SalaryType

	// Per-employee holiday multipliers, nil means the company rate applies.
	RegularHolidayRate *decimal.Decimal
	SpecialHolidayRate *decimal.Decimal
}

type LeaveCredit struct {
	LeaveType string
	Total     decimal.Decimal
	Used      decimal.Decimal
	Balance   decimal.Decimal
}

type AdjustmentFrequency string

const (
	FrequencyEveryCutoff AdjustmentFrequency = "every_cutoff"
	FrequencyMonthly     AdjustmentFrequency = "monthly"
	FrequencyOneTime     AdjustmentFrequency = "one_time"
)

// Adjustment is a recurring custom deduction or incentive.
type Adjustment struct {
	ID         string
	Name       string
	Amount     decimal.Decimal
	Frequency  AdjustmentFrequency
	ActiveFrom *time.Time
	ActiveTo   *time.Time
}

// ActiveOn reports whether the adjustment's active range covers day.
func (a Adjustment) ActiveOn(day calendar.Day) bool {
	if a.ActiveFrom != nil && day.Before(calendar.DayOf(*a.ActiveFrom)) {
		return false
	}
	if a.ActiveTo != nil && day.After(calendar.DayOf(*a.ActiveTo)) {
		return false
	}
	return true
}

// AppliesTo decides whether the adjustment belongs on a payslip for cutoff,
// given the instant the run is computed.
func (a Adjustment) AppliesTo(cutoff calendar.Range, asOf time.Time) bool {
	if a.Amount.IsZero() {
		return false
	}
	switch a.Frequency {
	case FrequencyOneTime:
		return a.ActiveFrom != nil && cutoff.Contains(calendar.DayOf(*a.ActiveFrom))
	case FrequencyMonthly:
		if cutoff.IsSemiMonthly() && !cutoff.Contains(cutoff.End.EndOfMonth()) {
			return false
		}
	}
	return a.ActiveOn(calendar.DayOf(asOf))
}

// IsActive reports whether the employee should be included in a payroll run.
func (e Employee) IsActive() bool {
	return e.EmploymentStatus == "" || e.EmploymentStatus == EmploymentStatusActive
}
