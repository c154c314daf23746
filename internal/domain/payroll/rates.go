package payroll

import "github.com/shopspring/decimal"

const (
	DefaultWorkingDaysPerYear = 261
	LegacyWorkingDaysPerMonth = 22
	HoursPerDay               = 8
)

// DailyRateConfig parameterizes the monthly-to-daily conversion.
type DailyRateConfig struct {
	WorkingDaysPerYear int  `json:"working_days_per_year"`
	IncludeAllowance   bool `json:"include_allowance"`
}

// Days returns the working days per year, falling back to 261 when unset.
func (c DailyRateConfig) Days() int {
	if c.WorkingDaysPerYear <= 0 {
		return DefaultWorkingDaysPerYear
	}
	return c.WorkingDaysPerYear
}

// PayrollRates is resolved once per run and passed into every calculation.
// A nil DailyRate selects the legacy basic/22 formula.
type PayrollRates struct {
	RegularOvertime               decimal.Decimal `json:"regular_overtime"`
	RestDayOvertime               decimal.Decimal `json:"rest_day_overtime"`
	SpecialHolidayOvertime        decimal.Decimal `json:"special_holiday_overtime"`
	RegularHolidayOvertime        decimal.Decimal `json:"regular_holiday_overtime"`
	RestDayRegularHolidayOvertime decimal.Decimal `json:"rest_day_regular_holiday_overtime"`
	RestDaySpecialHolidayOvertime decimal.Decimal `json:"rest_day_special_holiday_overtime"`

	RestDayPremium     decimal.Decimal `json:"rest_day_premium"`
	RegularHolidayRate decimal.Decimal `json:"regular_holiday_rate"`
	SpecialHolidayRate decimal.Decimal `json:"special_holiday_rate"`
	NightDiffRate      decimal.Decimal `json:"night_diff_rate"`

	PhilHealthEmployee decimal.Decimal `json:"philhealth_employee"`
	PhilHealthEmployer decimal.Decimal `json:"philhealth_employer"`
	PagIBIGEmployee    decimal.Decimal `json:"pagibig_employee"`
	PagIBIGEmployer    decimal.Decimal `json:"pagibig_employer"`

	TaxThreshold decimal.Decimal `json:"tax_threshold"`
	TaxRate      decimal.Decimal `json:"tax_rate"`

	DailyRate *DailyRateConfig `json:"daily_rate,omitempty"`
}

// DefaultRates returns the rates used when a company has no settings.
func DefaultRates() PayrollRates {
	return PayrollRates{
		RegularOvertime:               decimal.RequireFromString("1.25"),
		RestDayOvertime:               decimal.RequireFromString("1.69"),
		SpecialHolidayOvertime:        decimal.RequireFromString("1.69"),
		RegularHolidayOvertime:        decimal.RequireFromString("2.00"),
		RestDayRegularHolidayOvertime: decimal.RequireFromString("2.60"),
		RestDaySpecialHolidayOvertime: decimal.RequireFromString("1.95"),
		RestDayPremium:                decimal.RequireFromString("0.30"),
		RegularHolidayRate:            decimal.RequireFromString("1.00"),
		SpecialHolidayRate:            decimal.RequireFromString("0.30"),
		NightDiffRate:                 decimal.RequireFromString("0.10"),
		PhilHealthEmployee:            decimal.NewFromInt(500),
		PhilHealthEmployer:            decimal.NewFromInt(500),
		PagIBIGEmployee:               decimal.NewFromInt(200),
		PagIBIGEmployer:               decimal.NewFromInt(200),
		TaxThreshold:                  decimal.NewFromInt(23000),
		TaxRate:                       decimal.RequireFromString("0.12"),
	}
}
