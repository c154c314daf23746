package leave

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

const (
	quotaFixed  = "fixed"
	quotaTenure = "tenure"
)

var monthsPerYear = decimal.NewFromInt(12)

type QuotaCalculator struct {
}

func NewQuotaCalculator() *QuotaCalculator {
	return &QuotaCalculator{}
}

// AnnualQuota resolves the yearly days an employee is entitled to on asOf.
func (c *QuotaCalculator) AnnualQuota(emp employee.Employee, leaveType leave.LeaveType, asOf time.Time) (decimal.Decimal, error) {
	rules := leaveType.QuotaRules
	switch rules.Type {
	case quotaTenure:
		return c.calculateTenureBased(emp, rules, asOf)
	case quotaFixed, "":
		return decimal.NewFromFloat(rules.DefaultQuota), nil
	}
	return decimal.Zero, fmt.Errorf("%w: unknown quota type %q", leave.ErrNoQuotaRules, rules.Type)
}

// calculateTenureBased picks the first rule whose [min, max) months range
// holds the tenure, falling back to the default quota.
func (c *QuotaCalculator) calculateTenureBased(emp employee.Employee, rules leave.QuotaRules, asOf time.Time) (decimal.Decimal, error) {
	if len(rules.Rules) == 0 {
		if rules.DefaultQuota > 0 {
			return decimal.NewFromFloat(rules.DefaultQuota), nil
		}
		return decimal.Zero, leave.ErrNoQuotaRules
	}

	tenureMonths := TenureMonths(emp.HireDate, asOf)
	for _, rule := range rules.Rules {
		minMonths := 0
		if rule.MinMonths != nil {
			minMonths = *rule.MinMonths
		}

		maxMonths := 999999 // No limit
		if rule.MaxMonths != nil {
			maxMonths = *rule.MaxMonths
		}

		if tenureMonths >= minMonths && tenureMonths < maxMonths {
			return decimal.NewFromFloat(rule.Quota), nil
		}
	}

	if rules.DefaultQuota > 0 {
		return decimal.NewFromFloat(rules.DefaultQuota), nil
	}
	return decimal.Zero, fmt.Errorf("%w for %d months", leave.ErrNoMatchingRule, tenureMonths)
}

// TenureMonths counts completed months of service on asOf.
func TenureMonths(hireDate, asOf time.Time) int {
	hire, now := calendar.DayOf(hireDate), calendar.DayOf(asOf)

	totalMonths := (now.Year()-hire.Year())*12 + int(now.Month()) - int(hire.Month())

	// Adjust if day hasn't passed yet
	if now.DayOfMonth() < hire.DayOfMonth() {
		totalMonths--
	}

	if totalMonths < 0 {
		totalMonths = 0
	}
	return totalMonths
}

// EntitlementPeriod is the leave year containing asOf: the calendar year, or
// the anniversary year for anniversary accrual.
func EntitlementPeriod(method leave.AccrualMethod, hireDate, asOf time.Time) calendar.Range {
	now := calendar.DayOf(asOf)
	if method != leave.AccrualAnniversary {
		return calendar.Range{Start: calendar.NewDay(now.Year(), time.January, 1), End: calendar.NewDay(now.Year(), time.December, 31)}
	}

	hire := calendar.DayOf(hireDate)
	start := anniversary(hire, now.Year())
	if now.Before(start) {
		start = anniversary(hire, now.Year()-1)
	}
	return calendar.Range{Start: start, End: anniversary(hire, start.Year()+1).AddDays(-1)}
}

// anniversary places the hire month and day in year. A 29 February hire
// date falls on 1 March in other years.
func anniversary(hire calendar.Day, year int) calendar.Day {
	return calendar.NewDay(year, hire.Month(), hire.DayOfMonth())
}

// Accrued is the part of the annual quota earned by asOf.
//
// Yearly grants the quota on the first day of the year, prorated by the
// months left when the employee was hired that year. Monthly earns one
// twelfth on the first of each month in service. Anniversary grants the full
// quota at the start of each anniversary year.
func (c *QuotaCalculator) Accrued(method leave.AccrualMethod, annual decimal.Decimal, hireDate, asOf time.Time) decimal.Decimal {
	period := EntitlementPeriod(method, hireDate, asOf)
	hire, now := calendar.DayOf(hireDate), calendar.DayOf(asOf)
	if now.Before(hire) {
		return decimal.Zero
	}

	monthly := annual.Div(monthsPerYear)
	switch method {
	case leave.AccrualAnniversary:
		return annual.Round(2)

	case leave.AccrualMonthly:
		from := period.Start
		if hire.After(from) {
			from = hire
		}
		months := (now.Year()-from.Year())*12 + int(now.Month()) - int(from.Month()) + 1
		accrued := monthly.Mul(decimal.NewFromInt(int64(months)))
		return decimal.Min(accrued, annual).Round(2)

	default:
		if !period.Contains(hire) {
			return annual.Round(2)
		}
		remaining := 12 - int(hire.Month()) + 1
		return monthly.Mul(decimal.NewFromInt(int64(remaining))).Round(2)
	}
}

// Entitlement computes the full entitlement of one leave type.
func (c *QuotaCalculator) Entitlement(emp employee.Employee, leaveType leave.LeaveType, used decimal.Decimal, asOf time.Time) (leave.Entitlement, error) {
	if calendar.DayOf(asOf).Before(calendar.DayOf(emp.HireDate)) {
		return leave.Entitlement{}, fmt.Errorf("%w: %s is before the hire date", leave.ErrInvalidAsOfDate, calendar.DayOf(asOf))
	}

	annual, err := c.AnnualQuota(emp, leaveType, asOf)
	if err != nil {
		return leave.Entitlement{}, err
	}

	accrued := c.Accrued(leaveType.AccrualMethod, annual, emp.HireDate, asOf)
	period := EntitlementPeriod(leaveType.AccrualMethod, emp.HireDate, asOf)
	return leave.Entitlement{
		LeaveType:    leaveType.Name,
		AnnualQuota:  annual,
		Accrued:      accrued,
		Used:         used,
		Balance:      accrued.Sub(used),
		TenureMonths: TenureMonths(emp.HireDate, asOf),
		PeriodStart:  period.Start.Time(),
		PeriodEnd:    period.End.Time(),
	}, nil
}
