package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

// AggregateInput is everything merged into one payslip's deductions.
type AggregateInput struct {
	Result            payroll.PayComputationResult
	Employee          employee.Employee
	Rates             payroll.PayrollRates
	Cutoff            calendar.Range
	AsOf              time.Time
	DeductionsEnabled bool
	ManualDeductions  []payroll.LineItem
	ManualIncentives  []payroll.LineItem
	Override          *payroll.StatutoryOverride
	// CarriedPending is an unresolved pending amount from an earlier cutoff
	// of the same month.
	CarriedPending decimal.Decimal
}

// DeductionSummary is the capped outcome for one payslip.
type DeductionSummary struct {
	Incentives        []payroll.LineItem
	GrossPay          decimal.Decimal
	Allowance         decimal.Decimal
	Deductions        []payroll.LineItem
	TotalDeductions   decimal.Decimal
	DeferredStatutory decimal.Decimal
	PendingDeductions decimal.Decimal
	NetPay            decimal.Decimal
	EmployerShares    payroll.EmployerShares
	StatutoryApplied  bool
	CarryClaimed      bool
}

// Payable is gross pay plus the non-taxable allowance.
func (s DeductionSummary) Payable() decimal.Decimal {
	return s.GrossPay.Add(s.Allowance)
}

// customLines turns the active adjustments of an employee into line items.
func customLines(adjustments []employee.Adjustment, cutoff calendar.Range, asOf time.Time) []payroll.LineItem {
	var lines []payroll.LineItem
	for _, a := range adjustments {
		if !a.AppliesTo(cutoff, asOf) || a.Amount.IsNegative() {
			continue
		}
		lines = append(lines, payroll.LineItem{Name: a.Name, Amount: round(a.Amount), Category: payroll.CategoryCustom})
	}
	return lines
}

// statutoryLines splits the monthly contributions for the cutoff and applies
// any per-employee override. Zero amounts produce no line.
func statutoryLines(monthlyBasis decimal.Decimal, rates payroll.PayrollRates, cutoff calendar.Range, override *payroll.StatutoryOverride) ([]payroll.LineItem, payroll.EmployerShares) {
	factor := cutoffFactor(cutoff)
	contrib := ComputeStatutory(monthlyBasis, rates)

	pick := func(computed decimal.Decimal, o *decimal.Decimal) decimal.Decimal {
		if o != nil {
			return round(*o)
		}
		return round(computed.Mul(factor))
	}
	if override == nil {
		override = &payroll.StatutoryOverride{}
	}

	amounts := []struct {
		name   string
		amount decimal.Decimal
	}{
		{payroll.LineSSS, pick(contrib.SSS.EmployeeShare, override.SSS)},
		{payroll.LinePhilHealth, pick(contrib.PhilHealth.Employee, override.PhilHealth)},
		{payroll.LinePagIBIG, pick(contrib.PagIBIG.Employee, override.PagIBIG)},
		{payroll.LineWithholdingTax, pick(contrib.WithholdingTax, override.WithholdingTax)},
	}
	var lines []payroll.LineItem
	for _, a := range amounts {
		if a.amount.IsPositive() {
			lines = append(lines, payroll.LineItem{Name: a.name, Amount: a.amount, Category: payroll.CategoryGovernment})
		}
	}

	shares := payroll.EmployerShares{
		SSS:        round(contrib.SSS.EmployerShare.Mul(factor)),
		PhilHealth: round(contrib.PhilHealth.Employer.Mul(factor)),
		PagIBIG:    round(contrib.PagIBIG.Employer.Mul(factor)),
	}
	return lines, shares
}

// CapDeductions applies lines in order against payable. The line that
// overflows is applied partially and every later line is deferred in full.
// When payable is zero or less every line is deferred.
func CapDeductions(lines []payroll.LineItem, payable decimal.Decimal) (capped []payroll.LineItem, applied, pending decimal.Decimal) {
	remaining := payable
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	applied, pending = decimal.Zero, decimal.Zero
	capped = make([]payroll.LineItem, 0, len(lines))
	for _, line := range lines {
		line.Pending = decimal.Zero
		switch {
		case remaining.GreaterThanOrEqual(line.Amount):
			remaining = remaining.Sub(line.Amount)
			applied = applied.Add(line.Amount)
		default:
			line.Pending = line.Amount.Sub(remaining)
			applied = applied.Add(remaining)
			pending = pending.Add(line.Pending)
			remaining = decimal.Zero
		}
		capped = append(capped, line)
	}
	return capped, applied, pending
}

// AggregateDeductions merges attendance, statutory and custom deductions with
// incentives and enforces that deductions never exceed the payable amount.
func AggregateDeductions(in AggregateInput) DeductionSummary {
	res := in.Result

	incentives := customLines(in.Employee.Incentives, in.Cutoff, in.AsOf)
	incentives = append(incentives, in.ManualIncentives...)
	gross := res.GrossPay
	for _, inc := range incentives {
		gross = gross.Add(inc.Amount)
	}

	summary := DeductionSummary{
		Incentives:        incentives,
		GrossPay:          gross,
		Allowance:         res.NonTaxableAllowance,
		DeferredStatutory: decimal.Zero,
	}
	payable := summary.Payable()

	var lines []payroll.LineItem
	lines = append(lines, res.AttendanceDeductions...)

	if in.DeductionsEnabled {
		statutory, shares := statutoryLines(res.MonthlyBasis, in.Rates, in.Cutoff, in.Override)
		if res.WorkedAtLeastOneDay {
			lines = append(lines, statutory...)
			summary.StatutoryApplied = true
			summary.EmployerShares = shares
			if in.CarriedPending.IsPositive() && payable.IsPositive() {
				lines = append(lines, payroll.LineItem{
					Name:     payroll.LinePendingDeductions,
					Amount:   round(in.CarriedPending),
					Category: payroll.CategoryGovernment,
				})
				summary.CarryClaimed = true
			}
		} else {
			for _, l := range statutory {
				summary.DeferredStatutory = summary.DeferredStatutory.Add(l.Amount)
			}
		}
	}

	lines = append(lines, customLines(in.Employee.Deductions, in.Cutoff, in.AsOf)...)
	lines = append(lines, in.ManualDeductions...)

	capped, applied, pending := CapDeductions(lines, payable)
	summary.Deductions = capped
	summary.TotalDeductions = applied
	summary.PendingDeductions = pending.Add(summary.DeferredStatutory)
	summary.NetPay = decimal.Max(payable.Sub(applied), decimal.Zero)
	return summary
}

// Recap re-applies capping to a payslip after its lines changed.
func Recap(p *payroll.Payslip) {
	capped, applied, pending := CapDeductions(p.Deductions, p.Payable())
	p.Deductions = capped
	p.TotalDeductions = applied
	p.PendingDeductions = pending.Add(p.DeferredStatutory)
	p.NetPay = decimal.Max(p.Payable().Sub(applied), decimal.Zero)
}
