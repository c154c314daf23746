package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var (
	sssEmployeeRate = decimal.RequireFromString("0.045")
	sssEmployerRate = decimal.RequireFromString("0.091")

	sssFirstCeiling = decimal.NewFromInt(4250)
	sssFirstCredit  = decimal.NewFromInt(4000)
	sssBandWidth    = decimal.NewFromInt(500)
	sssTopMinimum   = decimal.NewFromInt(29750)
	sssTopCredit    = decimal.NewFromInt(30000)

	sssBrackets = buildSSSBrackets()
)

// SSSBracket maps a monthly salary range to its salary credit. Max is nil for
// the open-ended top bracket.
type SSSBracket struct {
	Min          decimal.Decimal
	Max          *decimal.Decimal
	SalaryCredit decimal.Decimal
}

func (b SSSBracket) contains(salary decimal.Decimal) bool {
	if salary.LessThan(b.Min) {
		return false
	}
	return b.Max == nil || salary.LessThan(*b.Max)
}

// buildSSSBrackets lays out the table: below 4,250 credits 4,000, then one
// bracket per 500 up to 29,750, above which the credit stays at 30,000.
func buildSSSBrackets() []SSSBracket {
	first := sssFirstCeiling
	brackets := []SSSBracket{{Min: decimal.Zero, Max: &first, SalaryCredit: sssFirstCredit}}

	lower := sssFirstCeiling
	credit := sssFirstCredit.Add(sssBandWidth)
	for lower.LessThan(sssTopMinimum) {
		upper := lower.Add(sssBandWidth)
		brackets = append(brackets, SSSBracket{Min: lower, Max: &upper, SalaryCredit: credit})
		lower = upper
		credit = credit.Add(sssBandWidth)
	}
	return append(brackets, SSSBracket{Min: sssTopMinimum, SalaryCredit: sssTopCredit})
}

// SSSBrackets returns a copy of the bracket table.
func SSSBrackets() []SSSBracket {
	out := make([]SSSBracket, len(sssBrackets))
	copy(out, sssBrackets)
	return out
}

type SSSContribution struct {
	EmployeeShare decimal.Decimal `json:"employee_share"`
	EmployerShare decimal.Decimal `json:"employer_share"`
	Total         decimal.Decimal `json:"total"`
	SalaryCredit  decimal.Decimal `json:"salary_credit"`
}

// LookupSSS finds the bracket of a monthly basic salary.
func LookupSSS(monthlyBasic decimal.Decimal) SSSContribution {
	if monthlyBasic.IsNegative() {
		monthlyBasic = decimal.Zero
	}
	bracket := sssBrackets[len(sssBrackets)-1]
	for _, b := range sssBrackets {
		if b.contains(monthlyBasic) {
			bracket = b
			break
		}
	}
	employee := round(bracket.SalaryCredit.Mul(sssEmployeeRate))
	employer := round(bracket.SalaryCredit.Mul(sssEmployerRate))
	return SSSContribution{
		EmployeeShare: employee,
		EmployerShare: employer,
		Total:         employee.Add(employer),
		SalaryCredit:  bracket.SalaryCredit,
	}
}

type Contribution struct {
	Employee decimal.Decimal `json:"employee"`
	Employer decimal.Decimal `json:"employer"`
}

// StatutoryContributions are full monthly figures.
type StatutoryContributions struct {
	SSS            SSSContribution `json:"sss"`
	PhilHealth     Contribution    `json:"philhealth"`
	PagIBIG        Contribution    `json:"pagibig"`
	WithholdingTax decimal.Decimal `json:"withholding_tax"`
}

// ComputeStatutory derives every statutory contribution from the monthly
// basic salary.
func ComputeStatutory(monthlyBasic decimal.Decimal, rates payroll.PayrollRates) StatutoryContributions {
	tax := decimal.Zero
	if monthlyBasic.GreaterThanOrEqual(rates.TaxThreshold) {
		tax = round(monthlyBasic.Mul(rates.TaxRate))
	}
	return StatutoryContributions{
		SSS:            LookupSSS(monthlyBasic),
		PhilHealth:     Contribution{Employee: rates.PhilHealthEmployee, Employer: rates.PhilHealthEmployer},
		PagIBIG:        Contribution{Employee: rates.PagIBIGEmployee, Employer: rates.PagIBIGEmployer},
		WithholdingTax: tax,
	}
}
