package payroll

import (
	"bytes"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const currency = "PHP"

// RenderPayslip lays out one payslip as a single A4 page.
func RenderPayslip(p payroll.Payslip) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	name, code := p.EmployeeID, ""
	if p.EmployeeName != nil && *p.EmployeeName != "" {
		name = *p.EmployeeName
	}
	if p.EmployeeCode != nil {
		code = *p.EmployeeCode
	}
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s %s", name, code))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s", p.PeriodLabel))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Days worked: %s  Absences: %d", p.DaysWorked.String(), p.Absences))
	pdf.Ln(10)

	row := func(label string, amount decimal.Decimal) {
		pdf.CellFormat(120, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, amount.StringFixed(2)+" "+currency, "", 1, "R", false, 0, "")
	}
	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
	}

	section("Earnings")
	row("Basic pay", p.BasicPay)
	for _, item := range []struct {
		label  string
		amount decimal.Decimal
	}{
		{"Holiday pay", p.Breakdown.Holiday},
		{"Rest day premium", p.Breakdown.RestDay},
		{"Overtime", p.Breakdown.Overtime},
		{"Night differential", p.Breakdown.NightDiff},
	} {
		if !item.amount.IsZero() {
			row(item.label, item.amount)
		}
	}
	for _, inc := range p.Incentives {
		row(inc.Name, inc.Amount)
	}
	row("Gross pay", p.GrossPay)
	row("Non-taxable allowance", p.NonTaxableAllowance)
	pdf.Ln(4)

	section("Deductions")
	for _, d := range p.Deductions {
		label := d.Name
		if d.Pending.IsPositive() {
			label = fmt.Sprintf("%s (pending %s)", d.Name, d.Pending.StringFixed(2))
		}
		row(label, d.Applied())
	}
	row("Total deductions", p.TotalDeductions)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	row("Net pay", p.NetPay)
	if p.PendingDeductions.IsPositive() {
		pdf.SetFont("Helvetica", "", 10)
		row("Pending deductions", p.PendingDeductions)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render payslip pdf: %w", err)
	}
	return buf.Bytes(), nil
}
