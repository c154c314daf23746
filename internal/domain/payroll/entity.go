package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

// RunStatus enum
type RunStatus string

const (
	RunStatusDraft     RunStatus = "draft"
	RunStatusFinalized RunStatus = "finalized"
	RunStatusPaid      RunStatus = "paid"
	RunStatusArchived  RunStatus = "archived"
	RunStatusCancelled RunStatus = "cancelled"
)

func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusDraft, RunStatusFinalized, RunStatusPaid, RunStatusArchived, RunStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the run lifecycle allows moving from s to next.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	if next == RunStatusCancelled {
		return s != RunStatusArchived && s != RunStatusCancelled
	}
	switch s {
	case RunStatusDraft:
		return next == RunStatusFinalized
	case RunStatusFinalized:
		return next == RunStatusDraft || next == RunStatusPaid || next == RunStatusArchived
	case RunStatusPaid:
		return next == RunStatusArchived
	}
	return false
}

// Category of a payslip line item
type Category string

const (
	CategoryAttendance Category = "attendance"
	CategoryGovernment Category = "government"
	CategoryCustom     Category = "custom"
)

// Line item names produced by the engine.
const (
	LineAbsences          = "Absences"
	LineLate              = "Late"
	LineUndertime         = "Undertime"
	LineSSS               = "SSS"
	LinePhilHealth        = "PhilHealth"
	LinePagIBIG           = "Pag-IBIG"
	LineWithholdingTax    = "Withholding Tax"
	LinePendingDeductions = "Pending Deductions"
)

// LineItem is one itemized deduction or incentive. For deductions, Pending is
// the part of Amount deferred because the payslip could not absorb it.
type LineItem struct {
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Category Category        `json:"category"`
	Pending  decimal.Decimal `json:"pending,omitempty"`
}

// Applied is the part of the line actually taken from the payslip.
func (l LineItem) Applied() decimal.Decimal {
	return l.Amount.Sub(l.Pending)
}

// StatutoryOverride replaces computed per-cutoff statutory amounts for one employee.
type StatutoryOverride struct {
	SSS            *decimal.Decimal `json:"sss,omitempty"`
	PhilHealth     *decimal.Decimal `json:"philhealth,omitempty"`
	PagIBIG        *decimal.Decimal `json:"pagibig,omitempty"`
	WithholdingTax *decimal.Decimal `json:"withholding_tax,omitempty"`
}

// Run - a payroll run over one cutoff
type Run struct {
	ID                 string
	CompanyID          string
	CutoffStart        time.Time
	CutoffEnd          time.Time
	Status             RunStatus
	DeductionsEnabled  bool
	EmployeeIDs        []string
	ManualDeductions   map[string][]LineItem
	ManualIncentives   map[string][]LineItem
	StatutoryOverrides map[string]StatutoryOverride
	CreatedBy          *string
	FinalizedAt        *time.Time
	PaidAt             *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (r Run) Cutoff() calendar.Range {
	return calendar.NewRange(r.CutoffStart, r.CutoffEnd)
}

// PeriodLabel names the cutoff on payslips and ledger entries.
func (r Run) PeriodLabel() string {
	return r.Cutoff().Label()
}

// PayBreakdown holds premium subtotals. Overtime is the sum of RegularOvertime
// and ExcessOvertime, which are tracked separately for reporting only.
type PayBreakdown struct {
	Holiday             decimal.Decimal `json:"holiday"`
	RestDay             decimal.Decimal `json:"rest_day"`
	NightDiff           decimal.Decimal `json:"night_diff"`
	Overtime            decimal.Decimal `json:"overtime"`
	RegularOvertime     decimal.Decimal `json:"regular_overtime"`
	ExcessOvertime      decimal.Decimal `json:"excess_overtime"`
	OvertimeHours       decimal.Decimal `json:"overtime_hours"`
	ExcessOvertimeHours decimal.Decimal `json:"excess_overtime_hours"`
	NightDiffHours      decimal.Decimal `json:"night_diff_hours"`
}

// Total sums the premium amounts.
func (b PayBreakdown) Total() decimal.Decimal {
	return b.Holiday.Add(b.RestDay).Add(b.NightDiff).Add(b.Overtime)
}

// EmployerShares - employer side of the statutory contributions
type EmployerShares struct {
	SSS        decimal.Decimal `json:"sss"`
	PhilHealth decimal.Decimal `json:"philhealth"`
	PagIBIG    decimal.Decimal `json:"pagibig"`
}

// Payslip - computed pay of one employee in one run
type Payslip struct {
	ID                  string
	RunID               string
	CompanyID           string
	EmployeeID          string
	PeriodLabel         string
	PeriodStart         time.Time
	PeriodEnd           time.Time
	BasicPay            decimal.Decimal
	GrossPay            decimal.Decimal
	NonTaxableAllowance decimal.Decimal
	Deductions          []LineItem
	Incentives          []LineItem
	Breakdown           PayBreakdown
	DaysWorked          decimal.Decimal
	Absences            int
	LateHours           decimal.Decimal
	UndertimeHours      decimal.Decimal
	TotalDeductions     decimal.Decimal
	NetPay              decimal.Decimal
	// DeferredStatutory is statutory withheld from a payslip without a worked day.
	DeferredStatutory   decimal.Decimal
	PendingDeductions   decimal.Decimal
	PendingCarriedInto  *string
	WorkedAtLeastOneDay bool
	EmployerShares      EmployerShares
	CreatedAt           time.Time
	UpdatedAt           time.Time

	// Joined fields
	EmployeeName *string
	EmployeeCode *string
}

// Payable is the amount deductions are capped against.
func (p Payslip) Payable() decimal.Decimal {
	return p.GrossPay.Add(p.NonTaxableAllowance)
}

// AppliedAmount sums the applied part of the named government lines.
func (p Payslip) AppliedAmount(name string) decimal.Decimal {
	total := decimal.Zero
	for _, d := range p.Deductions {
		if d.Name == name {
			total = total.Add(d.Applied())
		}
	}
	return total
}

// Settings - stored payroll rate configuration of a company
type Settings struct {
	ID        string
	CompanyID string
	Rates     PayrollRates
	CreatedAt time.Time
	UpdatedAt time.Time
}
