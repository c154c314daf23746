package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category of a cost ledger entry derived from a payroll run.
type Category string

const (
	CategoryNetPay         Category = "Net Pay"
	CategorySSS            Category = "SSS"
	CategoryPhilHealth     Category = "PhilHealth"
	CategoryPagIBIG        Category = "Pag-IBIG"
	CategoryWithholdingTax Category = "Withholding Tax"
)

// Categories lists every category a finalized run produces, in ledger order.
var Categories = []Category{
	CategoryNetPay,
	CategorySSS,
	CategoryPhilHealth,
	CategoryPagIBIG,
	CategoryWithholdingTax,
}

type Status string

const (
	StatusUnpaid Status = "unpaid"
	StatusPaid   Status = "paid"
)

// DueDays is the number of days after the cutoff end an entry falls due.
const DueDays = 7

// Entry - a cost ledger line
type Entry struct {
	ID         string
	CompanyID  string
	RunID      string
	Name       string
	Category   Category
	Amount     decimal.Decimal
	PaidAmount decimal.Decimal
	DueDate    time.Time
	Status     Status
	PaidAt     *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EntryName builds the "<Category> - <period>" name that identifies an entry.
func EntryName(category Category, periodLabel string) string {
	return string(category) + " - " + periodLabel
}

// EntryNames returns the names of every category for a period.
func EntryNames(periodLabel string) []string {
	names := make([]string, 0, len(Categories))
	for _, c := range Categories {
		names = append(names, EntryName(c, periodLabel))
	}
	return names
}
