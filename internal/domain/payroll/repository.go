package payroll

import (
	"context"
	"time"
)

// PayrollRepository defines data access methods for payroll.
// All methods include companyID parameter to prevent cross-company data access attacks.
type PayrollRepository interface {
	// Settings
	GetSettings(ctx context.Context, companyID string) (Settings, error)
	UpsertSettings(ctx context.Context, settings Settings) (Settings, error)

	// Runs
	CreateRun(ctx context.Context, run Run) (Run, error)
	GetRunByID(ctx context.Context, id string, companyID string) (Run, error)
	ListRuns(ctx context.Context, companyID string, filter RunFilter) ([]Run, int64, error)
	// GetRunForUpdate reads a run and locks its row until the surrounding
	// transaction ends.
	GetRunForUpdate(ctx context.Context, id string, companyID string) (Run, error)
	// UpdateRun writes run only while the stored status is still expected,
	// otherwise it returns ErrRunStatusChanged.
	UpdateRun(ctx context.Context, run Run, expected RunStatus) error
	// ListDraftRuns returns the draft runs of every company, oldest first.
	ListDraftRuns(ctx context.Context) ([]Run, error)

	// Payslips
	CreatePayslips(ctx context.Context, payslips []Payslip) error
	DeletePayslipsByRunID(ctx context.Context, runID string, companyID string) error
	ListPayslipsByRunID(ctx context.Context, runID string, companyID string) ([]Payslip, error)
	GetPayslipByID(ctx context.Context, id string, companyID string) (Payslip, error)
	UpdatePayslip(ctx context.Context, payslip Payslip) error

	// Pending carry
	// ListPendingInMonth returns payslips with pending deductions that belong to
	// non-cancelled runs whose cutoff ends in [monthStart, before).
	ListPendingInMonth(ctx context.Context, companyID string, employeeIDs []string, monthStart, before time.Time) ([]Payslip, error)
	SetCarriedInto(ctx context.Context, companyID string, payslipIDs []string, runID string) error
	ReleaseCarries(ctx context.Context, companyID string, runID string) error
}
