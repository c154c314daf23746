package employee

import "context"

// EmployeeRepository is a read-only view of the employee directory.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	GetByIDs(ctx context.Context, companyID string, ids []string) ([]Employee, error)
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
}
