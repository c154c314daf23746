package attendance

import (
	"context"
	"time"
)

// AttendanceRepository exposes attendance records to payroll.
// All methods include companyID parameter to prevent cross-company data access attacks.
type AttendanceRepository interface {
	// ListByEmployeesAndRange returns every record of the given employees whose
	// date falls in the inclusive range.
	ListByEmployeesAndRange(ctx context.Context, companyID string, employeeIDs []string, start, end time.Time) ([]Record, error)
}
