package leave

import (
	"context"
	"time"
)

// LeaveTypeRepository - interface for leave_types table
type LeaveTypeRepository interface {
	GetByCompanyID(ctx context.Context, companyID string) ([]LeaveType, error)
}

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	// ListApprovedOverlapping returns approved requests of the employees that
	// share at least one day with the inclusive range.
	ListApprovedOverlapping(ctx context.Context, companyID string, employeeIDs []string, start, end time.Time) ([]Request, error)
}
