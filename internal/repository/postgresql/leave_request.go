package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

// ListApprovedOverlapping implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListApprovedOverlapping(ctx context.Context, companyID string, employeeIDs []string, start, end time.Time) ([]leave.Request, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT lr.id, lr.employee_id, e.company_id, lr.category, lt.name,
			   lr.start_date, lr.end_date, lr.total_days, lr.status, COALESCE(lr.reason, ''),
			   lr.created_at, lr.updated_at
		FROM leave_requests lr
		JOIN employees e ON lr.employee_id = e.id
		LEFT JOIN leave_types lt ON lr.leave_type_id = lt.id
		WHERE e.company_id = $1
		  AND lr.employee_id::text = ANY($2)
		  AND lr.status = $3
		  AND lr.start_date <= $5
		  AND lr.end_date >= $4
		ORDER BY lr.employee_id, lr.start_date
	`

	rows, err := q.Query(ctx, query, companyID, employeeIDs, leave.RequestStatusApproved, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		var req leave.Request
		if err := rows.Scan(
			&req.ID, &req.EmployeeID, &req.CompanyID, &req.Category, &req.LeaveTypeName,
			&req.StartDate, &req.EndDate, &req.WorkingDays, &req.Status, &req.Reason,
			&req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		if req.WorkingDays <= 0 {
			req.WorkingDays = req.CountWorkingDays()
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave requests: %w", err)
	}

	return requests, nil
}
