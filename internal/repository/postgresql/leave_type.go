package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type leaveTypeRepositoryImpl struct {
	db *database.DB
}

func NewLeaveTypeRepository(db *database.DB) leave.LeaveTypeRepository {
	return &leaveTypeRepositoryImpl{db: db}
}

// GetByCompanyID implements leave.LeaveTypeRepository.
func (l *leaveTypeRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) ([]leave.LeaveType, error) {
	q := GetQuerier(ctx, l.db)

	query := `
		SELECT id, company_id, name, code, is_paid, accrual_method, quota_rules,
			   created_at, updated_at
		FROM leave_types
		WHERE company_id = $1 AND is_active = true
		ORDER BY name
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave types: %w", err)
	}
	defer rows.Close()

	var leaveTypes []leave.LeaveType
	for rows.Next() {
		var lt leave.LeaveType
		var quotaRulesJSON []byte
		if err := rows.Scan(
			&lt.ID, &lt.CompanyID, &lt.Name, &lt.Code, &lt.IsPaid, &lt.AccrualMethod, &quotaRulesJSON,
			&lt.CreatedAt, &lt.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leave type: %w", err)
		}
		if quotaRulesJSON != nil {
			if err := json.Unmarshal(quotaRulesJSON, &lt.QuotaRules); err != nil {
				return nil, fmt.Errorf("failed to decode quota rules of %q: %w", lt.Name, err)
			}
		}
		leaveTypes = append(leaveTypes, lt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave types: %w", err)
	}

	return leaveTypes, nil
}
