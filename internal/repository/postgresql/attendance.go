package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// ListByEmployeesAndRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployeesAndRange(ctx context.Context, companyID string, employeeIDs []string, start, end time.Time) ([]attendance.Record, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, employee_id, company_id, date, status,
			   COALESCE(scheduled_in, ''), COALESCE(scheduled_out, ''), actual_in, actual_out,
			   overtime_hours, is_holiday, holiday_type, remarks,
			   created_at, updated_at
		FROM attendances
		WHERE company_id = $1
		  AND employee_id::text = ANY($2)
		  AND date BETWEEN $3 AND $4
		ORDER BY employee_id, date
	`

	rows, err := q.Query(ctx, query, companyID, employeeIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		if err := rows.Scan(
			&rec.ID, &rec.EmployeeID, &rec.CompanyID, &rec.Date, &rec.Status,
			&rec.ScheduledIn, &rec.ScheduledOut, &rec.ActualIn, &rec.ActualOut,
			&rec.OvertimeHours, &rec.IsHoliday, &rec.HolidayType, &rec.Remarks,
			&rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance: %w", err)
	}

	return records, nil
}
