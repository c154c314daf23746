package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	id, company_id, employee_code, full_name, hire_date, employment_status,
	weekly_schedule, schedule_overrides, basic_salary, allowance, salary_type,
	regular_holiday_rate, special_holiday_rate, leave_credits, deductions, incentives,
	created_at, updated_at
`

// JSONB shapes of the payroll columns on employees.
type overrideRow struct {
	Date    string `json:"date"`
	InTime  string `json:"in_time"`
	OutTime string `json:"out_time"`
}

type leaveCreditRow struct {
	LeaveType string          `json:"leave_type"`
	Total     decimal.Decimal `json:"total"`
	Used      decimal.Decimal `json:"used"`
	Balance   decimal.Decimal `json:"balance"`
}

type adjustmentRow struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Frequency  string          `json:"frequency"`
	ActiveFrom *string         `json:"active_from,omitempty"`
	ActiveTo   *string         `json:"active_to,omitempty"`
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func decodeAdjustments(raw []byte) ([]employee.Adjustment, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var rows []adjustmentRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	adjustments := make([]employee.Adjustment, 0, len(rows))
	for _, row := range rows {
		from, err := parseOptionalDate(row.ActiveFrom)
		if err != nil {
			return nil, fmt.Errorf("adjustment %q active_from: %w", row.Name, err)
		}
		to, err := parseOptionalDate(row.ActiveTo)
		if err != nil {
			return nil, fmt.Errorf("adjustment %q active_to: %w", row.Name, err)
		}
		adjustments = append(adjustments, employee.Adjustment{
			ID:         row.ID,
			Name:       row.Name,
			Amount:     row.Amount,
			Frequency:  employee.AdjustmentFrequency(row.Frequency),
			ActiveFrom: from,
			ActiveTo:   to,
		})
	}
	return adjustments, nil
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	var scheduleBytes, overrideBytes, creditBytes, deductionBytes, incentiveBytes []byte
	err := row.Scan(
		&emp.ID, &emp.CompanyID, &emp.EmployeeCode, &emp.FullName, &emp.HireDate, &emp.EmploymentStatus,
		&scheduleBytes, &overrideBytes, &emp.Compensation.BasicSalary, &emp.Compensation.Allowance,
		&emp.Compensation.SalaryType, &emp.Compensation.RegularHolidayRate, &emp.Compensation.SpecialHolidayRate,
		&creditBytes, &deductionBytes, &incentiveBytes,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return employee.Employee{}, err
	}

	if len(scheduleBytes) > 0 {
		if err := json.Unmarshal(scheduleBytes, &emp.WeeklySchedule); err != nil {
			return employee.Employee{}, fmt.Errorf("%w: %v", employee.ErrInvalidSchedule, err)
		}
	}

	if len(overrideBytes) > 0 {
		var overrides []overrideRow
		if err := json.Unmarshal(overrideBytes, &overrides); err != nil {
			return employee.Employee{}, fmt.Errorf("failed to decode schedule overrides: %w", err)
		}
		for _, o := range overrides {
			date, err := time.Parse("2006-01-02", o.Date)
			if err != nil {
				return employee.Employee{}, fmt.Errorf("failed to decode schedule override date: %w", err)
			}
			emp.Overrides = append(emp.Overrides, employee.ScheduleOverride{Date: date, InTime: o.InTime, OutTime: o.OutTime})
		}
	}

	if len(creditBytes) > 0 {
		var credits []leaveCreditRow
		if err := json.Unmarshal(creditBytes, &credits); err != nil {
			return employee.Employee{}, fmt.Errorf("failed to decode leave credits: %w", err)
		}
		for _, c := range credits {
			emp.LeaveCredits = append(emp.LeaveCredits, employee.LeaveCredit(c))
		}
	}

	if emp.Deductions, err = decodeAdjustments(deductionBytes); err != nil {
		return employee.Employee{}, fmt.Errorf("failed to decode deductions: %w", err)
	}
	if emp.Incentives, err = decodeAdjustments(incentiveBytes); err != nil {
		return employee.Employee{}, fmt.Errorf("failed to decode incentives: %w", err)
	}

	return emp, nil
}

func (e *employeeRepositoryImpl) list(ctx context.Context, where string, args ...interface{}) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, "SELECT "+employeeColumns+" FROM employees "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	return employees, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := "SELECT " + employeeColumns + " FROM employees WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL"

	emp, err := scanEmployee(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee %s: %w", id, err)
	}

	return emp, nil
}

// GetByIDs implements employee.EmployeeRepository. Unknown ids are omitted.
func (e *employeeRepositoryImpl) GetByIDs(ctx context.Context, companyID string, ids []string) ([]employee.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return e.list(ctx, `
		WHERE company_id = $1 AND id::text = ANY($2) AND deleted_at IS NULL
		ORDER BY full_name
	`, companyID, ids)
}

// GetActiveByCompanyID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	return e.list(ctx, `
		WHERE company_id = $1 AND employment_status = $2 AND deleted_at IS NULL
		ORDER BY full_name
	`, companyID, employee.EmploymentStatusActive)
}
