package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// ========== SETTINGS ==========

func (r *payrollRepository) GetSettings(ctx context.Context, companyID string) (payroll.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, rates, created_at, updated_at
		FROM payroll_settings
		WHERE company_id = $1
	`

	var s payroll.Settings
	var ratesBytes []byte
	err := q.QueryRow(ctx, query, companyID).Scan(&s.ID, &s.CompanyID, &ratesBytes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Settings{}, payroll.ErrPayrollSettingsNotFound
		}
		return payroll.Settings{}, fmt.Errorf("failed to get payroll settings: %w", err)
	}
	if err := json.Unmarshal(ratesBytes, &s.Rates); err != nil {
		return payroll.Settings{}, fmt.Errorf("failed to decode payroll rates: %w", err)
	}

	return s, nil
}

func (r *payrollRepository) UpsertSettings(ctx context.Context, settings payroll.Settings) (payroll.Settings, error) {
	q := GetQuerier(ctx, r.db)

	ratesJSON, err := json.Marshal(settings.Rates)
	if err != nil {
		return payroll.Settings{}, fmt.Errorf("failed to encode payroll rates: %w", err)
	}

	query := `
		INSERT INTO payroll_settings (id, company_id, rates)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_id) DO UPDATE SET
			rates = EXCLUDED.rates,
			updated_at = NOW()
		RETURNING id, company_id, rates, created_at, updated_at
	`

	var s payroll.Settings
	var ratesBytes []byte
	err = q.QueryRow(ctx, query, settings.ID, settings.CompanyID, ratesJSON).Scan(
		&s.ID, &s.CompanyID, &ratesBytes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return payroll.Settings{}, fmt.Errorf("failed to upsert payroll settings: %w", err)
	}
	if err := json.Unmarshal(ratesBytes, &s.Rates); err != nil {
		return payroll.Settings{}, fmt.Errorf("failed to decode payroll rates: %w", err)
	}

	return s, nil
}

// ========== RUNS ==========

const runColumns = `
	id, company_id, cutoff_start, cutoff_end, status, deductions_enabled,
	employee_ids::text[], manual_deductions, manual_incentives, statutory_overrides,
	created_by, finalized_at, paid_at, created_at, updated_at
`

type runJSON struct {
	deductions, incentives, overrides []byte
}

func encodeRun(run payroll.Run) (runJSON, error) {
	var (
		out runJSON
		err error
	)
	if out.deductions, err = json.Marshal(nonNilMap(run.ManualDeductions)); err != nil {
		return runJSON{}, fmt.Errorf("failed to encode manual deductions: %w", err)
	}
	if out.incentives, err = json.Marshal(nonNilMap(run.ManualIncentives)); err != nil {
		return runJSON{}, fmt.Errorf("failed to encode manual incentives: %w", err)
	}
	overrides := run.StatutoryOverrides
	if overrides == nil {
		overrides = map[string]payroll.StatutoryOverride{}
	}
	if out.overrides, err = json.Marshal(overrides); err != nil {
		return runJSON{}, fmt.Errorf("failed to encode statutory overrides: %w", err)
	}
	return out, nil
}

func nonNilMap(m map[string][]payroll.LineItem) map[string][]payroll.LineItem {
	if m == nil {
		return map[string][]payroll.LineItem{}
	}
	return m
}

func scanRun(row pgx.Row) (payroll.Run, error) {
	var run payroll.Run
	var raw runJSON
	err := row.Scan(
		&run.ID, &run.CompanyID, &run.CutoffStart, &run.CutoffEnd, &run.Status, &run.DeductionsEnabled,
		&run.EmployeeIDs, &raw.deductions, &raw.incentives, &raw.overrides,
		&run.CreatedBy, &run.FinalizedAt, &run.PaidAt, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return payroll.Run{}, err
	}
	if err := json.Unmarshal(raw.deductions, &run.ManualDeductions); err != nil {
		return payroll.Run{}, fmt.Errorf("failed to decode manual deductions: %w", err)
	}
	if err := json.Unmarshal(raw.incentives, &run.ManualIncentives); err != nil {
		return payroll.Run{}, fmt.Errorf("failed to decode manual incentives: %w", err)
	}
	if err := json.Unmarshal(raw.overrides, &run.StatutoryOverrides); err != nil {
		return payroll.Run{}, fmt.Errorf("failed to decode statutory overrides: %w", err)
	}
	return run, nil
}

func (r *payrollRepository) CreateRun(ctx context.Context, run payroll.Run) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	raw, err := encodeRun(run)
	if err != nil {
		return payroll.Run{}, err
	}

	query := `
		INSERT INTO payroll_runs (
			id, company_id, cutoff_start, cutoff_end, status, deductions_enabled,
			employee_ids, manual_deductions, manual_incentives, statutory_overrides,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING ` + runColumns

	created, err := scanRun(q.QueryRow(ctx, query,
		run.ID, run.CompanyID, run.CutoffStart, run.CutoffEnd, run.Status, run.DeductionsEnabled,
		run.EmployeeIDs, raw.deductions, raw.incentives, raw.overrides,
		run.CreatedBy, run.CreatedAt,
	))
	if err != nil {
		return payroll.Run{}, fmt.Errorf("failed to create payroll run: %w", err)
	}

	return created, nil
}

func (r *payrollRepository) GetRunByID(ctx context.Context, id string, companyID string) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + runColumns + ` FROM payroll_runs WHERE id = $1 AND company_id = $2`

	run, err := scanRun(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Run{}, payroll.ErrRunNotFound
		}
		return payroll.Run{}, fmt.Errorf("failed to get payroll run: %w", err)
	}

	return run, nil
}

func (r *payrollRepository) GetRunForUpdate(ctx context.Context, id string, companyID string) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + runColumns + ` FROM payroll_runs WHERE id = $1 AND company_id = $2 FOR UPDATE`

	run, err := scanRun(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Run{}, payroll.ErrRunNotFound
		}
		return payroll.Run{}, fmt.Errorf("failed to lock payroll run: %w", err)
	}

	return run, nil
}

func (r *payrollRepository) ListRuns(ctx context.Context, companyID string, filter payroll.RunFilter) ([]payroll.Run, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := `FROM payroll_runs WHERE company_id = $1`
	args := []interface{}{companyID}
	argIdx := 2

	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	// Count query
	var totalCount int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll runs: %w", err)
	}

	filter.Normalize()
	offset := (filter.Page - 1) * filter.Limit

	selectQuery := fmt.Sprintf(`
		SELECT %s
		%s
		ORDER BY cutoff_start DESC, created_at DESC
		LIMIT $%d OFFSET $%d
	`, runColumns, baseQuery, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	defer rows.Close()

	var runs []payroll.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payroll runs: %w", err)
	}

	return runs, totalCount, nil
}

func (r *payrollRepository) ListDraftRuns(ctx context.Context) ([]payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + runColumns + ` FROM payroll_runs WHERE status = $1 ORDER BY created_at`

	rows, err := q.Query(ctx, query, payroll.RunStatusDraft)
	if err != nil {
		return nil, fmt.Errorf("failed to list draft runs: %w", err)
	}
	defer rows.Close()

	var runs []payroll.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draft runs: %w", err)
	}

	return runs, nil
}

func (r *payrollRepository) UpdateRun(ctx context.Context, run payroll.Run, expected payroll.RunStatus) error {
	q := GetQuerier(ctx, r.db)

	raw, err := encodeRun(run)
	if err != nil {
		return err
	}

	query := `
		UPDATE payroll_runs SET
			cutoff_start = $3, cutoff_end = $4, status = $5, deductions_enabled = $6,
			employee_ids = $7, manual_deductions = $8, manual_incentives = $9,
			statutory_overrides = $10, finalized_at = $11, paid_at = $12, updated_at = $13
		WHERE id = $1 AND company_id = $2 AND status = $14
	`

	tag, err := q.Exec(ctx, query,
		run.ID, run.CompanyID, run.CutoffStart, run.CutoffEnd, run.Status, run.DeductionsEnabled,
		run.EmployeeIDs, raw.deductions, raw.incentives,
		raw.overrides, run.FinalizedAt, run.PaidAt, run.UpdatedAt, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update payroll run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetRunByID(ctx, run.ID, run.CompanyID); err != nil {
			return err
		}
		return fmt.Errorf("%w: run %s is no longer %s", payroll.ErrRunStatusChanged, run.ID, expected)
	}

	return nil
}

// ========== PAYSLIPS ==========

const payslipColumns = `
	p.id, p.run_id, p.company_id, p.employee_id, p.period_label, p.period_start, p.period_end,
	p.basic_pay, p.gross_pay, p.non_taxable_allowance, p.deductions, p.incentives, p.breakdown,
	p.days_worked, p.absences, p.late_hours, p.undertime_hours, p.total_deductions, p.net_pay,
	p.deferred_statutory, p.pending_deductions, p.pending_carried_into, p.worked_at_least_one_day,
	p.employer_shares, p.created_at, p.updated_at,
	e.full_name AS employee_name, e.employee_code
`

const payslipFrom = `
	FROM payslips p
	LEFT JOIN employees e ON p.employee_id = e.id
`

type payslipJSON struct {
	deductions, incentives, breakdown, shares []byte
}

func encodePayslip(p payroll.Payslip) (payslipJSON, error) {
	var (
		out payslipJSON
		err error
	)
	deductions, incentives := p.Deductions, p.Incentives
	if deductions == nil {
		deductions = []payroll.LineItem{}
	}
	if incentives == nil {
		incentives = []payroll.LineItem{}
	}
	if out.deductions, err = json.Marshal(deductions); err != nil {
		return payslipJSON{}, fmt.Errorf("failed to encode deductions: %w", err)
	}
	if out.incentives, err = json.Marshal(incentives); err != nil {
		return payslipJSON{}, fmt.Errorf("failed to encode incentives: %w", err)
	}
	if out.breakdown, err = json.Marshal(p.Breakdown); err != nil {
		return payslipJSON{}, fmt.Errorf("failed to encode breakdown: %w", err)
	}
	if out.shares, err = json.Marshal(p.EmployerShares); err != nil {
		return payslipJSON{}, fmt.Errorf("failed to encode employer shares: %w", err)
	}
	return out, nil
}

func scanPayslip(row pgx.Row) (payroll.Payslip, error) {
	var p payroll.Payslip
	var raw payslipJSON
	err := row.Scan(
		&p.ID, &p.RunID, &p.CompanyID, &p.EmployeeID, &p.PeriodLabel, &p.PeriodStart, &p.PeriodEnd,
		&p.BasicPay, &p.GrossPay, &p.NonTaxableAllowance, &raw.deductions, &raw.incentives, &raw.breakdown,
		&p.DaysWorked, &p.Absences, &p.LateHours, &p.UndertimeHours, &p.TotalDeductions, &p.NetPay,
		&p.DeferredStatutory, &p.PendingDeductions, &p.PendingCarriedInto, &p.WorkedAtLeastOneDay,
		&raw.shares, &p.CreatedAt, &p.UpdatedAt,
		&p.EmployeeName, &p.EmployeeCode,
	)
	if err != nil {
		return payroll.Payslip{}, err
	}
	if err := json.Unmarshal(raw.deductions, &p.Deductions); err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to decode deductions: %w", err)
	}
	if err := json.Unmarshal(raw.incentives, &p.Incentives); err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to decode incentives: %w", err)
	}
	if err := json.Unmarshal(raw.breakdown, &p.Breakdown); err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to decode breakdown: %w", err)
	}
	if err := json.Unmarshal(raw.shares, &p.EmployerShares); err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to decode employer shares: %w", err)
	}
	return p, nil
}

func (r *payrollRepository) listPayslips(ctx context.Context, where string, args ...interface{}) ([]payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, "SELECT "+payslipColumns+payslipFrom+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	var payslips []payroll.Payslip
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		payslips = append(payslips, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payslips: %w", err)
	}

	return payslips, nil
}

func (r *payrollRepository) CreatePayslips(ctx context.Context, payslips []payroll.Payslip) error {
	if len(payslips) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payslips (
			id, run_id, company_id, employee_id, period_label, period_start, period_end,
			basic_pay, gross_pay, non_taxable_allowance, deductions, incentives, breakdown,
			days_worked, absences, late_hours, undertime_hours, total_deductions, net_pay,
			deferred_statutory, pending_deductions, pending_carried_into, worked_at_least_one_day,
			employer_shares, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		)
	`

	batch := &pgx.Batch{}
	for _, p := range payslips {
		raw, err := encodePayslip(p)
		if err != nil {
			return err
		}
		batch.Queue(query,
			p.ID, p.RunID, p.CompanyID, p.EmployeeID, p.PeriodLabel, p.PeriodStart, p.PeriodEnd,
			p.BasicPay, p.GrossPay, p.NonTaxableAllowance, raw.deductions, raw.incentives, raw.breakdown,
			p.DaysWorked, p.Absences, p.LateHours, p.UndertimeHours, p.TotalDeductions, p.NetPay,
			p.DeferredStatutory, p.PendingDeductions, p.PendingCarriedInto, p.WorkedAtLeastOneDay,
			raw.shares, p.CreatedAt, p.UpdatedAt,
		)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()
	for range payslips {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to create payslip: %w", err)
		}
	}

	return nil
}

func (r *payrollRepository) DeletePayslipsByRunID(ctx context.Context, runID string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `DELETE FROM payslips WHERE run_id = $1 AND company_id = $2`, runID, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete payslips: %w", err)
	}

	return nil
}

func (r *payrollRepository) ListPayslipsByRunID(ctx context.Context, runID string, companyID string) ([]payroll.Payslip, error) {
	return r.listPayslips(ctx, `
		WHERE p.run_id = $1 AND p.company_id = $2
		ORDER BY e.full_name, p.employee_id
	`, runID, companyID)
}

func (r *payrollRepository) GetPayslipByID(ctx context.Context, id string, companyID string) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := "SELECT " + payslipColumns + payslipFrom + " WHERE p.id = $1 AND p.company_id = $2"

	p, err := scanPayslip(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Payslip{}, payroll.ErrPayslipNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to get payslip: %w", err)
	}

	return p, nil
}

func (r *payrollRepository) UpdatePayslip(ctx context.Context, p payroll.Payslip) error {
	q := GetQuerier(ctx, r.db)

	raw, err := encodePayslip(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE payslips SET
			gross_pay = $3, deductions = $4, incentives = $5, total_deductions = $6,
			net_pay = $7, pending_deductions = $8, updated_at = $9
		WHERE id = $1 AND company_id = $2
	`

	tag, err := q.Exec(ctx, query,
		p.ID, p.CompanyID, p.GrossPay, raw.deductions, raw.incentives, p.TotalDeductions,
		p.NetPay, p.PendingDeductions, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update payslip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayslipNotFound
	}

	return nil
}

// ========== PENDING CARRY ==========

func (r *payrollRepository) ListPendingInMonth(ctx context.Context, companyID string, employeeIDs []string, monthStart, before time.Time) ([]payroll.Payslip, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	return r.listPayslips(ctx, `
		JOIN payroll_runs pr ON p.run_id = pr.id
		WHERE p.company_id = $1
		  AND p.employee_id::text = ANY($2)
		  AND p.pending_deductions > 0
		  AND pr.status <> 'cancelled'
		  AND pr.cutoff_end >= $3 AND pr.cutoff_end < $4
		ORDER BY p.period_end DESC, p.created_at DESC
	`, companyID, employeeIDs, monthStart, before)
}

func (r *payrollRepository) SetCarriedInto(ctx context.Context, companyID string, payslipIDs []string, runID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payslips SET pending_carried_into = $3, updated_at = NOW()
		WHERE company_id = $1 AND id::text = ANY($2)
	`
	if _, err := q.Exec(ctx, query, companyID, payslipIDs, runID); err != nil {
		return fmt.Errorf("failed to mark carried payslips: %w", err)
	}

	return nil
}

func (r *payrollRepository) ReleaseCarries(ctx context.Context, companyID string, runID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payslips SET pending_carried_into = NULL, updated_at = NOW()
		WHERE company_id = $1 AND pending_carried_into = $2
	`
	if _, err := q.Exec(ctx, query, companyID, runID); err != nil {
		return fmt.Errorf("failed to release carried payslips: %w", err)
	}

	return nil
}
