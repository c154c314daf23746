package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/ledger"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/sse"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultWorkers = 8

type PayrollServiceImpl struct {
	tx               database.Transactor
	payrollRepo      payroll.PayrollRepository
	ledgerRepo       ledger.LedgerRepository
	employeeRepo     employee.EmployeeRepository
	attendanceRepo   attendance.AttendanceRepository
	holidayRepo      holiday.HolidayRepository
	leaveTypeRepo    leave.LeaveTypeRepository
	leaveRequestRepo leave.LeaveRequestRepository
	logger           *zap.Logger
	workers          int
	defaults         payroll.PayrollRates
	events           EventPublisher
	now              func() time.Time
}

// EventPublisher receives run lifecycle events keyed by company ID.
type EventPublisher interface {
	Publish(topic string, event sse.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, sse.Event) {}

type Option func(*PayrollServiceImpl)

// WithWorkers bounds how many payslips are computed concurrently.
func WithWorkers(n int) Option {
	return func(s *PayrollServiceImpl) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithDefaultRates replaces the rates used by companies without settings.
func WithDefaultRates(rates payroll.PayrollRates) Option {
	return func(s *PayrollServiceImpl) { s.defaults = rates }
}

// WithEventPublisher streams run lifecycle events to p.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *PayrollServiceImpl) {
		if p != nil {
			s.events = p
		}
	}
}

// WithClock replaces time.Now, used for run timestamps and adjustment windows.
func WithClock(now func() time.Time) Option {
	return func(s *PayrollServiceImpl) { s.now = now }
}

func NewPayrollService(
	tx database.Transactor,
	payrollRepo payroll.PayrollRepository,
	ledgerRepo ledger.LedgerRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	holidayRepo holiday.HolidayRepository,
	leaveTypeRepo leave.LeaveTypeRepository,
	leaveRequestRepo leave.LeaveRequestRepository,
	logger *zap.Logger,
	opts ...Option,
) payroll.PayrollService {
	s := &PayrollServiceImpl{
		tx:               tx,
		payrollRepo:      payrollRepo,
		ledgerRepo:       ledgerRepo,
		employeeRepo:     employeeRepo,
		attendanceRepo:   attendanceRepo,
		holidayRepo:      holidayRepo,
		leaveTypeRepo:    leaveTypeRepo,
		leaveRequestRepo: leaveRequestRepo,
		logger:           logger,
		workers:          defaultWorkers,
		defaults:         payroll.DefaultRates(),
		events:           nopPublisher{},
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Helper to get company_id and user_id from JWT context
func getClaimsFromContext(ctx context.Context) (companyID, userID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", fmt.Errorf("company_id claim is missing or invalid")
	}

	userID, _ = claims["user_id"].(string)

	return companyID, userID, nil
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ========== RATES ==========

// resolveRates returns the stored company rates or the defaults.
func (s *PayrollServiceImpl) resolveRates(ctx context.Context, companyID string) (payroll.PayrollRates, bool, error) {
	settings, err := s.payrollRepo.GetSettings(ctx, companyID)
	if err != nil {
		if errors.Is(err, payroll.ErrPayrollSettingsNotFound) {
			return s.defaults, true, nil
		}
		return payroll.PayrollRates{}, false, err
	}
	return settings.Rates, false, nil
}

func (s *PayrollServiceImpl) GetRates(ctx context.Context) (payroll.RatesResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RatesResponse{}, err
	}

	rates, isDefault, err := s.resolveRates(ctx, companyID)
	if err != nil {
		return payroll.RatesResponse{}, err
	}
	return payroll.RatesResponse{CompanyID: companyID, IsDefault: isDefault, PayrollRates: rates}, nil
}

func (s *PayrollServiceImpl) UpdateRates(ctx context.Context, req payroll.UpdateRatesRequest) (payroll.RatesResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RatesResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RatesResponse{}, err
	}

	current, _, err := s.resolveRates(ctx, companyID)
	if err != nil {
		return payroll.RatesResponse{}, err
	}

	saved, err := s.payrollRepo.UpsertSettings(ctx, payroll.Settings{
		ID:        newID(),
		CompanyID: companyID,
		Rates:     req.Apply(current),
	})
	if err != nil {
		return payroll.RatesResponse{}, fmt.Errorf("failed to save payroll rates: %w", err)
	}

	s.logger.Info("payroll rates updated", zap.String("company_id", companyID))
	return payroll.RatesResponse{CompanyID: companyID, IsDefault: false, PayrollRates: saved.Rates}, nil
}

// ========== RUNS ==========

func (s *PayrollServiceImpl) CreateRun(ctx context.Context, req payroll.CreateRunRequest) (payroll.RunResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RunResponse{}, err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	cutoff, err := payroll.ParseCutoff(req.CutoffStart, req.CutoffEnd)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	employees, err := s.loadEmployees(ctx, companyID, req.EmployeeIDs)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	now := s.now()
	run := payroll.Run{
		ID:                 newID(),
		CompanyID:          companyID,
		CutoffStart:        cutoff.Start.Time(),
		CutoffEnd:          cutoff.End.Time(),
		Status:             payroll.RunStatusDraft,
		DeductionsEnabled:  true,
		EmployeeIDs:        employeeIDs(employees),
		ManualDeductions:   payroll.ToLineItemMap(req.ManualDeductions),
		ManualIncentives:   payroll.ToLineItemMap(req.ManualIncentives),
		StatutoryOverrides: req.StatutoryOverrides,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.DeductionsEnabled != nil {
		run.DeductionsEnabled = *req.DeductionsEnabled
	}
	if userID != "" {
		run.CreatedBy = &userID
	}

	gen, err := s.generate(ctx, run, employees)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		created, err := s.payrollRepo.CreateRun(txCtx, run)
		if err != nil {
			return fmt.Errorf("failed to create payroll run: %w", err)
		}
		run = created
		return s.persistPayslips(txCtx, run, gen)
	})
	if err != nil {
		return payroll.RunResponse{}, err
	}

	s.logger.Info("payroll run created",
		zap.String("run_id", run.ID),
		zap.String("company_id", companyID),
		zap.String("period", run.PeriodLabel()),
		zap.Int("payslips", len(gen.payslips)),
	)
	s.publish(payroll.RunEventCreated, run, gen.payslips)
	return payroll.NewRunResponse(run, gen.payslips, true), nil
}

func (s *PayrollServiceImpl) publish(kind string, run payroll.Run, payslips []payroll.Payslip) {
	s.events.Publish(run.CompanyID, sse.Event{
		Event: kind,
		Data:  payroll.NewRunEvent(run, payslips),
	})
}

// getDraftRun loads a run and requires it to be a draft.
func (s *PayrollServiceImpl) getDraftRun(ctx context.Context, id, companyID string) (payroll.Run, error) {
	run, err := s.payrollRepo.GetRunByID(ctx, id, companyID)
	if err != nil {
		return payroll.Run{}, err
	}
	if run.Status != payroll.RunStatusDraft {
		return payroll.Run{}, fmt.Errorf("%w: run %s is %s", payroll.ErrRunNotDraft, run.ID, run.Status)
	}
	return run, nil
}

func (s *PayrollServiceImpl) UpdateRun(ctx context.Context, req payroll.UpdateRunRequest) (payroll.RunResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RunResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	run, err := s.getDraftRun(ctx, req.ID, companyID)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	ids := run.EmployeeIDs
	if req.EmployeeIDs != nil {
		ids = req.EmployeeIDs
	}
	if req.DeductionsEnabled != nil {
		run.DeductionsEnabled = *req.DeductionsEnabled
	}
	if req.ManualDeductions != nil {
		run.ManualDeductions = payroll.ToLineItemMap(req.ManualDeductions)
	}
	if req.ManualIncentives != nil {
		run.ManualIncentives = payroll.ToLineItemMap(req.ManualIncentives)
	}
	if req.StatutoryOverrides != nil {
		run.StatutoryOverrides = req.StatutoryOverrides
	}

	return s.regenerate(ctx, run, ids)
}

func (s *PayrollServiceImpl) RecomputeRun(ctx context.Context, id string) (payroll.RunResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	run, err := s.getDraftRun(ctx, id, companyID)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	return s.regenerate(ctx, run, run.EmployeeIDs)
}

// regenerate replaces every payslip of a draft run from fresh data.
func (s *PayrollServiceImpl) regenerate(ctx context.Context, run payroll.Run, ids []string) (payroll.RunResponse, error) {
	employees, err := s.loadEmployees(ctx, run.CompanyID, ids)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	run.EmployeeIDs = employeeIDs(employees)
	run.UpdatedAt = s.now()

	gen, err := s.generate(ctx, run, employees)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		// The run may have been finalized while payslips were computed.
		current, err := s.payrollRepo.GetRunForUpdate(txCtx, run.ID, run.CompanyID)
		if err != nil {
			return err
		}
		if current.Status != payroll.RunStatusDraft {
			return fmt.Errorf("%w: run %s is %s", payroll.ErrRunNotDraft, run.ID, current.Status)
		}
		run.Status = payroll.RunStatusDraft
		if err := s.payrollRepo.UpdateRun(txCtx, run, payroll.RunStatusDraft); err != nil {
			if errors.Is(err, payroll.ErrRunStatusChanged) {
				return fmt.Errorf("%w: %w", payroll.ErrRunNotDraft, err)
			}
			return fmt.Errorf("failed to update payroll run: %w", err)
		}
		return s.persistPayslips(txCtx, run, gen)
	})
	if err != nil {
		return payroll.RunResponse{}, err
	}

	s.logger.Info("payroll run regenerated",
		zap.String("run_id", run.ID),
		zap.Int("payslips", len(gen.payslips)),
	)
	s.publish(payroll.RunEventRegenerated, run, gen.payslips)
	return payroll.NewRunResponse(run, gen.payslips, true), nil
}

// RefreshDraftRuns regenerates every draft run so that late attendance and
// leave changes reach the payslips before finalization. A failing run is
// logged and skipped.
func (s *PayrollServiceImpl) RefreshDraftRuns(ctx context.Context) (int, error) {
	runs, err := s.payrollRepo.ListDraftRuns(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list draft runs: %w", err)
	}

	refreshed := 0
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		if _, err := s.regenerate(ctx, run, run.EmployeeIDs); err != nil {
			if errors.Is(err, payroll.ErrRunNotDraft) {
				s.logger.Debug("draft run left draft during refresh", zap.String("run_id", run.ID))
				continue
			}
			s.logger.Warn("failed to refresh draft run",
				zap.String("run_id", run.ID),
				zap.String("company_id", run.CompanyID),
				zap.Error(err),
			)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

func (s *PayrollServiceImpl) GetRun(ctx context.Context, id string) (payroll.RunResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	run, err := s.payrollRepo.GetRunByID(ctx, id, companyID)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	payslips, err := s.payrollRepo.ListPayslipsByRunID(ctx, run.ID, companyID)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	return payroll.NewRunResponse(run, payslips, true), nil
}

func (s *PayrollServiceImpl) ListRuns(ctx context.Context, filter payroll.RunFilter) (payroll.ListRunResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.ListRunResponse{}, err
	}

	filter.Normalize()
	runs, total, err := s.payrollRepo.ListRuns(ctx, companyID, filter)
	if err != nil {
		return payroll.ListRunResponse{}, err
	}

	data := make([]payroll.RunResponse, 0, len(runs))
	for _, run := range runs {
		payslips, err := s.payrollRepo.ListPayslipsByRunID(ctx, run.ID, companyID)
		if err != nil {
			return payroll.ListRunResponse{}, err
		}
		data = append(data, payroll.NewRunResponse(run, payslips, false))
	}

	return payroll.ListRunResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// ========== PAYSLIPS ==========

func (s *PayrollServiceImpl) ListPayslips(ctx context.Context, runID string) ([]payroll.PayslipResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.payrollRepo.GetRunByID(ctx, runID, companyID); err != nil {
		return nil, err
	}
	payslips, err := s.payrollRepo.ListPayslipsByRunID(ctx, runID, companyID)
	if err != nil {
		return nil, err
	}

	responses := make([]payroll.PayslipResponse, 0, len(payslips))
	for _, p := range payslips {
		responses = append(responses, payroll.NewPayslipResponse(p))
	}
	return responses, nil
}

func (s *PayrollServiceImpl) GetPayslip(ctx context.Context, id string) (payroll.PayslipResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	p, err := s.payrollRepo.GetPayslipByID(ctx, id, companyID)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}
	return payroll.NewPayslipResponse(p), nil
}

func (s *PayrollServiceImpl) EditPayslip(ctx context.Context, req payroll.EditPayslipRequest) (payroll.PayslipResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayslipResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	// The payslip is read once to find its run, then again under the run lock
	// because a concurrent regenerate replaces every payslip of a draft.
	found, err := s.payrollRepo.GetPayslipByID(ctx, req.ID, companyID)
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	var (
		p   payroll.Payslip
		run payroll.Run
	)
	now := s.now()
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		run, err = s.payrollRepo.GetRunForUpdate(txCtx, found.RunID, companyID)
		if err != nil {
			return err
		}
		if run.Status == payroll.RunStatusArchived || run.Status == payroll.RunStatusCancelled {
			return fmt.Errorf("%w: run %s is %s", payroll.ErrRunNotEditable, run.ID, run.Status)
		}
		p, err = s.payrollRepo.GetPayslipByID(txCtx, req.ID, companyID)
		if err != nil {
			return err
		}

		applyPayslipEdit(&p, req)
		p.UpdatedAt = now
		if err := s.payrollRepo.UpdatePayslip(txCtx, p); err != nil {
			return fmt.Errorf("failed to update payslip: %w", err)
		}
		if run.Status != payroll.RunStatusFinalized && run.Status != payroll.RunStatusPaid {
			return nil
		}
		payslips, err := s.payrollRepo.ListPayslipsByRunID(txCtx, run.ID, companyID)
		if err != nil {
			return err
		}
		if err := s.syncLedger(txCtx, run, payslips); err != nil {
			return err
		}
		if run.Status == payroll.RunStatusPaid {
			return s.settleLedger(txCtx, run, now)
		}
		return nil
	})
	if err != nil {
		return payroll.PayslipResponse{}, err
	}

	s.logger.Info("payslip edited",
		zap.String("payslip_id", p.ID),
		zap.String("run_id", run.ID),
		zap.String("run_status", string(run.Status)),
	)
	return payroll.NewPayslipResponse(p), nil
}

// applyPayslipEdit swaps the custom lines of p and re-caps it. Attendance and
// government lines are kept.
func applyPayslipEdit(p *payroll.Payslip, req payroll.EditPayslipRequest) {
	if req.Incentives != nil {
		for _, inc := range p.Incentives {
			p.GrossPay = p.GrossPay.Sub(inc.Amount)
		}
		p.Incentives = payroll.ToLineItems(req.Incentives)
		for _, inc := range p.Incentives {
			p.GrossPay = p.GrossPay.Add(inc.Amount)
		}
	}
	if req.Deductions != nil {
		kept := make([]payroll.LineItem, 0, len(p.Deductions)+len(req.Deductions))
		for _, d := range p.Deductions {
			if d.Category != payroll.CategoryCustom {
				kept = append(kept, d)
			}
		}
		p.Deductions = append(kept, payroll.ToLineItems(req.Deductions)...)
	}
	Recap(p)
}

func (s *PayrollServiceImpl) RenderPayslipPDF(ctx context.Context, id string) ([]byte, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.payrollRepo.GetPayslipByID(ctx, id, companyID)
	if err != nil {
		return nil, err
	}
	return RenderPayslip(p)
}

// ========== PREVIEW ==========

func (s *PayrollServiceImpl) Preview(ctx context.Context, req payroll.PreviewRequest) (payroll.PayComputationResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayComputationResult{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PayComputationResult{}, err
	}

	cutoff, err := payroll.ParseCutoff(req.CutoffStart, req.CutoffEnd)
	if err != nil {
		return payroll.PayComputationResult{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, companyID)
	if err != nil {
		return payroll.PayComputationResult{}, err
	}

	in, err := s.loadInputs(ctx, companyID, []employee.Employee{emp}, cutoff)
	if err != nil {
		return payroll.PayComputationResult{}, err
	}
	return Compute(in.computeInput(emp, cutoff)), nil
}

func employeeIDs(employees []employee.Employee) []string {
	ids := make([]string, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.ID)
	}
	return ids
}

// loadEmployees resolves the run population. An empty list selects every
// active employee of the company.
func (s *PayrollServiceImpl) loadEmployees(ctx context.Context, companyID string, ids []string) ([]employee.Employee, error) {
	if len(ids) == 0 {
		employees, err := s.employeeRepo.GetActiveByCompanyID(ctx, companyID)
		if err != nil {
			return nil, err
		}
		if len(employees) == 0 {
			return nil, payroll.ErrNoEmployees
		}
		return employees, nil
	}

	employees, err := s.employeeRepo.GetByIDs(ctx, companyID, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[string]bool, len(employees))
	for _, e := range employees {
		found[e.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, fmt.Errorf("%w: %s", employee.ErrEmployeeNotFound, id)
		}
	}
	return employees, nil
}
