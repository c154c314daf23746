package payroll

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/ledger"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
)

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memoryPayrollRepo struct {
	mu       sync.Mutex
	settings map[string]payroll.Settings
	runs     map[string]payroll.Run
	payslips map[string]payroll.Payslip
}

func newMemoryPayrollRepo() *memoryPayrollRepo {
	return &memoryPayrollRepo{
		settings: map[string]payroll.Settings{},
		runs:     map[string]payroll.Run{},
		payslips: map[string]payroll.Payslip{},
	}
}

func (r *memoryPayrollRepo) GetSettings(ctx context.Context, companyID string) (payroll.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[companyID]
	if !ok {
		return payroll.Settings{}, payroll.ErrPayrollSettingsNotFound
	}
	return s, nil
}

func (r *memoryPayrollRepo) UpsertSettings(ctx context.Context, settings payroll.Settings) (payroll.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[settings.CompanyID] = settings
	return settings, nil
}

func (r *memoryPayrollRepo) CreateRun(ctx context.Context, run payroll.Run) (payroll.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	return run, nil
}

func (r *memoryPayrollRepo) GetRunByID(ctx context.Context, id string, companyID string) (payroll.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok || run.CompanyID != companyID {
		return payroll.Run{}, payroll.ErrRunNotFound
	}
	return run, nil
}

func (r *memoryPayrollRepo) ListRuns(ctx context.Context, companyID string, filter payroll.RunFilter) ([]payroll.Run, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var runs []payroll.Run
	for _, run := range r.runs {
		if run.CompanyID != companyID {
			continue
		}
		if filter.Status != nil && string(run.Status) != *filter.Status {
			continue
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CutoffStart.Before(runs[j].CutoffStart) })
	return runs, int64(len(runs)), nil
}

func (r *memoryPayrollRepo) ListDraftRuns(ctx context.Context) ([]payroll.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var runs []payroll.Run
	for _, run := range r.runs {
		if run.Status == payroll.RunStatusDraft {
			runs = append(runs, run)
		}
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.Before(runs[j].CreatedAt) })
	return runs, nil
}

// GetRunForUpdate cannot lock in memory; the status re-check it feeds is
// still exercised.
func (r *memoryPayrollRepo) GetRunForUpdate(ctx context.Context, id string, companyID string) (payroll.Run, error) {
	return r.GetRunByID(ctx, id, companyID)
}

func (r *memoryPayrollRepo) UpdateRun(ctx context.Context, run payroll.Run, expected payroll.RunStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.runs[run.ID]
	if !ok || stored.CompanyID != run.CompanyID {
		return payroll.ErrRunNotFound
	}
	if stored.Status != expected {
		return payroll.ErrRunStatusChanged
	}
	r.runs[run.ID] = run
	return nil
}

func (r *memoryPayrollRepo) CreatePayslips(ctx context.Context, payslips []payroll.Payslip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range payslips {
		r.payslips[p.ID] = p
	}
	return nil
}

func (r *memoryPayrollRepo) DeletePayslipsByRunID(ctx context.Context, runID string, companyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.payslips {
		if p.RunID == runID && p.CompanyID == companyID {
			delete(r.payslips, id)
		}
	}
	return nil
}

func (r *memoryPayrollRepo) ListPayslipsByRunID(ctx context.Context, runID string, companyID string) ([]payroll.Payslip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payroll.Payslip
	for _, p := range r.payslips {
		if p.RunID == runID && p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (r *memoryPayrollRepo) GetPayslipByID(ctx context.Context, id string, companyID string) (payroll.Payslip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payslips[id]
	if !ok || p.CompanyID != companyID {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return p, nil
}

func (r *memoryPayrollRepo) UpdatePayslip(ctx context.Context, payslip payroll.Payslip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payslips[payslip.ID]; !ok {
		return payroll.ErrPayslipNotFound
	}
	r.payslips[payslip.ID] = payslip
	return nil
}

func (r *memoryPayrollRepo) ListPendingInMonth(ctx context.Context, companyID string, employeeIDs []string, monthStart, before time.Time) ([]payroll.Payslip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []payroll.Payslip
	for _, p := range r.payslips {
		if p.CompanyID != companyID || !slices.Contains(employeeIDs, p.EmployeeID) || !p.PendingDeductions.IsPositive() {
			continue
		}
		if run, ok := r.runs[p.RunID]; !ok || run.Status == payroll.RunStatusCancelled {
			continue
		}
		if p.PeriodEnd.Before(monthStart) || !p.PeriodEnd.Before(before) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryPayrollRepo) SetCarriedInto(ctx context.Context, companyID string, payslipIDs []string, runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range payslipIDs {
		if p, ok := r.payslips[id]; ok && p.CompanyID == companyID {
			target := runID
			p.PendingCarriedInto = &target
			r.payslips[id] = p
		}
	}
	return nil
}

func (r *memoryPayrollRepo) ReleaseCarries(ctx context.Context, companyID string, runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.payslips {
		if p.CompanyID == companyID && p.PendingCarriedInto != nil && *p.PendingCarriedInto == runID {
			p.PendingCarriedInto = nil
			r.payslips[id] = p
		}
	}
	return nil
}

func (r *memoryPayrollRepo) payslipFor(runID, employeeID string) (payroll.Payslip, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payslips {
		if p.RunID == runID && p.EmployeeID == employeeID {
			return p, true
		}
	}
	return payroll.Payslip{}, false
}

type memoryLedgerRepo struct {
	mu      sync.Mutex
	entries []ledger.Entry
}

func (r *memoryLedgerRepo) CreateEntries(ctx context.Context, entries []ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *memoryLedgerRepo) DeleteByNames(ctx context.Context, companyID string, names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.CompanyID == companyID && slices.Contains(names, e.Name) {
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return nil
}

func (r *memoryLedgerRepo) MarkPaidByNames(ctx context.Context, companyID string, names []string, paidAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.CompanyID == companyID && slices.Contains(names, e.Name) {
			at := paidAt
			r.entries[i].Status = ledger.StatusPaid
			r.entries[i].PaidAmount = e.Amount
			r.entries[i].PaidAt = &at
		}
	}
	return nil
}

func (r *memoryLedgerRepo) ListByNames(ctx context.Context, companyID string, names []string) ([]ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Entry
	for _, e := range r.entries {
		if e.CompanyID == companyID && slices.Contains(names, e.Name) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryLedgerRepo) all() []ledger.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

type memoryEmployeeRepo struct {
	employees []employee.Employee
}

func (r *memoryEmployeeRepo) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	for _, e := range r.employees {
		if e.ID == id && e.CompanyID == companyID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *memoryEmployeeRepo) GetByIDs(ctx context.Context, companyID string, ids []string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range r.employees {
		if e.CompanyID == companyID && slices.Contains(ids, e.ID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryEmployeeRepo) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range r.employees {
		if e.CompanyID == companyID && e.IsActive() {
			out = append(out, e)
		}
	}
	return out, nil
}

type memoryAttendanceRepo struct {
	records []attendance.Record
}

func (r *memoryAttendanceRepo) ListByEmployeesAndRange(ctx context.Context, companyID string, employeeIDs []string, start, end time.Time) ([]attendance.Record, error) {
	window := calendar.NewRange(start, end)
	var out []attendance.Record
	for _, rec := range r.records {
		if rec.CompanyID == companyID && slices.Contains(employeeIDs, rec.EmployeeID) && window.Contains(calendar.DayOf(rec.Date)) {
			out = append(out, rec)
		}
	}
	return out, nil
}

type memoryHolidayRepo struct {
	holidays []holiday.Holiday
}

func (r *memoryHolidayRepo) ListByCompanyID(ctx context.Context, companyID string) ([]holiday.Holiday, error) {
	return r.holidays, nil
}

type memoryLeaveRepo struct {
	types    []leave.LeaveType
	requests []leave.Request
}

func (r *memoryLeaveRepo) GetByCompanyID(ctx context.Context, companyID string) ([]leave.LeaveType, error) {
	return r.types, nil
}

func (r *memoryLeaveRepo) ListApprovedOverlapping(ctx context.Context, companyID string, employeeIDs []string, start, end time.Time) ([]leave.Request, error) {
	window := calendar.NewRange(start, end)
	var out []leave.Request
	for _, req := range r.requests {
		if req.Status == leave.RequestStatusApproved && slices.Contains(employeeIDs, req.EmployeeID) && req.Range().Overlaps(window) {
			out = append(out, req)
		}
	}
	return out, nil
}
