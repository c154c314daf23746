package payroll

import (
	"context"
	"fmt"
	"sort"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// runInputs is the data shared by every payslip of one run.
type runInputs struct {
	rates      payroll.PayrollRates
	holidays   []holiday.Holiday
	leaveTypes []leave.LeaveType
	attendance map[string][]attendance.Record
	leaves     map[string][]leave.Request
}

func (in runInputs) computeInput(emp employee.Employee, cutoff calendar.Range) payroll.ComputeInput {
	return payroll.ComputeInput{
		Employee:   emp,
		Attendance: in.attendance[emp.ID],
		Holidays:   in.holidays,
		Leaves:     in.leaves[emp.ID],
		LeaveTypes: in.leaveTypes,
		Rates:      in.rates,
		Cutoff:     cutoff,
	}
}

// loadInputs fetches rates, holidays, leave types, attendance and approved
// leave for the employees concurrently.
func (s *PayrollServiceImpl) loadInputs(ctx context.Context, companyID string, employees []employee.Employee, cutoff calendar.Range) (runInputs, error) {
	ids := employeeIDs(employees)
	start, end := cutoff.Start.Time(), cutoff.End.Time()

	var (
		in      runInputs
		records []attendance.Record
		leaves  []leave.Request
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rates, _, err := s.resolveRates(gctx, companyID)
		if err != nil {
			return fmt.Errorf("failed to load payroll rates: %w", err)
		}
		in.rates = rates
		return nil
	})
	g.Go(func() error {
		holidays, err := s.holidayRepo.ListByCompanyID(gctx, companyID)
		if err != nil {
			return fmt.Errorf("failed to load holidays: %w", err)
		}
		in.holidays = holidays
		return nil
	})
	g.Go(func() error {
		types, err := s.leaveTypeRepo.GetByCompanyID(gctx, companyID)
		if err != nil {
			return fmt.Errorf("failed to load leave types: %w", err)
		}
		in.leaveTypes = types
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = s.attendanceRepo.ListByEmployeesAndRange(gctx, companyID, ids, start, end)
		if err != nil {
			return fmt.Errorf("failed to load attendance: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		leaves, err = s.leaveRequestRepo.ListApprovedOverlapping(gctx, companyID, ids, start, end)
		if err != nil {
			return fmt.Errorf("failed to load leave requests: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return runInputs{}, err
	}

	in.attendance = make(map[string][]attendance.Record, len(employees))
	for _, rec := range records {
		in.attendance[rec.EmployeeID] = append(in.attendance[rec.EmployeeID], rec)
	}
	in.leaves = make(map[string][]leave.Request, len(employees))
	for _, req := range leaves {
		in.leaves[req.EmployeeID] = append(in.leaves[req.EmployeeID], req)
	}
	return in, nil
}

// carrySource is an earlier payslip whose pending amount this run may claim.
type carrySource struct {
	payslipID string
	amount    decimal.Decimal
}

// loadCarries picks, per employee, the most recent payslip of an earlier
// cutoff in the same month that still has unresolved pending deductions.
// Payslips already carried into another run are skipped.
func (s *PayrollServiceImpl) loadCarries(ctx context.Context, run payroll.Run, ids []string) (map[string]carrySource, error) {
	cutoff := run.Cutoff()
	candidates, err := s.payrollRepo.ListPendingInMonth(ctx, run.CompanyID, ids, cutoff.Start.StartOfMonth().Time(), cutoff.Start.Time())
	if err != nil {
		return nil, fmt.Errorf("failed to load pending deductions: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].PeriodEnd.Equal(candidates[j].PeriodEnd) {
			return candidates[i].PeriodEnd.After(candidates[j].PeriodEnd)
		}
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})

	carries := make(map[string]carrySource)
	for _, p := range candidates {
		if p.RunID == run.ID || !p.PendingDeductions.IsPositive() {
			continue
		}
		if p.PendingCarriedInto != nil && *p.PendingCarriedInto != run.ID {
			continue
		}
		if !calendar.DayOf(p.PeriodEnd).Before(cutoff.Start) || !calendar.DayOf(p.PeriodEnd).SameMonth(cutoff.Start) {
			continue
		}
		if _, seen := carries[p.EmployeeID]; seen {
			continue
		}
		carries[p.EmployeeID] = carrySource{payslipID: p.ID, amount: p.PendingDeductions}
	}
	return carries, nil
}

// generation is the fan-in of one run computation.
type generation struct {
	payslips []payroll.Payslip
	claimed  []string
}

// generate computes every payslip of run on a bounded worker group. Nothing
// is persisted.
func (s *PayrollServiceImpl) generate(ctx context.Context, run payroll.Run, employees []employee.Employee) (generation, error) {
	cutoff := run.Cutoff()
	in, err := s.loadInputs(ctx, run.CompanyID, employees, cutoff)
	if err != nil {
		return generation{}, err
	}
	carries, err := s.loadCarries(ctx, run, employeeIDs(employees))
	if err != nil {
		return generation{}, err
	}

	asOf := s.now()
	payslips := make([]payroll.Payslip, len(employees))
	claimed := make([]bool, len(employees))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, emp := range employees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result := Compute(in.computeInput(emp, cutoff))

			var override *payroll.StatutoryOverride
			if o, ok := run.StatutoryOverrides[emp.ID]; ok {
				override = &o
			}
			carry := carries[emp.ID]
			summary := AggregateDeductions(AggregateInput{
				Result:            result,
				Employee:          emp,
				Rates:             in.rates,
				Cutoff:            cutoff,
				AsOf:              asOf,
				DeductionsEnabled: run.DeductionsEnabled,
				ManualDeductions:  run.ManualDeductions[emp.ID],
				ManualIncentives:  run.ManualIncentives[emp.ID],
				Override:          override,
				CarriedPending:    carry.amount,
			})

			payslips[i] = buildPayslip(run, emp, result, summary)
			claimed[i] = summary.CarryClaimed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return generation{}, err
	}

	gen := generation{payslips: payslips}
	for i, emp := range employees {
		if claimed[i] {
			gen.claimed = append(gen.claimed, carries[emp.ID].payslipID)
		}
	}
	s.logger.Debug("payroll computed",
		zap.String("run_id", run.ID),
		zap.Int("employees", len(employees)),
		zap.Int("carries_claimed", len(gen.claimed)),
	)
	return gen, nil
}

func buildPayslip(run payroll.Run, emp employee.Employee, result payroll.PayComputationResult, summary DeductionSummary) payroll.Payslip {
	name, code := emp.FullName, emp.EmployeeCode
	return payroll.Payslip{
		ID:                  newID(),
		RunID:               run.ID,
		CompanyID:           run.CompanyID,
		EmployeeID:          emp.ID,
		PeriodLabel:         run.PeriodLabel(),
		PeriodStart:         run.CutoffStart,
		PeriodEnd:           run.CutoffEnd,
		BasicPay:            result.BasicPay,
		GrossPay:            summary.GrossPay,
		NonTaxableAllowance: summary.Allowance,
		Deductions:          summary.Deductions,
		Incentives:          summary.Incentives,
		Breakdown:           result.Breakdown,
		DaysWorked:          result.DaysWorked,
		Absences:            result.Absences,
		LateHours:           result.LateHours,
		UndertimeHours:      result.UndertimeHours,
		TotalDeductions:     summary.TotalDeductions,
		NetPay:              summary.NetPay,
		DeferredStatutory:   summary.DeferredStatutory,
		PendingDeductions:   summary.PendingDeductions,
		WorkedAtLeastOneDay: result.WorkedAtLeastOneDay,
		EmployerShares:      summary.EmployerShares,
		CreatedAt:           run.UpdatedAt,
		UpdatedAt:           run.UpdatedAt,
		EmployeeName:        &name,
		EmployeeCode:        &code,
	}
}

// persistPayslips replaces the payslips of run and re-claims carries. It must
// run inside a transaction.
func (s *PayrollServiceImpl) persistPayslips(ctx context.Context, run payroll.Run, gen generation) error {
	if err := s.payrollRepo.ReleaseCarries(ctx, run.CompanyID, run.ID); err != nil {
		return fmt.Errorf("failed to release pending carries: %w", err)
	}
	if err := s.payrollRepo.DeletePayslipsByRunID(ctx, run.ID, run.CompanyID); err != nil {
		return fmt.Errorf("failed to delete payslips: %w", err)
	}
	if err := s.payrollRepo.CreatePayslips(ctx, gen.payslips); err != nil {
		return fmt.Errorf("failed to create payslips: %w", err)
	}
	if len(gen.claimed) > 0 {
		if err := s.payrollRepo.SetCarriedInto(ctx, run.CompanyID, gen.claimed, run.ID); err != nil {
			return fmt.Errorf("failed to claim pending carries: %w", err)
		}
	}
	return nil
}
