package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"go.uber.org/zap"
)

// TransitionRun moves a run through its lifecycle and keeps the cost ledger
// in step with the new status, all in one transaction. The run row stays
// locked from the status check until commit, so two callers racing the same
// transition cannot both pass it.
func (s *PayrollServiceImpl) TransitionRun(ctx context.Context, req payroll.TransitionRunRequest) (payroll.RunResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RunResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	target := payroll.RunStatus(req.Status)
	now := s.now()

	var (
		run      payroll.Run
		payslips []payroll.Payslip
		from     payroll.RunStatus
	)
	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		run, err = s.payrollRepo.GetRunForUpdate(txCtx, req.ID, companyID)
		if err != nil {
			return err
		}
		from = run.Status
		if !from.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s to %s", payroll.ErrInvalidTransition, from, target)
		}

		payslips, err = s.payrollRepo.ListPayslipsByRunID(txCtx, run.ID, companyID)
		if err != nil {
			return err
		}

		switch target {
		case payroll.RunStatusFinalized:
			if err := s.syncLedger(txCtx, run, payslips); err != nil {
				return err
			}
			run.FinalizedAt = &now
		case payroll.RunStatusPaid:
			if err := s.settleLedger(txCtx, run, now); err != nil {
				return err
			}
			run.PaidAt = &now
		case payroll.RunStatusDraft:
			if err := s.clearLedger(txCtx, run); err != nil {
				return err
			}
			run.FinalizedAt = nil
		case payroll.RunStatusArchived:
			if err := s.clearLedger(txCtx, run); err != nil {
				return err
			}
		case payroll.RunStatusCancelled:
			if err := s.clearLedger(txCtx, run); err != nil {
				return err
			}
			if err := s.payrollRepo.ReleaseCarries(txCtx, run.CompanyID, run.ID); err != nil {
				return fmt.Errorf("failed to release pending carries: %w", err)
			}
		}

		run.Status = target
		run.UpdatedAt = now
		if err := s.payrollRepo.UpdateRun(txCtx, run, from); err != nil {
			if errors.Is(err, payroll.ErrRunStatusChanged) {
				return fmt.Errorf("%w: %w", payroll.ErrInvalidTransition, err)
			}
			return fmt.Errorf("failed to update payroll run: %w", err)
		}
		return nil
	})
	if err != nil {
		return payroll.RunResponse{}, err
	}

	s.logger.Info("payroll run status changed",
		zap.String("run_id", run.ID),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
	)
	s.publish(payroll.RunEventStatusChanged, run, payslips)
	return payroll.NewRunResponse(run, payslips, false), nil
}
