package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DraftRefresher regenerates the payslips of draft payroll runs.
type DraftRefresher interface {
	RefreshDraftRuns(ctx context.Context) (int, error)
}

type PayrollJobs struct {
	refresher DraftRefresher
	interval  time.Duration
	logger    *zap.Logger
}

func NewPayrollJobs(refresher DraftRefresher, interval time.Duration, logger *zap.Logger) *PayrollJobs {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayrollJobs{refresher: refresher, interval: interval, logger: logger}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("refresh_draft_payroll_runs", j.interval, j.RefreshDraftRuns)
}

func (j *PayrollJobs) RefreshDraftRuns(ctx context.Context) error {
	refreshed, err := j.refresher.RefreshDraftRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh draft runs: %w", err)
	}
	if refreshed > 0 {
		j.logger.Info("draft payroll runs refreshed", zap.Int("count", refreshed))
	}
	return nil
}
