package payroll

import "context"

type PayrollService interface {
	// Rates
	GetRates(ctx context.Context) (RatesResponse, error)
	UpdateRates(ctx context.Context, req UpdateRatesRequest) (RatesResponse, error)

	// Runs
	CreateRun(ctx context.Context, req CreateRunRequest) (RunResponse, error)
	UpdateRun(ctx context.Context, req UpdateRunRequest) (RunResponse, error)
	RecomputeRun(ctx context.Context, id string) (RunResponse, error)
	TransitionRun(ctx context.Context, req TransitionRunRequest) (RunResponse, error)
	GetRun(ctx context.Context, id string) (RunResponse, error)
	ListRuns(ctx context.Context, filter RunFilter) (ListRunResponse, error)

	// Payslips
	ListPayslips(ctx context.Context, runID string) ([]PayslipResponse, error)
	GetPayslip(ctx context.Context, id string) (PayslipResponse, error)
	EditPayslip(ctx context.Context, req EditPayslipRequest) (PayslipResponse, error)
	RenderPayslipPDF(ctx context.Context, id string) ([]byte, error)

	// Preview runs the calculation for one employee without persisting anything.
	Preview(ctx context.Context, req PreviewRequest) (PayComputationResult, error)
}
