package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret    = "test-secret-key-for-jwt"
	handlerTestAccessExp = "1h"
	handlerTestCompanyID = "company-1"
)

// fakePayrollService records the last request and returns canned results.
type fakePayrollService struct {
	err error

	lastFilter     payroll.RunFilter
	lastTransition payroll.TransitionRunRequest
	lastEdit       payroll.EditPayslipRequest
	companyID      string
}

func (f *fakePayrollService) captureCompany(ctx context.Context) {
	if _, claims, err := jwtauth.FromContext(ctx); err == nil {
		f.companyID, _ = claims["company_id"].(string)
	}
}

func (f *fakePayrollService) run(id string) payroll.RunResponse {
	return payroll.RunResponse{ID: id, CompanyID: f.companyID, Status: string(payroll.RunStatusDraft), TotalNet: decimal.NewFromInt(8800)}
}

func (f *fakePayrollService) GetRates(ctx context.Context) (payroll.RatesResponse, error) {
	f.captureCompany(ctx)
	return payroll.RatesResponse{CompanyID: f.companyID, IsDefault: true, PayrollRates: payroll.DefaultRates()}, f.err
}

func (f *fakePayrollService) UpdateRates(ctx context.Context, req payroll.UpdateRatesRequest) (payroll.RatesResponse, error) {
	return payroll.RatesResponse{}, f.err
}

func (f *fakePayrollService) CreateRun(ctx context.Context, req payroll.CreateRunRequest) (payroll.RunResponse, error) {
	f.captureCompany(ctx)
	if f.err != nil {
		return payroll.RunResponse{}, f.err
	}
	return f.run("run-1"), nil
}

func (f *fakePayrollService) UpdateRun(ctx context.Context, req payroll.UpdateRunRequest) (payroll.RunResponse, error) {
	return f.run(req.ID), f.err
}

func (f *fakePayrollService) RecomputeRun(ctx context.Context, id string) (payroll.RunResponse, error) {
	return f.run(id), f.err
}

func (f *fakePayrollService) TransitionRun(ctx context.Context, req payroll.TransitionRunRequest) (payroll.RunResponse, error) {
	f.lastTransition = req
	if f.err != nil {
		return payroll.RunResponse{}, f.err
	}
	run := f.run(req.ID)
	run.Status = req.Status
	return run, nil
}

func (f *fakePayrollService) GetRun(ctx context.Context, id string) (payroll.RunResponse, error) {
	if f.err != nil {
		return payroll.RunResponse{}, f.err
	}
	return f.run(id), nil
}

func (f *fakePayrollService) ListRuns(ctx context.Context, filter payroll.RunFilter) (payroll.ListRunResponse, error) {
	f.lastFilter = filter
	return payroll.ListRunResponse{
		Data:       []payroll.RunResponse{f.run("run-1"), f.run("run-2")},
		TotalCount: 45,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, f.err
}

func (f *fakePayrollService) ListPayslips(ctx context.Context, runID string) ([]payroll.PayslipResponse, error) {
	return []payroll.PayslipResponse{{ID: "slip-1", RunID: runID}}, f.err
}

func (f *fakePayrollService) GetPayslip(ctx context.Context, id string) (payroll.PayslipResponse, error) {
	if f.err != nil {
		return payroll.PayslipResponse{}, f.err
	}
	return payroll.PayslipResponse{ID: id, NetPay: decimal.NewFromInt(8800)}, nil
}

func (f *fakePayrollService) EditPayslip(ctx context.Context, req payroll.EditPayslipRequest) (payroll.PayslipResponse, error) {
	f.lastEdit = req
	return payroll.PayslipResponse{ID: req.ID}, f.err
}

func (f *fakePayrollService) RenderPayslipPDF(ctx context.Context, id string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.3 fake"), nil
}

func (f *fakePayrollService) Preview(ctx context.Context, req payroll.PreviewRequest) (payroll.PayComputationResult, error) {
	return payroll.PayComputationResult{EmployeeID: req.EmployeeID, BasicPay: decimal.NewFromInt(8800)}, f.err
}

type fakeEntitlementService struct {
	err     error
	lastReq leave.EntitlementRequest
}

func (f *fakeEntitlementService) GetEntitlements(ctx context.Context, req leave.EntitlementRequest) (leave.EntitlementResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return leave.EntitlementResponse{}, f.err
	}
	return leave.EntitlementResponse{
		EmployeeID: req.EmployeeID,
		AsOf:       req.AsOf,
		Items:      []leave.EntitlementItem{{LeaveType: "Vacation", Balance: decimal.NewFromInt(2)}},
	}, nil
}

type routerFixture struct {
	router      http.Handler
	payroll     *fakePayrollService
	entitlement *fakeEntitlementService
	hub         *sse.Hub
	jwtService  jwt.Service
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		payroll:     &fakePayrollService{},
		entitlement: &fakeEntitlementService{},
		hub:         sse.NewHub(),
		jwtService:  jwt.NewJWTService(handlerTestSecret, handlerTestAccessExp),
	}
	f.router = NewRouter(
		RouterConfig{Version: "test", Env: "test", AllowedOrigins: []string{"http://localhost:3000"}, LogLevel: slog.LevelError},
		f.jwtService,
		NewPayrollHandler(f.payroll),
		NewPayrollEventsHandler(f.hub),
		NewLeaveHandler(f.entitlement),
	)
	return f
}

func (f *routerFixture) do(t *testing.T, method, path string, body interface{}, companyID string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if companyID != "-" {
		token, _, err := f.jwtService.GenerateAccessToken("user-1", companyID, "admin")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalItems int64 `json:"total_items"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestRouter_Authentication(t *testing.T) {
	f := newRouterFixture(t)

	t.Run("missing token", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/payroll/rates", nil, "-")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := jwt.NewJWTService("another-secret", handlerTestAccessExp)
		token, _, err := other.GenerateAccessToken("user-1", handlerTestCompanyID, "admin")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/rates", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token without company", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/payroll/rates", nil, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/payroll/rates", nil, handlerTestCompanyID)
		require.Equal(t, http.StatusOK, rec.Code)

		var rates payroll.RatesResponse
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &rates))
		assert.Equal(t, handlerTestCompanyID, rates.CompanyID)
		assert.True(t, rates.IsDefault)
	})
}

func TestRouter_Heartbeat(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPayrollHandler_CreateRun(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newRouterFixture(t)
		rec := f.do(t, http.MethodPost, "/api/v1/payroll/runs", payroll.CreateRunRequest{
			CutoffStart: "2025-01-01",
			CutoffEnd:   "2025-01-15",
		}, handlerTestCompanyID)

		require.Equal(t, http.StatusCreated, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.True(t, env.Success)

		var run payroll.RunResponse
		require.NoError(t, json.Unmarshal(env.Data, &run))
		assert.Equal(t, "run-1", run.ID)
		assert.Equal(t, handlerTestCompanyID, run.CompanyID)
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newRouterFixture(t)
		rec := f.do(t, http.MethodPost, "/api/v1/payroll/runs", "{not json", handlerTestCompanyID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		f := newRouterFixture(t)
		f.payroll.err = validator.ValidationErrors{{Field: "cutoff_start", Message: "is required"}}

		rec := f.do(t, http.MethodPost, "/api/v1/payroll/runs", payroll.CreateRunRequest{}, handlerTestCompanyID)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		env := decodeEnvelope(t, rec)
		require.NotNil(t, env.Error)
		assert.Equal(t, "is required", env.Error.Details["cutoff_start"])
	})

	t.Run("no employees", func(t *testing.T) {
		f := newRouterFixture(t)
		f.payroll.err = payroll.ErrNoEmployees

		rec := f.do(t, http.MethodPost, "/api/v1/payroll/runs", payroll.CreateRunRequest{}, handlerTestCompanyID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPayrollHandler_ListRuns(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/payroll/runs?page=2&limit=20&status=draft", nil, handlerTestCompanyID)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, f.payroll.lastFilter.Status)
	assert.Equal(t, "draft", *f.payroll.lastFilter.Status)
	assert.Equal(t, 2, f.payroll.lastFilter.Page)

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(45), env.Meta.TotalItems)
	assert.Equal(t, 3, env.Meta.TotalPages)

	var runs []payroll.RunResponse
	require.NoError(t, json.Unmarshal(env.Data, &runs))
	assert.Len(t, runs, 2)
}

func TestPayrollHandler_GetRun(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"found", nil, http.StatusOK},
		{"not found", fmt.Errorf("failed to get run: %w", payroll.ErrRunNotFound), http.StatusNotFound},
		{"unexpected", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t)
			f.payroll.err = tt.err

			rec := f.do(t, http.MethodGet, "/api/v1/payroll/runs/run-9", nil, handlerTestCompanyID)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestPayrollHandler_TransitionRun(t *testing.T) {
	t.Run("moves run", func(t *testing.T) {
		f := newRouterFixture(t)
		rec := f.do(t, http.MethodPost, "/api/v1/payroll/runs/run-9/transition",
			map[string]string{"status": "finalized"}, handlerTestCompanyID)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "run-9", f.payroll.lastTransition.ID)
		assert.Equal(t, "finalized", f.payroll.lastTransition.Status)
		assert.Equal(t, "Payroll run moved to finalized", decodeEnvelope(t, rec).Message)
	})

	t.Run("illegal transition", func(t *testing.T) {
		f := newRouterFixture(t)
		f.payroll.err = fmt.Errorf("%w: paid -> draft", payroll.ErrInvalidTransition)

		rec := f.do(t, http.MethodPost, "/api/v1/payroll/runs/run-9/transition",
			map[string]string{"status": "draft"}, handlerTestCompanyID)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("run not draft", func(t *testing.T) {
		f := newRouterFixture(t)
		f.payroll.err = payroll.ErrRunNotDraft

		rec := f.do(t, http.MethodPost, "/api/v1/payroll/runs/run-9/recompute", nil, handlerTestCompanyID)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestPayrollHandler_Payslips(t *testing.T) {
	t.Run("list by run", func(t *testing.T) {
		f := newRouterFixture(t)
		rec := f.do(t, http.MethodGet, "/api/v1/payroll/runs/run-9/payslips", nil, handlerTestCompanyID)
		require.Equal(t, http.StatusOK, rec.Code)

		var slips []payroll.PayslipResponse
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &slips))
		require.Len(t, slips, 1)
		assert.Equal(t, "run-9", slips[0].RunID)
	})

	t.Run("edit sets id from path", func(t *testing.T) {
		f := newRouterFixture(t)
		rec := f.do(t, http.MethodPut, "/api/v1/payroll/payslips/slip-3", payroll.EditPayslipRequest{
			Deductions: []payroll.LineItemInput{{Name: "Loan", Amount: decimal.NewFromInt(500)}},
		}, handlerTestCompanyID)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "slip-3", f.payroll.lastEdit.ID)
		require.Len(t, f.payroll.lastEdit.Deductions, 1)
		assert.Equal(t, "Loan", f.payroll.lastEdit.Deductions[0].Name)
	})

	t.Run("pdf download", func(t *testing.T) {
		f := newRouterFixture(t)
		rec := f.do(t, http.MethodGet, "/api/v1/payroll/payslips/slip-3/pdf", nil, handlerTestCompanyID)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="payslip-slip-3.pdf"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "%PDF-1.3 fake", rec.Body.String())
	})

	t.Run("pdf of missing payslip", func(t *testing.T) {
		f := newRouterFixture(t)
		f.payroll.err = payroll.ErrPayslipNotFound

		rec := f.do(t, http.MethodGet, "/api/v1/payroll/payslips/slip-3/pdf", nil, handlerTestCompanyID)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	})
}

func TestPayrollHandler_Preview(t *testing.T) {
	f := newRouterFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/payroll/preview", payroll.PreviewRequest{
		EmployeeID:  "emp-1",
		CutoffStart: "2025-01-01",
		CutoffEnd:   "2025-01-15",
	}, handlerTestCompanyID)

	require.Equal(t, http.StatusOK, rec.Code)
	var result payroll.PayComputationResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &result))
	assert.Equal(t, "emp-1", result.EmployeeID)
	assert.True(t, result.BasicPay.Equal(decimal.NewFromInt(8800)))
}

func TestLeaveHandler_GetEntitlements(t *testing.T) {
	t.Run("passes path and query", func(t *testing.T) {
		f := newRouterFixture(t)
		rec := f.do(t, http.MethodGet, "/api/v1/employees/emp-7/leave-entitlement?as_of=2026-03-10", nil, handlerTestCompanyID)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "emp-7", f.entitlement.lastReq.EmployeeID)
		assert.Equal(t, "2026-03-10", f.entitlement.lastReq.AsOf)

		var resp leave.EntitlementResponse
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &resp))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "Vacation", resp.Items[0].LeaveType)
	})

	t.Run("unknown employee", func(t *testing.T) {
		f := newRouterFixture(t)
		f.entitlement.err = employee.ErrEmployeeNotFound

		rec := f.do(t, http.MethodGet, "/api/v1/employees/emp-7/leave-entitlement", nil, handlerTestCompanyID)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("as of before hire", func(t *testing.T) {
		f := newRouterFixture(t)
		f.entitlement.err = fmt.Errorf("%w: before hire date", leave.ErrInvalidAsOfDate)

		rec := f.do(t, http.MethodGet, "/api/v1/employees/emp-7/leave-entitlement?as_of=2000-01-01", nil, handlerTestCompanyID)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
