package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	GetEntitlements(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	entitlementService leave.EntitlementService
}

func NewLeaveHandler(entitlementService leave.EntitlementService) LeaveHandler {
	return &LeaveHandlerImpl{entitlementService: entitlementService}
}

// GetEntitlements implements LeaveHandler.
func (l *LeaveHandlerImpl) GetEntitlements(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	if employeeID == "" {
		response.BadRequest(w, "Employee ID is required", nil)
		return
	}

	req := leave.EntitlementRequest{
		EmployeeID: employeeID,
		AsOf:       r.URL.Query().Get("as_of"),
	}

	result, err := l.entitlementService.GetEntitlements(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
