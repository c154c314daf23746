package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, "Invalid token")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrInvalidSchedule):
		BadRequest(w, "Employee schedule is invalid", nil)

	// Leave domain errors
	case errors.Is(err, leave.ErrInvalidAsOfDate):
		BadRequest(w, err.Error(), nil)

	// Payroll domain errors
	case errors.Is(err, payroll.ErrRunNotFound):
		NotFound(w, "Payroll run not found")
	case errors.Is(err, payroll.ErrPayslipNotFound):
		NotFound(w, "Payslip not found")
	case errors.Is(err, payroll.ErrInvalidTransition):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrRunNotDraft):
		Conflict(w, "Payroll run is not in draft")
	case errors.Is(err, payroll.ErrRunNotEditable):
		Conflict(w, "Payroll run can no longer be edited")
	case errors.Is(err, payroll.ErrInvalidCutoff):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrNoEmployees):
		BadRequest(w, "No employees to process", nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
