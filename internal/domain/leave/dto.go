package leave

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type EntitlementRequest struct {
	EmployeeID string `json:"-"`
	AsOf       string `json:"as_of,omitempty"` // YYYY-MM-DD, defaults to today
}

func (r *EntitlementRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if r.AsOf != "" {
		if _, ok := validator.IsValidDate(r.AsOf); !ok {
			errs = append(errs, validator.ValidationError{Field: "as_of", Message: "must be in YYYY-MM-DD format"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EntitlementItem struct {
	LeaveType    string          `json:"leave_type"`
	AnnualQuota  decimal.Decimal `json:"annual_quota"`
	Accrued      decimal.Decimal `json:"accrued"`
	Used         decimal.Decimal `json:"used"`
	Balance      decimal.Decimal `json:"balance"`
	TenureMonths int             `json:"tenure_months"`
	PeriodStart  string          `json:"period_start"`
	PeriodEnd    string          `json:"period_end"`
}

type EntitlementResponse struct {
	EmployeeID string            `json:"employee_id"`
	AsOf       string            `json:"as_of"`
	Items      []EntitlementItem `json:"items"`
}
