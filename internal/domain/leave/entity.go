package leave

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

// Category is the kind of leave a request draws from.
type Category string

const (
	CategoryVacation  Category = "vacation"
	CategorySick      Category = "sick"
	CategoryMaternity Category = "maternity"
	CategoryPaternity Category = "paternity"
	CategoryCustom    Category = "custom"
)

// IsBuiltIn reports whether the category is paid without a configured policy.
func (c Category) IsBuiltIn() bool {
	switch c {
	case CategoryVacation, CategorySick, CategoryMaternity, CategoryPaternity:
		return true
	}
	return false
}

// LeaveType is a company configured leave policy.
type LeaveType struct {
	ID        string
	CompanyID string
	Name      string
	Code      *string
	IsPaid    bool

	AccrualMethod AccrualMethod
	QuotaRules    QuotaRules

	CreatedAt time.Time
	UpdatedAt time.Time
}

type AccrualMethod string

const (
	AccrualYearly      AccrualMethod = "yearly"
	AccrualMonthly     AccrualMethod = "monthly"
	AccrualAnniversary AccrualMethod = "anniversary"
)

// QuotaRules represents the JSONB quota calculation rules
type QuotaRules struct {
	Type         string      `json:"type"` // 'fixed', 'tenure'
	Rules        []QuotaRule `json:"rules,omitempty"`
	DefaultQuota float64     `json:"default_quota,omitempty"`
}

// QuotaRule grants Quota days a year to tenures in [MinMonths, MaxMonths).
type QuotaRule struct {
	MinMonths *int    `json:"min_months,omitempty"`
	MaxMonths *int    `json:"max_months,omitempty"`
	Quota     float64 `json:"quota"`
}

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// Request is a leave request covering an inclusive date range.
type Request struct {
	ID         string
	EmployeeID string
	CompanyID  string
	Category   Category
	// LeaveTypeName names the configured policy of a custom request.
	LeaveTypeName *string

	StartDate   time.Time
	EndDate     time.Time
	WorkingDays int
	Status      RequestStatus
	Reason      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Request) Range() calendar.Range {
	return calendar.NewRange(r.StartDate, r.EndDate)
}

// CountWorkingDays counts Monday through Friday across the inclusive range.
func (r Request) CountWorkingDays() int {
	return calendar.WeekdayCount(r.Range())
}

// IsPaid resolves the pay policy of the request against the configured types.
func (r Request) IsPaid(types []LeaveType) bool {
	if r.Category.IsBuiltIn() {
		return true
	}
	if r.Category != CategoryCustom || r.LeaveTypeName == nil {
		return false
	}
	for _, t := range types {
		if strings.EqualFold(strings.TrimSpace(t.Name), strings.TrimSpace(*r.LeaveTypeName)) {
			return t.IsPaid
		}
	}
	return false
}

// Entitlement is the leave credit an employee has earned for one leave type.
type Entitlement struct {
	LeaveType    string
	AnnualQuota  decimal.Decimal
	Accrued      decimal.Decimal
	Used         decimal.Decimal
	Balance      decimal.Decimal
	TenureMonths int
	PeriodStart  time.Time
	PeriodEnd    time.Time
}
