package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/holiday"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusHalfDay Status = "half_day"
	StatusLeave   Status = "leave"
)

// Record is the attendance of one employee on one calendar date.
type Record struct {
	ID         string
	EmployeeID string
	CompanyID  string
	Date       time.Time
	Status     Status

	// HH:mm; empty means the employee schedule applies.
	ScheduledIn  string
	ScheduledOut string
	ActualIn     *string
	ActualOut    *string

	OvertimeHours *decimal.Decimal

	// An explicit holiday marker wins over the company holiday list.
	IsHoliday   bool
	HolidayType *holiday.Type

	Remarks   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HolidayOverride returns the explicit holiday type carried by the record.
func (r Record) HolidayOverride() (holiday.Type, bool) {
	if !r.IsHoliday || r.HolidayType == nil || !r.HolidayType.IsValid() {
		return "", false
	}
	return *r.HolidayType, true
}

func (r Record) OvertimeOrZero() decimal.Decimal {
	if r.OvertimeHours == nil || r.OvertimeHours.IsNegative() {
		return decimal.Zero
	}
	return *r.OvertimeHours
}
