package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const maxCutoffDays = 31

// ========== RATES DTOs ==========

type RatesResponse struct {
	CompanyID string `json:"company_id"`
	IsDefault bool   `json:"is_default"`
	PayrollRates
}

type UpdateRatesRequest struct {
	RegularOvertime               *decimal.Decimal `json:"regular_overtime,omitempty"`
	RestDayOvertime               *decimal.Decimal `json:"rest_day_overtime,omitempty"`
	SpecialHolidayOvertime        *decimal.Decimal `json:"special_holiday_overtime,omitempty"`
	RegularHolidayOvertime        *decimal.Decimal `json:"regular_holiday_overtime,omitempty"`
	RestDayRegularHolidayOvertime *decimal.Decimal `json:"rest_day_regular_holiday_overtime,omitempty"`
	RestDaySpecialHolidayOvertime *decimal.Decimal `json:"rest_day_special_holiday_overtime,omitempty"`
	RestDayPremium                *decimal.Decimal `json:"rest_day_premium,omitempty"`
	RegularHolidayRate            *decimal.Decimal `json:"regular_holiday_rate,omitempty"`
	SpecialHolidayRate            *decimal.Decimal `json:"special_holiday_rate,omitempty"`
	NightDiffRate                 *decimal.Decimal `json:"night_diff_rate,omitempty"`
	PhilHealthEmployee            *decimal.Decimal `json:"philhealth_employee,omitempty"`
	PhilHealthEmployer            *decimal.Decimal `json:"philhealth_employer,omitempty"`
	PagIBIGEmployee               *decimal.Decimal `json:"pagibig_employee,omitempty"`
	PagIBIGEmployer               *decimal.Decimal `json:"pagibig_employer,omitempty"`
	TaxThreshold                  *decimal.Decimal `json:"tax_threshold,omitempty"`
	TaxRate                       *decimal.Decimal `json:"tax_rate,omitempty"`
	DailyRate                     *DailyRateConfig `json:"daily_rate,omitempty"`
	// UseLegacyDailyRate clears DailyRate so the basic/22 formula applies.
	UseLegacyDailyRate bool `json:"use_legacy_daily_rate,omitempty"`
}

func (r *UpdateRatesRequest) fields() map[string]*decimal.Decimal {
	return map[string]*decimal.Decimal{
		"regular_overtime":                  r.RegularOvertime,
		"rest_day_overtime":                 r.RestDayOvertime,
		"special_holiday_overtime":          r.SpecialHolidayOvertime,
		"regular_holiday_overtime":          r.RegularHolidayOvertime,
		"rest_day_regular_holiday_overtime": r.RestDayRegularHolidayOvertime,
		"rest_day_special_holiday_overtime": r.RestDaySpecialHolidayOvertime,
		"rest_day_premium":                  r.RestDayPremium,
		"regular_holiday_rate":              r.RegularHolidayRate,
		"special_holiday_rate":              r.SpecialHolidayRate,
		"night_diff_rate":                   r.NightDiffRate,
		"philhealth_employee":               r.PhilHealthEmployee,
		"philhealth_employer":               r.PhilHealthEmployer,
		"pagibig_employee":                  r.PagIBIGEmployee,
		"pagibig_employer":                  r.PagIBIGEmployer,
		"tax_threshold":                     r.TaxThreshold,
		"tax_rate":                          r.TaxRate,
	}
}

func (r *UpdateRatesRequest) Validate() error {
	var errs validator.ValidationErrors

	for field, value := range r.fields() {
		if value != nil && value.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: field, Message: "must be non-negative"})
		}
	}
	if r.DailyRate != nil && r.DailyRate.WorkingDaysPerYear < 0 {
		errs = append(errs, validator.ValidationError{Field: "daily_rate.working_days_per_year", Message: "must be non-negative"})
	}
	if r.DailyRate != nil && r.UseLegacyDailyRate {
		errs = append(errs, validator.ValidationError{Field: "use_legacy_daily_rate", Message: "cannot be combined with daily_rate"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Apply returns current with every provided field replaced.
func (r *UpdateRatesRequest) Apply(current PayrollRates) PayrollRates {
	set := func(dst *decimal.Decimal, v *decimal.Decimal) {
		if v != nil {
			*dst = *v
		}
	}
	set(&current.RegularOvertime, r.RegularOvertime)
	set(&current.RestDayOvertime, r.RestDayOvertime)
	set(&current.SpecialHolidayOvertime, r.SpecialHolidayOvertime)
	set(&current.RegularHolidayOvertime, r.RegularHolidayOvertime)
	set(&current.RestDayRegularHolidayOvertime, r.RestDayRegularHolidayOvertime)
	set(&current.RestDaySpecialHolidayOvertime, r.RestDaySpecialHolidayOvertime)
	set(&current.RestDayPremium, r.RestDayPremium)
	set(&current.RegularHolidayRate, r.RegularHolidayRate)
	set(&current.SpecialHolidayRate, r.SpecialHolidayRate)
	set(&current.NightDiffRate, r.NightDiffRate)
	set(&current.PhilHealthEmployee, r.PhilHealthEmployee)
	set(&current.PhilHealthEmployer, r.PhilHealthEmployer)
	set(&current.PagIBIGEmployee, r.PagIBIGEmployee)
	set(&current.PagIBIGEmployer, r.PagIBIGEmployer)
	set(&current.TaxThreshold, r.TaxThreshold)
	set(&current.TaxRate, r.TaxRate)

	if r.DailyRate != nil {
		cfg := *r.DailyRate
		current.DailyRate = &cfg
	}
	if r.UseLegacyDailyRate {
		current.DailyRate = nil
	}
	return current
}

// ========== RUN DTOs ==========

type LineItemInput struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

func validateLineItems(field string, items []LineItemInput) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for i, item := range items {
		if validator.IsEmpty(item.Name) {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("%s[%d].name", field, i), Message: "is required"})
		}
		if item.Amount.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("%s[%d].amount", field, i), Message: "must be non-negative"})
		}
	}
	return errs
}

func validateLineItemMap(field string, m map[string][]LineItemInput) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for employeeID, items := range m {
		errs = append(errs, validateLineItems(field+"."+employeeID, items)...)
	}
	return errs
}

func validateOverrides(m map[string]StatutoryOverride) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for employeeID, o := range m {
		for name, v := range map[string]*decimal.Decimal{"sss": o.SSS, "philhealth": o.PhilHealth, "pagibig": o.PagIBIG, "withholding_tax": o.WithholdingTax} {
			if v != nil && v.IsNegative() {
				errs = append(errs, validator.ValidationError{Field: "statutory_overrides." + employeeID + "." + name, Message: "must be non-negative"})
			}
		}
	}
	return errs
}

// ToLineItems converts request lines into custom payslip items.
func ToLineItems(items []LineItemInput) []LineItem {
	if items == nil {
		return nil
	}
	result := make([]LineItem, 0, len(items))
	for _, item := range items {
		result = append(result, LineItem{Name: item.Name, Amount: item.Amount.Round(2), Category: CategoryCustom})
	}
	return result
}

// ToLineItemMap converts per-employee request lines.
func ToLineItemMap(m map[string][]LineItemInput) map[string][]LineItem {
	if m == nil {
		return nil
	}
	result := make(map[string][]LineItem, len(m))
	for employeeID, items := range m {
		result[employeeID] = ToLineItems(items)
	}
	return result
}

// ParseCutoff validates and normalizes an inclusive cutoff.
func ParseCutoff(start, end string) (calendar.Range, error) {
	s, err := calendar.ParseDay(start)
	if err != nil {
		return calendar.Range{}, fmt.Errorf("%w: cutoff_start: %v", ErrInvalidCutoff, err)
	}
	e, err := calendar.ParseDay(end)
	if err != nil {
		return calendar.Range{}, fmt.Errorf("%w: cutoff_end: %v", ErrInvalidCutoff, err)
	}
	r := calendar.Range{Start: s, End: e}
	if !r.Valid() {
		return calendar.Range{}, fmt.Errorf("%w: cutoff_end is before cutoff_start", ErrInvalidCutoff)
	}
	if r.Len() > maxCutoffDays {
		return calendar.Range{}, fmt.Errorf("%w: cutoff longer than %d days", ErrInvalidCutoff, maxCutoffDays)
	}
	return r, nil
}

func validateCutoff(start, end string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if _, ok := validator.IsValidDate(start); !ok {
		errs = append(errs, validator.ValidationError{Field: "cutoff_start", Message: "must be in YYYY-MM-DD format"})
	}
	if _, ok := validator.IsValidDate(end); !ok {
		errs = append(errs, validator.ValidationError{Field: "cutoff_end", Message: "must be in YYYY-MM-DD format"})
	}
	if len(errs) > 0 {
		return errs
	}
	if _, err := ParseCutoff(start, end); err != nil {
		errs = append(errs, validator.ValidationError{Field: "cutoff_end", Message: "must be on or after cutoff_start and within 31 days"})
	}
	return errs
}

type CreateRunRequest struct {
	CutoffStart        string                       `json:"cutoff_start"`
	CutoffEnd          string                       `json:"cutoff_end"`
	EmployeeIDs        []string                     `json:"employee_ids,omitempty"`       // Empty = all active employees
	DeductionsEnabled  *bool                        `json:"deductions_enabled,omitempty"` // Defaults to true
	ManualDeductions   map[string][]LineItemInput   `json:"manual_deductions,omitempty"`
	ManualIncentives   map[string][]LineItemInput   `json:"manual_incentives,omitempty"`
	StatutoryOverrides map[string]StatutoryOverride `json:"statutory_overrides,omitempty"`
}

func (r *CreateRunRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validateCutoff(r.CutoffStart, r.CutoffEnd)...)
	for i, id := range r.EmployeeIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("employee_ids[%d]", i), Message: "is required"})
		}
	}
	errs = append(errs, validateLineItemMap("manual_deductions", r.ManualDeductions)...)
	errs = append(errs, validateLineItemMap("manual_incentives", r.ManualIncentives)...)
	errs = append(errs, validateOverrides(r.StatutoryOverrides)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateRunRequest edits a draft run. Nil fields keep their current value.
type UpdateRunRequest struct {
	ID                 string                       `json:"-"`
	EmployeeIDs        []string                     `json:"employee_ids,omitempty"`
	DeductionsEnabled  *bool                        `json:"deductions_enabled,omitempty"`
	ManualDeductions   map[string][]LineItemInput   `json:"manual_deductions,omitempty"`
	ManualIncentives   map[string][]LineItemInput   `json:"manual_incentives,omitempty"`
	StatutoryOverrides map[string]StatutoryOverride `json:"statutory_overrides,omitempty"`
}

func (r *UpdateRunRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	errs = append(errs, validateLineItemMap("manual_deductions", r.ManualDeductions)...)
	errs = append(errs, validateLineItemMap("manual_incentives", r.ManualIncentives)...)
	errs = append(errs, validateOverrides(r.StatutoryOverrides)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TransitionRunRequest struct {
	ID     string `json:"-"`
	Status string `json:"status"`
}

func (r *TransitionRunRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	if !RunStatus(r.Status).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be one of draft, finalized, paid, archived, cancelled"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// EditPayslipRequest replaces the custom lines of a payslip. Nil keeps the
// current lines, an empty list clears them.
type EditPayslipRequest struct {
	ID         string          `json:"-"`
	Deductions []LineItemInput `json:"deductions"`
	Incentives []LineItemInput `json:"incentives"`
}

func (r *EditPayslipRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	errs = append(errs, validateLineItems("deductions", r.Deductions)...)
	errs = append(errs, validateLineItems("incentives", r.Incentives)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PreviewRequest struct {
	EmployeeID  string `json:"employee_id"`
	CutoffStart string `json:"cutoff_start"`
	CutoffEnd   string `json:"cutoff_end"`
}

func (r *PreviewRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	errs = append(errs, validateCutoff(r.CutoffStart, r.CutoffEnd)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RunFilter struct {
	Status *string `json:"status,omitempty"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// Normalize clamps paging values.
func (f *RunFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

type PayslipResponse struct {
	ID                  string          `json:"id"`
	RunID               string          `json:"run_id"`
	EmployeeID          string          `json:"employee_id"`
	EmployeeName        *string         `json:"employee_name,omitempty"`
	EmployeeCode        *string         `json:"employee_code,omitempty"`
	PeriodLabel         string          `json:"period_label"`
	BasicPay            decimal.Decimal `json:"basic_pay"`
	GrossPay            decimal.Decimal `json:"gross_pay"`
	NonTaxableAllowance decimal.Decimal `json:"non_taxable_allowance"`
	Deductions          []LineItem      `json:"deductions"`
	Incentives          []LineItem      `json:"incentives"`
	Breakdown           PayBreakdown    `json:"breakdown"`
	DaysWorked          decimal.Decimal `json:"days_worked"`
	Absences            int             `json:"absences"`
	LateHours           decimal.Decimal `json:"late_hours"`
	UndertimeHours      decimal.Decimal `json:"undertime_hours"`
	TotalDeductions     decimal.Decimal `json:"total_deductions"`
	NetPay              decimal.Decimal `json:"net_pay"`
	PendingDeductions   decimal.Decimal `json:"pending_deductions"`
	PendingCarriedInto  *string         `json:"pending_carried_into,omitempty"`
	WorkedAtLeastOneDay bool            `json:"worked_at_least_one_day"`
	EmployerShares      EmployerShares  `json:"employer_shares"`
}

func NewPayslipResponse(p Payslip) PayslipResponse {
	deductions := p.Deductions
	if deductions == nil {
		deductions = []LineItem{}
	}
	incentives := p.Incentives
	if incentives == nil {
		incentives = []LineItem{}
	}
	return PayslipResponse{
		ID:                  p.ID,
		RunID:               p.RunID,
		EmployeeID:          p.EmployeeID,
		EmployeeName:        p.EmployeeName,
		EmployeeCode:        p.EmployeeCode,
		PeriodLabel:         p.PeriodLabel,
		BasicPay:            p.BasicPay,
		GrossPay:            p.GrossPay,
		NonTaxableAllowance: p.NonTaxableAllowance,
		Deductions:          deductions,
		Incentives:          incentives,
		Breakdown:           p.Breakdown,
		DaysWorked:          p.DaysWorked,
		Absences:            p.Absences,
		LateHours:           p.LateHours,
		UndertimeHours:      p.UndertimeHours,
		TotalDeductions:     p.TotalDeductions,
		NetPay:              p.NetPay,
		PendingDeductions:   p.PendingDeductions,
		PendingCarriedInto:  p.PendingCarriedInto,
		WorkedAtLeastOneDay: p.WorkedAtLeastOneDay,
		EmployerShares:      p.EmployerShares,
	}
}

type RunResponse struct {
	ID                string            `json:"id"`
	CompanyID         string            `json:"company_id"`
	CutoffStart       string            `json:"cutoff_start"`
	CutoffEnd         string            `json:"cutoff_end"`
	PeriodLabel       string            `json:"period_label"`
	Status            string            `json:"status"`
	DeductionsEnabled bool              `json:"deductions_enabled"`
	EmployeeIDs       []string          `json:"employee_ids"`
	PayslipCount      int               `json:"payslip_count"`
	TotalGross        decimal.Decimal   `json:"total_gross"`
	TotalDeductions   decimal.Decimal   `json:"total_deductions"`
	TotalNet          decimal.Decimal   `json:"total_net"`
	TotalPending      decimal.Decimal   `json:"total_pending"`
	Payslips          []PayslipResponse `json:"payslips,omitempty"`
	FinalizedAt       *string           `json:"finalized_at,omitempty"`
	PaidAt            *string           `json:"paid_at,omitempty"`
	CreatedAt         string            `json:"created_at"`
}

// NewRunResponse builds a run summary. Payslips are embedded only when
// withPayslips is set.
func NewRunResponse(run Run, payslips []Payslip, withPayslips bool) RunResponse {
	resp := RunResponse{
		ID:                run.ID,
		CompanyID:         run.CompanyID,
		CutoffStart:       calendar.DayOf(run.CutoffStart).String(),
		CutoffEnd:         calendar.DayOf(run.CutoffEnd).String(),
		PeriodLabel:       run.PeriodLabel(),
		Status:            string(run.Status),
		DeductionsEnabled: run.DeductionsEnabled,
		EmployeeIDs:       run.EmployeeIDs,
		PayslipCount:      len(payslips),
		TotalGross:        decimal.Zero,
		TotalDeductions:   decimal.Zero,
		TotalNet:          decimal.Zero,
		TotalPending:      decimal.Zero,
		FinalizedAt:       formatTime(run.FinalizedAt),
		PaidAt:            formatTime(run.PaidAt),
		CreatedAt:         run.CreatedAt.Format(time.RFC3339),
	}
	if resp.EmployeeIDs == nil {
		resp.EmployeeIDs = []string{}
	}
	for _, p := range payslips {
		resp.TotalGross = resp.TotalGross.Add(p.GrossPay)
		resp.TotalDeductions = resp.TotalDeductions.Add(p.TotalDeductions)
		resp.TotalNet = resp.TotalNet.Add(p.NetPay)
		resp.TotalPending = resp.TotalPending.Add(p.PendingDeductions)
		if withPayslips {
			resp.Payslips = append(resp.Payslips, NewPayslipResponse(p))
		}
	}
	return resp
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

type ListRunResponse struct {
	Data       []RunResponse `json:"data"`
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
}

// Run lifecycle event names streamed to subscribers of a company.
const (
	RunEventCreated       = "payroll.run.created"
	RunEventRegenerated   = "payroll.run.regenerated"
	RunEventStatusChanged = "payroll.run.status_changed"
)

// RunEvent is the payload of a run lifecycle event.
type RunEvent struct {
	RunID        string          `json:"run_id"`
	PeriodLabel  string          `json:"period_label"`
	Status       string          `json:"status"`
	PayslipCount int             `json:"payslip_count"`
	TotalNet     decimal.Decimal `json:"total_net"`
	UpdatedAt    string          `json:"updated_at"`
}

func NewRunEvent(run Run, payslips []Payslip) RunEvent {
	summary := NewRunResponse(run, payslips, false)
	return RunEvent{
		RunID:        run.ID,
		PeriodLabel:  summary.PeriodLabel,
		Status:       summary.Status,
		PayslipCount: summary.PayslipCount,
		TotalNet:     summary.TotalNet,
		UpdatedAt:    run.UpdatedAt.Format(time.RFC3339),
	}
}
