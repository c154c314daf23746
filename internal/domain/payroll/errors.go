package payroll

import "errors"

var (
	ErrPayrollSettingsNotFound = errors.New("payroll settings not found")
	ErrRunNotFound             = errors.New("payroll run not found")
	ErrPayslipNotFound         = errors.New("payslip not found")
	ErrRunNotDraft             = errors.New("payroll run is not in draft")
	ErrRunNotEditable          = errors.New("payroll run can no longer be edited")
	ErrInvalidTransition       = errors.New("invalid payroll run status transition")
	ErrRunStatusChanged        = errors.New("payroll run status changed concurrently")
	ErrInvalidCutoff           = errors.New("invalid payroll cutoff")
	ErrNoEmployees             = errors.New("no employees to process")
)
