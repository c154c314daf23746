package employee

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrInvalidSchedule  = errors.New("invalid weekly schedule")
)
