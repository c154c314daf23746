package leave

import "errors"

var (
	ErrNoQuotaRules    = errors.New("no quota rules defined")
	ErrNoMatchingRule  = errors.New("no matching quota rule")
	ErrInvalidAsOfDate = errors.New("invalid as-of date")
)
