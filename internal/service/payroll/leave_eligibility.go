package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
)

type leaveEligibility struct {
	paid map[calendar.Day]bool
}

// newLeaveEligibility marks every cutoff date covered by an approved, paid
// leave request.
func newLeaveEligibility(requests []leave.Request, types []leave.LeaveType, cutoff calendar.Range) *leaveEligibility {
	paid := make(map[calendar.Day]bool)
	for _, req := range requests {
		if req.Status != leave.RequestStatusApproved || !req.IsPaid(types) {
			continue
		}
		span := req.Range()
		if !span.Valid() || !span.Overlaps(cutoff) {
			continue
		}
		for _, day := range span.Days() {
			if cutoff.Contains(day) {
				paid[day] = true
			}
		}
	}
	return &leaveEligibility{paid: paid}
}

func (l *leaveEligibility) IsPaidLeave(day calendar.Day) bool {
	return l.paid[day]
}

// IsPaidLeaveDate reports whether day falls inside an approved, paid request.
func IsPaidLeaveDate(day calendar.Day, requests []leave.Request, types []leave.LeaveType) bool {
	return newLeaveEligibility(requests, types, calendar.Range{Start: day, End: day}).IsPaidLeave(day)
}
