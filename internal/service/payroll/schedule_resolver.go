package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
)

// ScheduleResolution is the effective schedule of one date.
type ScheduleResolution struct {
	IsWorkday  bool
	InTime     string
	OutTime    string
	Overridden bool
}

type scheduleResolver struct {
	weekly    [7]employee.DaySchedule
	overrides map[calendar.Day]employee.ScheduleOverride
}

func newScheduleResolver(emp employee.Employee) *scheduleResolver {
	overrides := make(map[calendar.Day]employee.ScheduleOverride, len(emp.Overrides))
	for _, o := range emp.Overrides {
		overrides[calendar.DayOf(o.Date)] = o
	}
	return &scheduleResolver{weekly: emp.WeeklySchedule, overrides: overrides}
}

// Resolve returns the schedule of day. An override always makes the day a
// workday; its times fall back to the weekday default when left empty.
func (r *scheduleResolver) Resolve(day calendar.Day) ScheduleResolution {
	def := r.weekly[day.Weekday()]
	if o, ok := r.overrides[day]; ok {
		res := ScheduleResolution{IsWorkday: true, InTime: o.InTime, OutTime: o.OutTime, Overridden: true}
		if res.InTime == "" {
			res.InTime = def.InTime
		}
		if res.OutTime == "" {
			res.OutTime = def.OutTime
		}
		return res
	}
	return ScheduleResolution{IsWorkday: def.IsWorkday, InTime: def.InTime, OutTime: def.OutTime}
}

// ResolveSchedule resolves a single date for an employee.
func ResolveSchedule(emp employee.Employee, day calendar.Day) ScheduleResolution {
	return newScheduleResolver(emp).Resolve(day)
}
