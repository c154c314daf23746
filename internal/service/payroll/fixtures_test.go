package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) calendar.Day { return calendar.NewDay(y, m, d) }

func strPtr(s string) *string { return &s }

// officeWeek is Monday to Friday, 08:00 to 17:00.
func officeWeek() [7]employee.DaySchedule {
	var week [7]employee.DaySchedule
	for wd := time.Monday; wd <= time.Friday; wd++ {
		week[wd] = employee.DaySchedule{InTime: "08:00", OutTime: "17:00", IsWorkday: true}
	}
	return week
}

func newEmployee(id string, salaryType employee.SalaryType, basic string) employee.Employee {
	return employee.Employee{
		ID:               id,
		CompanyID:        "company-1",
		EmployeeCode:     "EMP-" + id,
		FullName:         "Employee " + id,
		EmploymentStatus: employee.EmploymentStatusActive,
		WeeklySchedule:   officeWeek(),
		Compensation: employee.Compensation{
			BasicSalary: dec(basic),
			Allowance:   decimal.Zero,
			SalaryType:  salaryType,
		},
	}
}

func present(employeeID string, d calendar.Day, in, out string) attendance.Record {
	return attendance.Record{
		EmployeeID: employeeID,
		CompanyID:  "company-1",
		Date:       d.Time(),
		Status:     attendance.StatusPresent,
		ActualIn:   strPtr(in),
		ActualOut:  strPtr(out),
	}
}

func withStatus(employeeID string, d calendar.Day, status attendance.Status) attendance.Record {
	return attendance.Record{EmployeeID: employeeID, CompanyID: "company-1", Date: d.Time(), Status: status}
}

// rates261 uses the annualized daily rate with 261 working days.
func rates261() payroll.PayrollRates {
	r := payroll.DefaultRates()
	r.DailyRate = &payroll.DailyRateConfig{WorkingDaysPerYear: 261}
	return r
}

func span(start, end calendar.Day) calendar.Range { return calendar.Range{Start: start, End: end} }

func assertDec(t assert.TestingT, want string, got decimal.Decimal, msgAndArgs ...interface{}) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	return assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}
