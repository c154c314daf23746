package holiday

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/calendar"
)

type Type string

const (
	TypeRegular Type = "regular"
	TypeSpecial Type = "special"
)

func (t Type) IsValid() bool {
	return t == TypeRegular || t == TypeSpecial
}

type Holiday struct {
	ID        string
	CompanyID string
	Name      string
	Date      time.Time
	Type      Type
	Recurring bool
	// Year pins a recurring holiday to a single year when set.
	Year      *int
	CreatedAt time.Time
}

// Matches reports whether the holiday falls on day. Recurring holidays match
// on month and day only.
func (h Holiday) Matches(day calendar.Day) bool {
	date := calendar.DayOf(h.Date)
	if !h.Recurring {
		return date == day
	}
	if h.Year != nil && *h.Year != day.Year() {
		return false
	}
	return date.Month() == day.Month() && date.DayOfMonth() == day.DayOfMonth()
}
