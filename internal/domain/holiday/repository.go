package holiday

import "context"

type HolidayRepository interface {
	ListByCompanyID(ctx context.Context, companyID string) ([]Holiday, error)
}
