package ledger

import (
	"context"
	"time"
)

// LedgerRepository stores cost ledger entries.
// All methods include companyID parameter to prevent cross-company data access attacks.
type LedgerRepository interface {
	CreateEntries(ctx context.Context, entries []Entry) error
	DeleteByNames(ctx context.Context, companyID string, names []string) error
	MarkPaidByNames(ctx context.Context, companyID string, names []string, paidAt time.Time) error
	ListByNames(ctx context.Context, companyID string, names []string) ([]Entry, error)
}
