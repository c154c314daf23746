package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/ledger"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type ledgerRepository struct {
	db *database.DB
}

func NewLedgerRepository(db *database.DB) ledger.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) CreateEntries(ctx context.Context, entries []ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO cost_ledger_entries (
			id, company_id, run_id, name, category, amount, paid_amount,
			due_date, status, paid_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query,
			e.ID, e.CompanyID, e.RunID, e.Name, e.Category, e.Amount, e.PaidAmount,
			e.DueDate, e.Status, e.PaidAt, e.CreatedAt,
		)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to create ledger entry: %w", err)
		}
	}

	return nil
}

func (r *ledgerRepository) DeleteByNames(ctx context.Context, companyID string, names []string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `DELETE FROM cost_ledger_entries WHERE company_id = $1 AND name = ANY($2)`, companyID, names)
	if err != nil {
		return fmt.Errorf("failed to delete ledger entries: %w", err)
	}

	return nil
}

func (r *ledgerRepository) MarkPaidByNames(ctx context.Context, companyID string, names []string, paidAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE cost_ledger_entries
		SET status = $3, paid_amount = amount, paid_at = $4, updated_at = $4
		WHERE company_id = $1 AND name = ANY($2)
	`
	if _, err := q.Exec(ctx, query, companyID, names, ledger.StatusPaid, paidAt); err != nil {
		return fmt.Errorf("failed to mark ledger entries paid: %w", err)
	}

	return nil
}

func (r *ledgerRepository) ListByNames(ctx context.Context, companyID string, names []string) ([]ledger.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, run_id, name, category, amount, paid_amount,
			   due_date, status, paid_at, created_at, updated_at
		FROM cost_ledger_entries
		WHERE company_id = $1 AND name = ANY($2)
		ORDER BY due_date, name
	`

	rows, err := q.Query(ctx, query, companyID, names)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(
			&e.ID, &e.CompanyID, &e.RunID, &e.Name, &e.Category, &e.Amount, &e.PaidAmount,
			&e.DueDate, &e.Status, &e.PaidAt, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}
