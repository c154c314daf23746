package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/ledger"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// LedgerTotals are the amounts a run owes, one per ledger category.
func LedgerTotals(payslips []payroll.Payslip) map[ledger.Category]decimal.Decimal {
	totals := make(map[ledger.Category]decimal.Decimal, len(ledger.Categories))
	for _, c := range ledger.Categories {
		totals[c] = decimal.Zero
	}
	add := func(c ledger.Category, amount decimal.Decimal) {
		totals[c] = totals[c].Add(amount)
	}
	for _, p := range payslips {
		add(ledger.CategoryNetPay, p.NetPay)
		add(ledger.CategorySSS, p.AppliedAmount(payroll.LineSSS).Add(p.EmployerShares.SSS))
		add(ledger.CategoryPhilHealth, p.AppliedAmount(payroll.LinePhilHealth).Add(p.EmployerShares.PhilHealth))
		add(ledger.CategoryPagIBIG, p.AppliedAmount(payroll.LinePagIBIG).Add(p.EmployerShares.PagIBIG))
		add(ledger.CategoryWithholdingTax, p.AppliedAmount(payroll.LineWithholdingTax))
	}
	return totals
}

// buildLedgerEntries turns run totals into unpaid entries due DueDays after
// the cutoff. Zero totals produce no entry.
func buildLedgerEntries(run payroll.Run, payslips []payroll.Payslip, now time.Time) []ledger.Entry {
	totals := LedgerTotals(payslips)
	label := run.PeriodLabel()
	due := run.Cutoff().End.AddDays(ledger.DueDays).Time()

	entries := make([]ledger.Entry, 0, len(ledger.Categories))
	for _, c := range ledger.Categories {
		amount := totals[c]
		if !amount.IsPositive() {
			continue
		}
		entries = append(entries, ledger.Entry{
			ID:         newID(),
			CompanyID:  run.CompanyID,
			RunID:      run.ID,
			Name:       ledger.EntryName(c, label),
			Category:   c,
			Amount:     amount,
			PaidAmount: decimal.Zero,
			DueDate:    due,
			Status:     ledger.StatusUnpaid,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return entries
}

// syncLedger deletes then recreates the entries of the run period so that
// repeating it leaves exactly one entry per category.
func (s *PayrollServiceImpl) syncLedger(ctx context.Context, run payroll.Run, payslips []payroll.Payslip) error {
	if err := s.clearLedger(ctx, run); err != nil {
		return err
	}
	entries := buildLedgerEntries(run, payslips, s.now())
	if len(entries) == 0 {
		return nil
	}
	if err := s.ledgerRepo.CreateEntries(ctx, entries); err != nil {
		return fmt.Errorf("failed to create ledger entries: %w", err)
	}
	return nil
}

// clearLedger removes the entries of the run period. Entries are matched by
// name, so another run over the same cutoff shares them.
func (s *PayrollServiceImpl) clearLedger(ctx context.Context, run payroll.Run) error {
	if err := s.ledgerRepo.DeleteByNames(ctx, run.CompanyID, ledger.EntryNames(run.PeriodLabel())); err != nil {
		return fmt.Errorf("failed to delete ledger entries: %w", err)
	}
	return nil
}

func (s *PayrollServiceImpl) settleLedger(ctx context.Context, run payroll.Run, paidAt time.Time) error {
	if err := s.ledgerRepo.MarkPaidByNames(ctx, run.CompanyID, ledger.EntryNames(run.PeriodLabel()), paidAt); err != nil {
		return fmt.Errorf("failed to settle ledger entries: %w", err)
	}
	return nil
}
