package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Ledger is the append-only record of settled occurrences that backs undo.
type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Record appends the occurrence p is currently due for, paid at paidAt.
func (l *Ledger) Record(ctx context.Context, p *Payment, paidAt time.Time) (*HistoryEntry, error) {
	e := &HistoryEntry{
		PaymentID: p.ID,
		FamilyID:  p.FamilyID,
		Amount:    p.Amount,
		DueDate:   p.DueDate,
		PaidDate:  paidAt,
	}

	if err := l.repo.CreateHistoryEntry(ctx, e); err != nil {
		return nil, storeErr("recording payment history", err)
	}

	return e, nil
}

// MostRecent returns the entry with the latest paid date, or nil when the
// payment has no history.
func (l *Ledger) MostRecent(ctx context.Context, familyID, paymentID uuid.UUID) (*HistoryEntry, error) {
	e, err := l.repo.LatestHistoryEntry(ctx, familyID, paymentID)
	if err != nil {
		return nil, storeErr("loading payment history", err)
	}

	return e, nil
}

// Delete removes exactly one entry.
func (l *Ledger) Delete(ctx context.Context, familyID, entryID uuid.UUID) error {
	return storeErr("deleting payment history", l.repo.DeleteHistoryEntry(ctx, familyID, entryID))
}

// HasAny reports whether the payment has at least one entry. It only drives
// whether undo is offered, so a failed lookup reads as false.
func (l *Ledger) HasAny(ctx context.Context, familyID, paymentID uuid.UUID) bool {
	ok, err := l.repo.HasHistory(ctx, familyID, paymentID)
	if err != nil {
		slog.Warn("failed to check payment history", "payment_id", paymentID, "error", err)
		return false
	}

	return ok
}
