package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/household/internal/calendar"
)

// MarkAsPaid settles the payment's current occurrence. It records the
// occurrence in the ledger first and only then advances the payment, so a
// failed history insert leaves the payment untouched.
func (s *Service) MarkAsPaid(ctx context.Context, id uuid.UUID) (*Payment, error) {
	fid, err := familyID(ctx)
	if err != nil {
		return nil, err
	}

	var paid *Payment

	err = s.repo.InTx(ctx, func(repo Repository) error {
		p, err := repo.GetPayment(ctx, fid, id)
		if err != nil {
			return storeErr("loading payment", err)
		}

		now := s.now()

		if _, err := NewLedger(repo).Record(ctx, p, now); err != nil {
			return err
		}

		advance(p, now)

		if err := repo.UpdatePayment(ctx, p); err != nil {
			return storeErr("updating payment", err)
		}

		paid = p

		return nil
	})
	if err != nil {
		return nil, storeErr("marking payment as paid", err)
	}

	slog.Info("payment marked as paid",
		"payment_id", paid.ID,
		"period", paid.Period(),
		"due_date", calendar.Format(paid.DueDate),
		"is_paid", paid.IsPaid,
	)

	return paid, nil
}

// UndoLastPayment removes the latest ledger entry and reverts the payment to
// the state it had before that occurrence was paid.
func (s *Service) UndoLastPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	fid, err := familyID(ctx)
	if err != nil {
		return nil, err
	}

	var reverted *Payment

	err = s.repo.InTx(ctx, func(repo Repository) error {
		p, err := repo.GetPayment(ctx, fid, id)
		if err != nil {
			return storeErr("loading payment", err)
		}

		ledger := NewLedger(repo)

		last, err := ledger.MostRecent(ctx, fid, id)
		if err != nil {
			return err
		}

		if last == nil {
			return ErrNoHistory
		}

		if err := ledger.Delete(ctx, fid, last.ID); err != nil {
			return err
		}

		reverted = p

		// A previous undo that reverted the payment but failed to delete its
		// entry leaves the open payment due on the entry's date.
		if alreadyReverted(p, last) {
			slog.Warn("payment already reverted, removed dangling history entry",
				"payment_id", p.ID,
				"entry_id", last.ID,
			)

			return nil
		}

		revert(p)

		if err := repo.UpdatePayment(ctx, p); err != nil {
			return storeErr("updating payment", err)
		}

		return nil
	})
	if err != nil {
		return nil, storeErr("undoing payment", err)
	}

	slog.Info("payment undone",
		"payment_id", reverted.ID,
		"period", reverted.Period(),
		"due_date", calendar.Format(reverted.DueDate),
	)

	return reverted, nil
}

// TogglePause flips the paused flag. A payment resumed after its due date is
// moved to the same day of the current month so it does not show up as long
// overdue.
func (s *Service) TogglePause(ctx context.Context, id uuid.UUID) (*Payment, error) {
	fid, err := familyID(ctx)
	if err != nil {
		return nil, err
	}

	var toggled *Payment

	err = s.repo.InTx(ctx, func(repo Repository) error {
		p, err := repo.GetPayment(ctx, fid, id)
		if err != nil {
			return storeErr("loading payment", err)
		}

		resuming := p.IsPaused
		p.IsPaused = !p.IsPaused

		if resuming {
			today := calendar.DateOf(s.now())
			if calendar.IsOverdue(p.DueDate, today) {
				p.DueDate = calendar.InMonth(today.Year(), today.Month(), p.DueDate.Day())
			}
		}

		if err := repo.UpdatePayment(ctx, p); err != nil {
			return storeErr("updating payment", err)
		}

		toggled = p

		return nil
	})
	if err != nil {
		return nil, storeErr("toggling pause", err)
	}

	return toggled, nil
}

// advance moves p past the occurrence that was just paid.
func advance(p *Payment, paidAt time.Time) {
	switch p.Period() {
	case PeriodOneTime:
		settle(p, paidAt)
	case PeriodMonthly:
		reopen(p)
		p.DueDate = calendar.AddMonth(p.DueDate)
	case PeriodLimited:
		remaining := 1
		if p.RemainingOccurrences != nil {
			remaining = *p.RemainingOccurrences
		}

		remaining--

		if remaining <= 0 {
			settle(p, paidAt)
			p.RemainingOccurrences = new(0)

			return
		}

		reopen(p)
		p.DueDate = calendar.AddMonth(p.DueDate)
		p.RemainingOccurrences = &remaining
	default:
		// Unknown stored period: settle it like a one-time payment.
		settle(p, paidAt)
	}
}

// revert is advance run backwards.
func revert(p *Payment) {
	switch p.Period() {
	case PeriodOneTime:
		reopen(p)
	case PeriodMonthly:
		p.DueDate = calendar.SubtractMonth(p.DueDate)
	case PeriodLimited:
		if p.IsPaid {
			reopen(p)
		}

		remaining := 0
		if p.RemainingOccurrences != nil {
			remaining = *p.RemainingOccurrences
		}

		p.DueDate = calendar.SubtractMonth(p.DueDate)
		p.RemainingOccurrences = new(remaining + 1)
	default:
		reopen(p)
	}
}

// alreadyReverted reports whether p already looks like it did before last was
// paid. A settled payment still reflects its last occurrence, so only an open
// payment due on the entry's date counts.
func alreadyReverted(p *Payment, last *HistoryEntry) bool {
	return !p.IsPaid && calendar.DateOf(last.DueDate).Equal(calendar.DateOf(p.DueDate))
}

func settle(p *Payment, paidAt time.Time) {
	p.IsPaid = true
	p.PaidDate = &paidAt
}

func reopen(p *Payment) {
	p.IsPaid = false
	p.PaidDate = nil
}
