package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/household/internal/calendar"
	"github.com/MrJamesThe3rd/household/internal/family"
	"github.com/MrJamesThe3rd/household/internal/money"
	"github.com/MrJamesThe3rd/household/internal/payment"
)

// paidLayout is how paid timestamps are written.
const paidLayout = "2006-01-02 15:04"

// Item is one settled occurrence with the name of its payment resolved.
type Item struct {
	Entry       *payment.HistoryEntry
	PaymentName string
}

// Service exports a month of payment history.
type Service struct {
	payments *payment.Service
}

// NewService creates a new export Service.
func NewService(payments *payment.Service) *Service {
	return &Service{payments: payments}
}

// Export returns the history entries due in month, ordered by due date.
func (s *Service) Export(ctx context.Context, month calendar.Month) ([]Item, error) {
	if _, ok := family.IDFromContext(ctx); !ok {
		return nil, payment.ErrNoFamily
	}

	entries, err := s.payments.History(ctx, payment.HistoryFilter{Month: &month})
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	payments, err := s.payments.List(ctx, payment.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}

	names := make(map[uuid.UUID]string, len(payments))
	for _, p := range payments {
		names[p.ID] = p.Name
	}

	items := make([]Item, 0, len(entries))

	for _, e := range entries {
		name, ok := names[e.PaymentID]
		if !ok {
			name = e.PaymentID.String()
		}

		items = append(items, Item{Entry: e, PaymentName: name})
	}

	return items, nil
}

// WriteCSV writes items as a semicolon-separated sheet with a header row.
func WriteCSV(w io.Writer, items []Item) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write([]string{"payment", "amount", "due_date", "paid_date"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, item := range items {
		record := []string{
			item.PaymentName,
			money.FormatNumber(item.Entry.Amount),
			calendar.Format(item.Entry.DueDate),
			item.Entry.PaidDate.Format(paidLayout),
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// GenerateSummary renders a plain text overview of the month, one line per
// occurrence followed by the total.
func (s *Service) GenerateSummary(month calendar.Month, items []Item) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Payments for %s\n\n", month)

	var total int64

	for _, item := range items {
		total += item.Entry.Amount

		fmt.Fprintf(&sb, "* %s | %s | %s | paid %s\n",
			calendar.Format(item.Entry.DueDate),
			item.PaymentName,
			money.Format(item.Entry.Amount),
			item.Entry.PaidDate.Format(paidLayout),
		)
	}

	fmt.Fprintf(&sb, "\nTotal: %s (%d payments)\n", money.Format(total), len(items))

	return sb.String()
}
