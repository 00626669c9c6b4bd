package view

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/MrJamesThe3rd/household/internal/calendar"
	"github.com/MrJamesThe3rd/household/internal/money"
	"github.com/MrJamesThe3rd/household/internal/payment"
)

const dbTimeout = 5 * time.Second

// FormatAmount formats an amount stored as cents into a human-readable string.
func FormatAmount(cents int64) string {
	return money.Format(cents)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return calendar.Format(t)
}

// FormatRecurrence describes how a payment advances once paid.
func FormatRecurrence(p *payment.Payment) string {
	switch p.Period() {
	case payment.PeriodMonthly:
		return "monthly"
	case payment.PeriodLimited:
		if p.RemainingOccurrences == nil {
			return "limited"
		}

		return fmt.Sprintf("limited (%d left)", *p.RemainingOccurrences)
	}

	return "one-time"
}

// FormatStatus renders the state of a payment relative to today.
func FormatStatus(p *payment.Payment, today time.Time) string {
	switch {
	case p.IsPaid:
		return "paid"
	case p.IsPaused:
		return "paused"
	}

	return DueLabel(p.DueDate, today)
}

// DueLabel renders a due date relative to today, e.g. "3 days overdue".
func DueLabel(due, today time.Time) string {
	due = calendar.DateOf(due)
	today = calendar.DateOf(today)

	if due.Equal(today) {
		return "due today"
	}

	return humanize.RelTime(due, today, "overdue", "left")
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, dbTimeout)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func errorText(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(s)
}

func successText(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(s)
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func framed(s string) string {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(s)
}
