package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/household/internal/calendar"
	"github.com/MrJamesThe3rd/household/internal/money"
	"github.com/MrJamesThe3rd/household/internal/payment"
)

type paymentResponse struct {
	ID                   uuid.UUID                 `json:"id"`
	Name                 string                    `json:"name"`
	Description          *string                   `json:"description,omitempty"`
	Amount               int64                     `json:"amount"`
	AmountDisplay        string                    `json:"amount_display"`
	DueDate              string                    `json:"due_date"`
	IsRecurring          bool                      `json:"is_recurring"`
	RecurrencePeriod     *payment.RecurrencePeriod `json:"recurrence_period,omitempty"`
	RemainingOccurrences *int                      `json:"remaining_occurrences,omitempty"`
	IsPaid               bool                      `json:"is_paid"`
	IsPaused             bool                      `json:"is_paused"`
	PaidDate             *time.Time                `json:"paid_date,omitempty"`
	CreatedAt            time.Time                 `json:"created_at"`
	UpdatedAt            *time.Time                `json:"updated_at,omitempty"`
}

type historyEntryResponse struct {
	ID            uuid.UUID `json:"id"`
	PaymentID     uuid.UUID `json:"payment_id"`
	Amount        int64     `json:"amount"`
	AmountDisplay string    `json:"amount_display"`
	DueDate       string    `json:"due_date"`
	PaidDate      time.Time `json:"paid_date"`
}

type hasHistoryResponse struct {
	HasHistory bool `json:"has_history"`
}

type scheduleResponse struct {
	Months []string `json:"months"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(p *payment.Payment) paymentResponse {
	return paymentResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		Description:          p.Description,
		Amount:               p.Amount,
		AmountDisplay:        money.Format(p.Amount),
		DueDate:              calendar.Format(p.DueDate),
		IsRecurring:          p.IsRecurring,
		RecurrencePeriod:     p.RecurrencePeriod,
		RemainingOccurrences: p.RemainingOccurrences,
		IsPaid:               p.IsPaid,
		IsPaused:             p.IsPaused,
		PaidDate:             p.PaidDate,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func toResponseList(payments []*payment.Payment) []paymentResponse {
	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toResponse(p)
	}

	return resp
}

func toHistoryResponse(e *payment.HistoryEntry) historyEntryResponse {
	return historyEntryResponse{
		ID:            e.ID,
		PaymentID:     e.PaymentID,
		Amount:        e.Amount,
		AmountDisplay: money.Format(e.Amount),
		DueDate:       calendar.Format(e.DueDate),
		PaidDate:      e.PaidDate,
	}
}

func toHistoryResponseList(entries []*payment.HistoryEntry) []historyEntryResponse {
	resp := make([]historyEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toHistoryResponse(e)
	}

	return resp
}

func toScheduleResponse(months []calendar.Month) scheduleResponse {
	resp := scheduleResponse{Months: make([]string, len(months))}
	for i, m := range months {
		resp.Months[i] = m.String()
	}

	return resp
}
