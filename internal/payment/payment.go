package payment

import (
	"time"

	"github.com/google/uuid"
)

// RecurrencePeriod is the advancement rule of a payment.
type RecurrencePeriod string

const (
	PeriodOneTime RecurrencePeriod = "one-time"
	PeriodMonthly RecurrencePeriod = "monthly"
	PeriodLimited RecurrencePeriod = "limited"
)

// Valid reports whether p is one of the known periods.
func (p RecurrencePeriod) Valid() bool {
	switch p {
	case PeriodOneTime, PeriodMonthly, PeriodLimited:
		return true
	}

	return false
}

// Payment is a recurring or one-time obligation of a family.
type Payment struct {
	ID                   uuid.UUID
	FamilyID             uuid.UUID
	Name                 string
	Description          *string
	Amount               int64     // Amount in cents
	DueDate              time.Time // Calendar date, next unpaid occurrence
	IsRecurring          bool
	RecurrencePeriod     *RecurrencePeriod
	RemainingOccurrences *int // Only meaningful for PeriodLimited
	IsPaid               bool
	IsPaused             bool
	PaidDate             *time.Time
	CreatedAt            time.Time
	UpdatedAt            *time.Time
}

// Period returns the effective recurrence period. Payments that are not
// recurring, or have no stored period, behave as one-time payments. Unknown
// stored values are returned unchanged.
func (p *Payment) Period() RecurrencePeriod {
	if !p.IsRecurring || p.RecurrencePeriod == nil {
		return PeriodOneTime
	}

	return *p.RecurrencePeriod
}

// HistoryEntry records one settled occurrence of a payment.
type HistoryEntry struct {
	ID        uuid.UUID
	PaymentID uuid.UUID
	FamilyID  uuid.UUID
	Amount    int64
	DueDate   time.Time // Due date of the settled occurrence
	PaidDate  time.Time
	CreatedAt time.Time
}
