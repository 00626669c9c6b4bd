package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/household/internal/calendar"
	"github.com/MrJamesThe3rd/household/internal/family"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=payment
type Repository interface {
	CreatePayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, familyID, id uuid.UUID) (*Payment, error)
	ListPayments(ctx context.Context, familyID uuid.UUID, filter ListFilter) ([]*Payment, error)
	UpdatePayment(ctx context.Context, p *Payment) error
	DeletePayment(ctx context.Context, familyID, id uuid.UUID) error

	CreateHistoryEntry(ctx context.Context, e *HistoryEntry) error
	LatestHistoryEntry(ctx context.Context, familyID, paymentID uuid.UUID) (*HistoryEntry, error)
	DeleteHistoryEntry(ctx context.Context, familyID, id uuid.UUID) error
	HasHistory(ctx context.Context, familyID, paymentID uuid.UUID) (bool, error)
	ListHistory(ctx context.Context, familyID uuid.UUID, filter HistoryFilter) ([]*HistoryEntry, error)

	// InTx runs fn against a repository whose calls share one unit of work.
	// Stores without transactions may run fn directly against themselves.
	InTx(ctx context.Context, fn func(Repository) error) error
}

// scheduleHorizon is how many months Schedule lists for open-ended payments.
const scheduleHorizon = 12

type Service struct {
	repo Repository
	now  func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now. The clock's location decides what "today" is.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateParams struct {
	Name                 string
	Description          *string
	Amount               int64
	DueDate              time.Time
	IsRecurring          bool
	RecurrencePeriod     *RecurrencePeriod
	RemainingOccurrences *int
}

// UpdateParams holds a partial update. Nil fields are left unchanged; an
// empty Description clears it.
type UpdateParams struct {
	Name                 *string
	Description          *string
	Amount               *int64
	DueDate              *time.Time
	IsRecurring          *bool
	RecurrencePeriod     *RecurrencePeriod
	RemainingOccurrences *int
	IsPaused             *bool
}

type ListFilter struct {
	HidePaid bool
}

type HistoryFilter struct {
	Month     *calendar.Month
	PaymentID *uuid.UUID
}

func familyID(ctx context.Context) (uuid.UUID, error) {
	id, ok := family.IDFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrNoFamily
	}

	return id, nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Payment, error) {
	fid, err := familyID(ctx)
	if err != nil {
		return nil, err
	}

	p, err := newPayment(fid, params)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return nil, storeErr("creating payment", err)
	}

	return p, nil
}

// CreateBatch validates every params entry before creating any, then creates
// them all in one unit of work.
func (s *Service) CreateBatch(ctx context.Context, params []CreateParams) ([]*Payment, error) {
	fid, err := familyID(ctx)
	if err != nil {
		return nil, err
	}

	if len(params) == 0 {
		return nil, nil
	}

	payments := make([]*Payment, len(params))

	for i, pp := range params {
		p, err := newPayment(fid, pp)
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", i+1, err)
		}

		payments[i] = p
	}

	err = s.repo.InTx(ctx, func(repo Repository) error {
		for _, p := range payments {
			if err := repo.CreatePayment(ctx, p); err != nil {
				return storeErr("creating payment", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, storeErr("creating payments", err)
	}

	return payments, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	fid, err := familyID(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.GetPayment(ctx, fid, id)
	if err != nil {
		return nil, storeErr("loading payment", err)
	}

	return p, nil
}

// List returns the family's payments ordered by due date. Without a family
// there is nothing to list.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Payment, error) {
	fid, err := familyID(ctx)
	if err != nil {
		return nil, nil
	}

	payments, err := s.repo.ListPayments(ctx, fid, filter)
	if err != nil {
		return nil, storeErr("listing payments", err)
	}

	return payments, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Payment, error) {
	fid, err := familyID(ctx)
	if err != nil {
		return nil, err
	}

	var updated *Payment

	err = s.repo.InTx(ctx, func(repo Repository) error {
		p, err := repo.GetPayment(ctx, fid, id)
		if err != nil {
			return storeErr("loading payment", err)
		}

		if err := applyUpdate(p, params); err != nil {
			return err
		}

		if err := repo.UpdatePayment(ctx, p); err != nil {
			return storeErr("updating payment", err)
		}

		updated = p

		return nil
	})
	if err != nil {
		return nil, storeErr("updating payment", err)
	}

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	fid, err := familyID(ctx)
	if err != nil {
		return err
	}

	return storeErr("deleting payment", s.repo.DeletePayment(ctx, fid, id))
}

// History returns settled occurrences ordered by due date.
func (s *Service) History(ctx context.Context, filter HistoryFilter) ([]*HistoryEntry, error) {
	fid, err := familyID(ctx)
	if err != nil {
		return nil, nil
	}

	entries, err := s.repo.ListHistory(ctx, fid, filter)
	if err != nil {
		return nil, storeErr("listing history", err)
	}

	return entries, nil
}

// HasHistory reports whether the payment has anything to undo. Failures read
// as false.
func (s *Service) HasHistory(ctx context.Context, id uuid.UUID) bool {
	fid, err := familyID(ctx)
	if err != nil {
		return false
	}

	return NewLedger(s.repo).HasAny(ctx, fid, id)
}

// LastHistoryEntry returns the entry the next undo would remove.
func (s *Service) LastHistoryEntry(ctx context.Context, id uuid.UUID) (*HistoryEntry, error) {
	fid, err := familyID(ctx)
	if err != nil {
		return nil, err
	}

	e, err := NewLedger(s.repo).MostRecent(ctx, fid, id)
	if err != nil {
		return nil, err
	}

	if e == nil {
		return nil, ErrNoHistory
	}

	return e, nil
}

// Schedule lists the months of the payment's upcoming occurrences: the
// remaining budget of a limited payment, a year ahead for a monthly one, and
// the single due month of an unpaid one-time payment.
func (s *Service) Schedule(ctx context.Context, id uuid.UUID) ([]calendar.Month, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.IsPaid {
		return nil, nil
	}

	switch p.Period() {
	case PeriodMonthly:
		return calendar.Occurrences(p.DueDate, scheduleHorizon), nil
	case PeriodLimited:
		if p.RemainingOccurrences == nil {
			return calendar.Occurrences(p.DueDate, 1), nil
		}

		return calendar.Occurrences(p.DueDate, *p.RemainingOccurrences), nil
	default:
		return calendar.Occurrences(p.DueDate, 1), nil
	}
}

func newPayment(familyID uuid.UUID, params CreateParams) (*Payment, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, invalid("name is required")
	}

	if params.Amount <= 0 {
		return nil, invalid("amount must be positive")
	}

	if params.DueDate.IsZero() {
		return nil, invalid("due date is required")
	}

	period, remaining, err := normalizeRecurrence(params.IsRecurring, params.RecurrencePeriod, params.RemainingOccurrences, 1)
	if err != nil {
		return nil, err
	}

	return &Payment{
		FamilyID:             familyID,
		Name:                 name,
		Description:          normalizeDescription(params.Description),
		Amount:               params.Amount,
		DueDate:              calendar.DateOf(params.DueDate),
		IsRecurring:          params.IsRecurring,
		RecurrencePeriod:     period,
		RemainingOccurrences: remaining,
	}, nil
}

func applyUpdate(p *Payment, params UpdateParams) error {
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" {
			return invalid("name is required")
		}

		p.Name = name
	}

	if params.Description != nil {
		p.Description = normalizeDescription(params.Description)
	}

	if params.Amount != nil {
		if *params.Amount <= 0 {
			return invalid("amount must be positive")
		}

		p.Amount = *params.Amount
	}

	if params.DueDate != nil {
		if params.DueDate.IsZero() {
			return invalid("due date is required")
		}

		p.DueDate = calendar.DateOf(*params.DueDate)
	}

	if params.IsPaused != nil {
		p.IsPaused = *params.IsPaused
	}

	if params.IsRecurring == nil && params.RecurrencePeriod == nil && params.RemainingOccurrences == nil {
		return nil
	}

	if params.IsRecurring != nil {
		p.IsRecurring = *params.IsRecurring
	}

	period := p.RecurrencePeriod
	if params.RecurrencePeriod != nil {
		period = params.RecurrencePeriod
	}

	remaining := p.RemainingOccurrences
	if params.RemainingOccurrences != nil {
		remaining = params.RemainingOccurrences
	}

	period, remaining, err := normalizeRecurrence(p.IsRecurring, period, remaining, 0)
	if err != nil {
		return err
	}

	p.RecurrencePeriod = period
	p.RemainingOccurrences = remaining

	return nil
}

// normalizeRecurrence checks the recurrence fields together. Non-recurring
// payments are stored as one-time and only limited payments keep a remaining
// count, which must be at least minRemaining.
func normalizeRecurrence(recurring bool, period *RecurrencePeriod, remaining *int, minRemaining int) (*RecurrencePeriod, *int, error) {
	if !recurring {
		return new(PeriodOneTime), nil, nil
	}

	if period == nil {
		return nil, nil, invalid("recurring payment needs a recurrence period")
	}

	if !period.Valid() {
		return nil, nil, invalid("unknown recurrence period %q", *period)
	}

	if *period != PeriodLimited {
		return new(*period), nil, nil
	}

	if remaining == nil || *remaining < minRemaining {
		return nil, nil, invalid("limited payment needs at least %d remaining occurrences", minRemaining)
	}

	return new(*period), new(*remaining), nil
}

func normalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*d)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}
