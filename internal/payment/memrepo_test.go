package payment_test

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/household/internal/family"
	"github.com/MrJamesThe3rd/household/internal/payment"
)

// memRepo is an in-memory Repository that counts every call and can be told
// to fail a named method.
type memRepo struct {
	payments map[uuid.UUID]payment.Payment
	history  []payment.HistoryEntry
	calls    map[string]int
	fail     map[string]error
}

func newMemRepo() *memRepo {
	return &memRepo{
		payments: make(map[uuid.UUID]payment.Payment),
		calls:    make(map[string]int),
		fail:     make(map[string]error),
	}
}

func (r *memRepo) totalCalls() int {
	n := 0
	for _, c := range r.calls {
		n += c
	}

	return n
}

func (r *memRepo) call(name string) error {
	r.calls[name]++
	return r.fail[name]
}

func clonePayment(p payment.Payment) payment.Payment {
	if p.RemainingOccurrences != nil {
		p.RemainingOccurrences = new(*p.RemainingOccurrences)
	}

	if p.RecurrencePeriod != nil {
		p.RecurrencePeriod = new(*p.RecurrencePeriod)
	}

	if p.PaidDate != nil {
		p.PaidDate = new(*p.PaidDate)
	}

	if p.Description != nil {
		p.Description = new(*p.Description)
	}

	return p
}

// put stores p directly, bypassing call counting.
func (r *memRepo) put(p payment.Payment) *payment.Payment {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	r.payments[p.ID] = clonePayment(p)

	return &p
}

// get reads a payment directly, bypassing call counting.
func (r *memRepo) get(id uuid.UUID) payment.Payment {
	return clonePayment(r.payments[id])
}

func (r *memRepo) historyFor(paymentID uuid.UUID) []payment.HistoryEntry {
	var out []payment.HistoryEntry

	for _, e := range r.history {
		if e.PaymentID == paymentID {
			out = append(out, e)
		}
	}

	return out
}

func (r *memRepo) CreatePayment(_ context.Context, p *payment.Payment) error {
	if err := r.call("CreatePayment"); err != nil {
		return err
	}

	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	r.payments[p.ID] = clonePayment(*p)

	return nil
}

func (r *memRepo) GetPayment(_ context.Context, familyID, id uuid.UUID) (*payment.Payment, error) {
	if err := r.call("GetPayment"); err != nil {
		return nil, err
	}

	p, ok := r.payments[id]
	if !ok || p.FamilyID != familyID {
		return nil, payment.ErrNotFound
	}

	c := clonePayment(p)

	return &c, nil
}

func (r *memRepo) ListPayments(_ context.Context, familyID uuid.UUID, filter payment.ListFilter) ([]*payment.Payment, error) {
	if err := r.call("ListPayments"); err != nil {
		return nil, err
	}

	var out []*payment.Payment

	for _, p := range r.payments {
		if p.FamilyID != familyID || (filter.HidePaid && p.IsPaid) {
			continue
		}

		c := clonePayment(p)
		out = append(out, &c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })

	return out, nil
}

func (r *memRepo) UpdatePayment(_ context.Context, p *payment.Payment) error {
	if err := r.call("UpdatePayment"); err != nil {
		return err
	}

	existing, ok := r.payments[p.ID]
	if !ok || existing.FamilyID != p.FamilyID {
		return payment.ErrNotFound
	}

	r.payments[p.ID] = clonePayment(*p)

	return nil
}

func (r *memRepo) DeletePayment(_ context.Context, familyID, id uuid.UUID) error {
	if err := r.call("DeletePayment"); err != nil {
		return err
	}

	p, ok := r.payments[id]
	if !ok || p.FamilyID != familyID {
		return payment.ErrNotFound
	}

	delete(r.payments, id)

	kept := r.history[:0]
	for _, e := range r.history {
		if e.PaymentID != id {
			kept = append(kept, e)
		}
	}

	r.history = kept

	return nil
}

func (r *memRepo) CreateHistoryEntry(_ context.Context, e *payment.HistoryEntry) error {
	if err := r.call("CreateHistoryEntry"); err != nil {
		return err
	}

	e.ID = uuid.New()
	e.CreatedAt = e.PaidDate
	r.history = append(r.history, *e)

	return nil
}

func (r *memRepo) LatestHistoryEntry(_ context.Context, familyID, paymentID uuid.UUID) (*payment.HistoryEntry, error) {
	if err := r.call("LatestHistoryEntry"); err != nil {
		return nil, err
	}

	var latest *payment.HistoryEntry

	for i := range r.history {
		e := r.history[i]
		if e.PaymentID != paymentID || e.FamilyID != familyID {
			continue
		}

		if latest == nil || !e.PaidDate.Before(latest.PaidDate) {
			latest = &e
		}
	}

	return latest, nil
}

func (r *memRepo) DeleteHistoryEntry(_ context.Context, familyID, id uuid.UUID) error {
	if err := r.call("DeleteHistoryEntry"); err != nil {
		return err
	}

	for i, e := range r.history {
		if e.ID == id && e.FamilyID == familyID {
			r.history = append(r.history[:i], r.history[i+1:]...)
			return nil
		}
	}

	return payment.ErrNotFound
}

func (r *memRepo) HasHistory(_ context.Context, familyID, paymentID uuid.UUID) (bool, error) {
	if err := r.call("HasHistory"); err != nil {
		return false, err
	}

	for _, e := range r.history {
		if e.PaymentID == paymentID && e.FamilyID == familyID {
			return true, nil
		}
	}

	return false, nil
}

func (r *memRepo) ListHistory(_ context.Context, familyID uuid.UUID, filter payment.HistoryFilter) ([]*payment.HistoryEntry, error) {
	if err := r.call("ListHistory"); err != nil {
		return nil, err
	}

	var out []*payment.HistoryEntry

	for i := range r.history {
		e := r.history[i]
		if e.FamilyID != familyID {
			continue
		}

		if filter.Month != nil && !filter.Month.Contains(e.DueDate) {
			continue
		}

		if filter.PaymentID != nil && e.PaymentID != *filter.PaymentID {
			continue
		}

		out = append(out, &e)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })

	return out, nil
}

// InTx has no atomicity; fn runs directly against the repository.
func (r *memRepo) InTx(_ context.Context, fn func(payment.Repository) error) error {
	if err := r.call("InTx"); err != nil {
		return err
	}

	return fn(r)
}

func withFamily(familyID uuid.UUID) context.Context {
	s := family.NewSession()
	s.Set(uuid.New(), &familyID)

	return family.NewContext(context.Background(), s)
}
