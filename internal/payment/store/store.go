package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/household/internal/calendar"
	"github.com/MrJamesThe3rd/household/internal/payment"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ payment.Repository = (*Store)(nil)

type Store struct {
	db *sql.DB
	q  querier
	tx bool
}

func New(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// InTx runs fn inside a database transaction. Payments read through the
// transactional store are locked until it commits. Nested calls reuse the
// outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(payment.Repository) error) error {
	if s.tx {
		return fn(s)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := fn(&Store{db: s.db, q: dbTx, tx: true}); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Expected column order: id, family_id, name, description, amount, due_date, is_recurring,
// recurrence_period, remaining_occurrences, is_paid, is_paused, paid_date, created_at, updated_at
func scanPayment(s scanner) (*payment.Payment, error) {
	var p payment.Payment

	var description, period sql.NullString

	var remaining sql.NullInt32

	if err := s.Scan(
		&p.ID, &p.FamilyID, &p.Name, &description, &p.Amount, &p.DueDate, &p.IsRecurring,
		&period, &remaining, &p.IsPaid, &p.IsPaused, &p.PaidDate, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.DueDate = calendar.DateOf(p.DueDate)

	if description.Valid {
		p.Description = &description.String
	}

	if period.Valid {
		p.RecurrencePeriod = new(payment.RecurrencePeriod(period.String))
	}

	if remaining.Valid {
		p.RemainingOccurrences = new(int(remaining.Int32))
	}

	return &p, nil
}

const selectPaymentColumns = `
	id, family_id, name, description, amount, due_date, is_recurring,
	recurrence_period, remaining_occurrences, is_paid, is_paused, paid_date, created_at, updated_at
`

func nullPeriod(p *payment.RecurrencePeriod) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: string(*p), Valid: true}
}

func nullInt(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}

	return sql.NullInt32{Int32: int32(*v), Valid: true}
}

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (family_id, name, description, amount, due_date, is_recurring,
			recurrence_period, remaining_occurrences, is_paid, is_paused, paid_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING id, created_at
	`

	err := s.q.QueryRowContext(ctx, query,
		p.FamilyID,
		p.Name,
		p.Description,
		p.Amount,
		p.DueDate,
		p.IsRecurring,
		nullPeriod(p.RecurrencePeriod),
		nullInt(p.RemainingOccurrences),
		p.IsPaid,
		p.IsPaused,
		p.PaidDate,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating payment: %w", err)
	}

	return nil
}

func (s *Store) GetPayment(ctx context.Context, familyID, id uuid.UUID) (*payment.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + `
		FROM payments
		WHERE id = $1 AND family_id = $2`

	if s.tx {
		query += " FOR UPDATE"
	}

	p, err := scanPayment(s.q.QueryRowContext(ctx, query, id, familyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrNotFound
		}

		return nil, fmt.Errorf("getting payment: %w", err)
	}

	return p, nil
}

func (s *Store) ListPayments(ctx context.Context, familyID uuid.UUID, filter payment.ListFilter) ([]*payment.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + `
		FROM payments
		WHERE family_id = $1`

	if filter.HidePaid {
		query += " AND is_paid = FALSE"
	}

	query += " ORDER BY due_date ASC, name ASC"

	rows, err := s.q.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}

		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payments: %w", err)
	}

	return payments, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p *payment.Payment) error {
	query := `
		UPDATE payments
		SET name = $1, description = $2, amount = $3, due_date = $4, is_recurring = $5,
			recurrence_period = $6, remaining_occurrences = $7, is_paid = $8, is_paused = $9,
			paid_date = $10, updated_at = NOW()
		WHERE id = $11 AND family_id = $12
		RETURNING updated_at
	`

	err := s.q.QueryRowContext(ctx, query,
		p.Name,
		p.Description,
		p.Amount,
		p.DueDate,
		p.IsRecurring,
		nullPeriod(p.RecurrencePeriod),
		nullInt(p.RemainingOccurrences),
		p.IsPaid,
		p.IsPaused,
		p.PaidDate,
		p.ID,
		p.FamilyID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payment.ErrNotFound
		}

		return fmt.Errorf("updating payment: %w", err)
	}

	return nil
}

// DeletePayment removes the payment. Its history goes with it through the
// foreign key cascade.
func (s *Store) DeletePayment(ctx context.Context, familyID, id uuid.UUID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM payments WHERE id = $1 AND family_id = $2`, id, familyID)
	if err != nil {
		return fmt.Errorf("deleting payment: %w", err)
	}

	return expectOne(res)
}

func (s *Store) CreateHistoryEntry(ctx context.Context, e *payment.HistoryEntry) error {
	query := `
		INSERT INTO payment_history (payment_id, family_id, amount, due_date, paid_date, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`

	err := s.q.QueryRowContext(ctx, query,
		e.PaymentID,
		e.FamilyID,
		e.Amount,
		e.DueDate,
		e.PaidDate,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating history entry: %w", err)
	}

	return nil
}

const selectHistoryColumns = `id, payment_id, family_id, amount, due_date, paid_date, created_at`

func scanHistoryEntry(s scanner) (*payment.HistoryEntry, error) {
	var e payment.HistoryEntry

	if err := s.Scan(&e.ID, &e.PaymentID, &e.FamilyID, &e.Amount, &e.DueDate, &e.PaidDate, &e.CreatedAt); err != nil {
		return nil, err
	}

	e.DueDate = calendar.DateOf(e.DueDate)

	return &e, nil
}

// LatestHistoryEntry returns the entry with the latest paid date, or nil
// when the payment has none.
func (s *Store) LatestHistoryEntry(ctx context.Context, familyID, paymentID uuid.UUID) (*payment.HistoryEntry, error) {
	query := `SELECT ` + selectHistoryColumns + `
		FROM payment_history
		WHERE payment_id = $1 AND family_id = $2
		ORDER BY paid_date DESC, created_at DESC
		LIMIT 1`

	e, err := scanHistoryEntry(s.q.QueryRowContext(ctx, query, paymentID, familyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting latest history entry: %w", err)
	}

	return e, nil
}

func (s *Store) DeleteHistoryEntry(ctx context.Context, familyID, id uuid.UUID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM payment_history WHERE id = $1 AND family_id = $2`, id, familyID)
	if err != nil {
		return fmt.Errorf("deleting history entry: %w", err)
	}

	return expectOne(res)
}

func (s *Store) HasHistory(ctx context.Context, familyID, paymentID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM payment_history WHERE payment_id = $1 AND family_id = $2)`

	var exists bool
	if err := s.q.QueryRowContext(ctx, query, paymentID, familyID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking history: %w", err)
	}

	return exists, nil
}

func (s *Store) ListHistory(ctx context.Context, familyID uuid.UUID, filter payment.HistoryFilter) ([]*payment.HistoryEntry, error) {
	query := `SELECT ` + selectHistoryColumns + `
		FROM payment_history
		WHERE family_id = $1`

	args := []any{familyID}
	argIdx := 2

	if filter.Month != nil {
		query += fmt.Sprintf(" AND due_date >= $%d AND due_date < $%d", argIdx, argIdx+1)

		args = append(args, filter.Month.Start(), filter.Month.End())
		argIdx += 2
	}

	if filter.PaymentID != nil {
		query += fmt.Sprintf(" AND payment_id = $%d", argIdx)

		args = append(args, *filter.PaymentID)
	}

	query += " ORDER BY due_date ASC, paid_date ASC"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []*payment.HistoryEntry

	for rows.Next() {
		e, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}

	return entries, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return payment.ErrNotFound
	}

	return nil
}
