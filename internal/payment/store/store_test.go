package store_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/household/internal/calendar"
	"github.com/MrJamesThe3rd/household/internal/database"
	"github.com/MrJamesThe3rd/household/internal/family"
	"github.com/MrJamesThe3rd/household/internal/payment"
	"github.com/MrJamesThe3rd/household/internal/payment/store"
)

// openDB connects to the database named by HOUSEHOLD_TEST_DATABASE_URL and
// skips the test when it is unset.
func openDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("HOUSEHOLD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("HOUSEHOLD_TEST_DATABASE_URL not set")
	}

	db, err := database.New(url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))

	return db
}

func TestStore_Lifecycle(t *testing.T) {
	db := openDB(t)
	s := store.New(db)
	ctx := context.Background()

	familyID := uuid.New()
	t.Cleanup(func() {
		db.Exec(`DELETE FROM payments WHERE family_id = $1`, familyID)
	})

	p := &payment.Payment{
		FamilyID:             familyID,
		Name:                 "Internet",
		Amount:               249900,
		DueDate:              calendar.Date(2025, time.January, 31),
		IsRecurring:          true,
		RecurrencePeriod:     new(payment.PeriodLimited),
		RemainingOccurrences: new(2),
	}
	require.NoError(t, s.CreatePayment(ctx, p))
	require.NotEqual(t, uuid.Nil, p.ID)

	got, err := s.GetPayment(ctx, familyID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.DueDate, got.DueDate)
	assert.Equal(t, payment.PeriodLimited, got.Period())
	assert.Equal(t, 2, *got.RemainingOccurrences)
	assert.Nil(t, got.Description)

	_, err = s.GetPayment(ctx, uuid.New(), p.ID)
	assert.ErrorIs(t, err, payment.ErrNotFound)

	latest, err := s.LatestHistoryEntry(ctx, familyID, p.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	svc := payment.NewService(s, payment.WithClock(func() time.Time {
		return time.Date(2025, time.February, 1, 8, 0, 0, 0, time.UTC)
	}))

	sess := family.NewSession()
	sess.Set(uuid.New(), &familyID)
	fctx := family.NewContext(ctx, sess)

	paid, err := svc.MarkAsPaid(fctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2025, time.February, 28), paid.DueDate)

	has, err := s.HasHistory(ctx, familyID, p.ID)
	require.NoError(t, err)
	assert.True(t, has)

	month := calendar.Month{Year: 2025, Month: time.January}
	entries, err := s.ListHistory(ctx, familyID, payment.HistoryFilter{Month: &month})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, calendar.Date(2025, time.January, 31), entries[0].DueDate)

	undone, err := svc.UndoLastPayment(fctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2025, time.January, 28), undone.DueDate)
	assert.Equal(t, 2, *undone.RemainingOccurrences)

	_, err = svc.UndoLastPayment(fctx, p.ID)
	assert.ErrorIs(t, err, payment.ErrNoHistory)

	require.NoError(t, s.DeletePayment(ctx, familyID, p.ID))
	assert.ErrorIs(t, s.DeletePayment(ctx, familyID, p.ID), payment.ErrNotFound)
}
