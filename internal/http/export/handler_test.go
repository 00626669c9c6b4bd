package export_test

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/household/internal/calendar"
	"github.com/MrJamesThe3rd/household/internal/export"
	"github.com/MrJamesThe3rd/household/internal/family"
	exportHandler "github.com/MrJamesThe3rd/household/internal/http/export"
	"github.com/MrJamesThe3rd/household/internal/payment"
)

func newRouter(repo payment.Repository, familyID *uuid.UUID) http.Handler {
	h := exportHandler.NewHandler(export.NewService(payment.NewService(repo)))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s := family.NewSession()
			s.Set(uuid.New(), familyID)
			next.ServeHTTP(w, req.WithContext(family.NewContext(req.Context(), s)))
		})
	})
	r.Route("/history/export", h.Routes)

	return r
}

func expectJuly(m *payment.MockRepository, familyID uuid.UUID) {
	paymentID := uuid.New()

	m.EXPECT().
		ListHistory(gomock.Any(), familyID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, f payment.HistoryFilter) ([]*payment.HistoryEntry, error) {
			if f.Month == nil || f.Month.String() != "2025-07" {
				return nil, assert.AnError
			}

			return []*payment.HistoryEntry{{
				PaymentID: paymentID,
				Amount:    874000,
				DueDate:   calendar.Date(2025, 7, 5),
				PaidDate:  time.Date(2025, 7, 4, 10, 0, 0, 0, time.UTC),
			}}, nil
		})
	m.EXPECT().
		ListPayments(gomock.Any(), familyID, payment.ListFilter{}).
		Return([]*payment.Payment{{ID: paymentID, Name: "Infostan"}}, nil)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	return rec
}

func TestHandler_CSV(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	familyID := uuid.New()
	repo := payment.NewMockRepository(ctrl)
	expectJuly(repo, familyID)

	rec := get(t, newRouter(repo, &familyID), "/history/export/csv?month=2025-07")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "history_2025-07.csv")
	assert.Equal(t,
		"payment;amount;due_date;paid_date\nInfostan;8.740;2025-07-05;2025-07-04 10:00\n",
		rec.Body.String())
}

func TestHandler_Download(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	familyID := uuid.New()
	repo := payment.NewMockRepository(ctrl)
	expectJuly(repo, familyID)

	rec := get(t, newRouter(repo, &familyID), "/history/export/download?month=2025-07")
	require.Equal(t, http.StatusOK, rec.Code)

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	names := map[string]string{}

	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)

		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()

		names[f.Name] = string(body)
	}

	assert.Contains(t, names["history_2025-07.csv"], "Infostan;8.740")
	assert.Contains(t, names["summary.txt"], "Total: 8.740 RSD (1 payments)")
}

func TestHandler_Metadata(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	familyID := uuid.New()
	repo := payment.NewMockRepository(ctrl)
	expectJuly(repo, familyID)

	rec := get(t, newRouter(repo, &familyID), "/history/export/?month=2025-07")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"payment_name":"Infostan"`)
	assert.Contains(t, rec.Body.String(), `"month":"2025-07"`)
}

func TestHandler_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	familyID := uuid.New()

	assert.Equal(t, http.StatusBadRequest, get(t, newRouter(repo, &familyID), "/history/export/csv").Code)
	assert.Equal(t, http.StatusForbidden, get(t, newRouter(repo, nil), "/history/export/csv?month=2025-07").Code)
}
