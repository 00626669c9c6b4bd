package payment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/household/internal/calendar"
	"github.com/MrJamesThe3rd/household/internal/family"
	paymentHandler "github.com/MrJamesThe3rd/household/internal/http/payment"
	"github.com/MrJamesThe3rd/household/internal/payment"
)

var (
	familyID  = uuid.MustParse("0d9c8b7a-6f5e-4d3c-8b2a-1f0e9d8c7b6a")
	paymentID = uuid.MustParse("5a4b3c2d-1e0f-4a9b-8c7d-6e5f4a3b2c1d")
	fixedNow  = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
)

// newServer mounts the handler the way the router does. withFamily controls
// whether requests carry a family session.
func newServer(t *testing.T, repo *payment.MockRepository, withFamily bool) *httptest.Server {
	t.Helper()

	svc := payment.NewService(repo, payment.WithClock(func() time.Time { return fixedNow }))
	h := paymentHandler.NewHandler(svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s := family.NewSession()
			if withFamily {
				s.Set(uuid.New(), &familyID)
			}

			next.ServeHTTP(w, req.WithContext(family.NewContext(req.Context(), s)))
		})
	})
	r.Route("/payments", h.Routes)
	r.Route("/history", h.HistoryRoutes)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
	}

	return resp, decoded
}

func passThroughTx(m *payment.MockRepository) {
	m.EXPECT().
		InTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fn func(payment.Repository) error) error {
			return fn(m)
		})
}

func monthly(due time.Time) *payment.Payment {
	return &payment.Payment{
		ID:               paymentID,
		FamilyID:         familyID,
		Name:             "Rent",
		Amount:           6500000,
		DueDate:          due,
		IsRecurring:      true,
		RecurrencePeriod: new(payment.PeriodMonthly),
	}
}

func TestHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(m *payment.MockRepository)
		wantStatus int
	}{
		{
			name: "Success",
			body: `{"name":"Rent","amount":6500000,"due_date":"2025-07-01","is_recurring":true,"recurrence_period":"monthly"}`,
			setupMock: func(m *payment.MockRepository) {
				m.EXPECT().
					CreatePayment(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p *payment.Payment) error {
						p.ID = paymentID
						return nil
					})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "InvalidJSON",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "ZeroAmount",
			body:       `{"name":"Rent","amount":0,"due_date":"2025-07-01"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "BadDate",
			body:       `{"name":"Rent","amount":100,"due_date":"01.07.2025"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "UnknownPeriod",
			body:       `{"name":"Rent","amount":100,"due_date":"2025-07-01","is_recurring":true,"recurrence_period":"weekly"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "LimitedWithoutCount",
			body:       `{"name":"Loan","amount":100,"due_date":"2025-07-01","is_recurring":true,"recurrence_period":"limited"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := payment.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			srv := newServer(t, repo, true)
			resp, body := do(t, srv, http.MethodPost, "/payments/", tt.body)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, paymentID.String(), body["id"])
				assert.Equal(t, "2025-07-01", body["due_date"])
				assert.Equal(t, "65.000 RSD", body["amount_display"])
			}
		})
	}
}

func TestHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		withFamily bool
		setupMock  func(m *payment.MockRepository)
		wantStatus int
	}{
		{
			name:       "NoFamily",
			method:     http.MethodPost,
			path:       "/payments/" + paymentID.String() + "/pay",
			withFamily: false,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "InvalidID",
			method:     http.MethodGet,
			path:       "/payments/not-a-uuid",
			withFamily: true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "NotFound",
			method:     http.MethodGet,
			path:       "/payments/" + paymentID.String(),
			withFamily: true,
			setupMock: func(m *payment.MockRepository) {
				m.EXPECT().GetPayment(gomock.Any(), familyID, paymentID).Return(nil, payment.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "UndoWithoutHistory",
			method:     http.MethodPost,
			path:       "/payments/" + paymentID.String() + "/undo",
			withFamily: true,
			setupMock: func(m *payment.MockRepository) {
				passThroughTx(m)
				m.EXPECT().GetPayment(gomock.Any(), familyID, paymentID).Return(monthly(calendar.Date(2025, 7, 1)), nil)
				m.EXPECT().LatestHistoryEntry(gomock.Any(), familyID, paymentID).Return(nil, nil)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "StoreFailure",
			method:     http.MethodDelete,
			path:       "/payments/" + paymentID.String(),
			withFamily: true,
			setupMock: func(m *payment.MockRepository) {
				m.EXPECT().DeletePayment(gomock.Any(), familyID, paymentID).Return(assert.AnError)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "Delete",
			method:     http.MethodDelete,
			path:       "/payments/" + paymentID.String(),
			withFamily: true,
			setupMock: func(m *payment.MockRepository) {
				m.EXPECT().DeletePayment(gomock.Any(), familyID, paymentID).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "HistoryBadMonth",
			method:     http.MethodGet,
			path:       "/history/?month=2025-13",
			withFamily: true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "ListBadFlag",
			method:     http.MethodGet,
			path:       "/payments/?hide_paid=maybe",
			withFamily: true,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := payment.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			srv := newServer(t, repo, tt.withFamily)
			resp, _ := do(t, srv, tt.method, tt.path, "")

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestHandler_MarkAsPaid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	passThroughTx(repo)
	repo.EXPECT().GetPayment(gomock.Any(), familyID, paymentID).Return(monthly(calendar.Date(2025, 1, 31)), nil)
	repo.EXPECT().CreateHistoryEntry(gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().UpdatePayment(gomock.Any(), gomock.Any()).Return(nil)

	srv := newServer(t, repo, true)
	resp, body := do(t, srv, http.MethodPost, "/payments/"+paymentID.String()+"/pay", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2025-02-28", body["due_date"])
	assert.Equal(t, false, body["is_paid"])
}

func TestHandler_TogglePause(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	paused := monthly(calendar.Date(2025, 3, 31))
	paused.IsPaused = true

	repo := payment.NewMockRepository(ctrl)
	passThroughTx(repo)
	repo.EXPECT().GetPayment(gomock.Any(), familyID, paymentID).Return(paused, nil)
	repo.EXPECT().UpdatePayment(gomock.Any(), gomock.Any()).Return(nil)

	srv := newServer(t, repo, true)
	resp, body := do(t, srv, http.MethodPost, "/payments/"+paymentID.String()+"/pause", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["is_paused"])
	assert.Equal(t, "2025-06-30", body["due_date"])
}

func TestHandler_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	passThroughTx(repo)
	repo.EXPECT().GetPayment(gomock.Any(), familyID, paymentID).Return(monthly(calendar.Date(2025, 7, 1)), nil)
	repo.EXPECT().
		UpdatePayment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p *payment.Payment) error {
			assert.Equal(t, int64(7000000), p.Amount)
			assert.Equal(t, calendar.Date(2025, 7, 5), p.DueDate)
			return nil
		})

	srv := newServer(t, repo, true)
	resp, body := do(t, srv, http.MethodPatch, "/payments/"+paymentID.String(), `{"amount":7000000,"due_date":"2025-07-05"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "70.000 RSD", body["amount_display"])
}

func TestHandler_HistoryExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	repo.EXPECT().HasHistory(gomock.Any(), familyID, paymentID).Return(true, nil)

	srv := newServer(t, repo, true)
	resp, body := do(t, srv, http.MethodGet, "/payments/"+paymentID.String()+"/history/exists", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["has_history"])
}

func TestHandler_Schedule(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	limited := monthly(calendar.Date(2025, 11, 10))
	limited.RecurrencePeriod = new(payment.PeriodLimited)
	limited.RemainingOccurrences = new(2)

	repo := payment.NewMockRepository(ctrl)
	repo.EXPECT().GetPayment(gomock.Any(), familyID, paymentID).Return(limited, nil)

	srv := newServer(t, repo, true)
	resp, body := do(t, srv, http.MethodGet, "/payments/"+paymentID.String()+"/schedule", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"2025-11", "2025-12"}, body["months"])
}
