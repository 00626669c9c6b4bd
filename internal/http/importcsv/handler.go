package importcsv

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/household/internal/calendar"
	"github.com/MrJamesThe3rd/household/internal/importer"
	"github.com/MrJamesThe3rd/household/internal/payment"
)

type Handler struct {
	importSvc  *importer.Service
	paymentSvc *payment.Service
}

func NewHandler(importSvc *importer.Service, paymentSvc *payment.Service) *Handler {
	return &Handler{
		importSvc:  importSvc,
		paymentSvc: paymentSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importFile)
}

type paymentResponse struct {
	ID                   uuid.UUID                 `json:"id"`
	Name                 string                    `json:"name"`
	Amount               int64                     `json:"amount"`
	DueDate              string                    `json:"due_date"`
	RecurrencePeriod     *payment.RecurrencePeriod `json:"recurrence_period,omitempty"`
	RemainingOccurrences *int                      `json:"remaining_occurrences,omitempty"`
}

type importSuccessResponse struct {
	Imported int               `json:"imported"`
	Payments []paymentResponse `json:"payments"`
}

func (h *Handler) importFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	params, err := h.importSvc.Import(importer.Format(r.FormValue("format")), file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	payments, err := h.paymentSvc.CreateBatch(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrNoFamily):
			http.Error(w, "no family selected", http.StatusForbidden)
		case errors.Is(err, payment.ErrInvalid):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			slog.Error("import failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	slog.Info("payments imported", "count", len(payments))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toSuccessResponse(payments)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func toSuccessResponse(payments []*payment.Payment) importSuccessResponse {
	responses := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, paymentResponse{
			ID:                   p.ID,
			Name:                 p.Name,
			Amount:               p.Amount,
			DueDate:              calendar.Format(p.DueDate),
			RecurrencePeriod:     p.RecurrencePeriod,
			RemainingOccurrences: p.RemainingOccurrences,
		})
	}

	return importSuccessResponse{
		Imported: len(payments),
		Payments: responses,
	}
}
