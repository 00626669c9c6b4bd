package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/household/internal/calendar"
	"github.com/MrJamesThe3rd/household/internal/export"
	"github.com/MrJamesThe3rd/household/internal/money"
	"github.com/MrJamesThe3rd/household/internal/payment"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.metadata)
	r.Get("/csv", h.csv)
	r.Get("/download", h.download)
}

type itemResponse struct {
	PaymentName   string `json:"payment_name"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	DueDate       string `json:"due_date"`
	PaidDate      string `json:"paid_date"`
}

type exportMetadataResponse struct {
	Month   string         `json:"month"`
	Items   []itemResponse `json:"items"`
	Summary string         `json:"summary"`
}

func toItemResponse(item export.Item) itemResponse {
	return itemResponse{
		PaymentName:   item.PaymentName,
		Amount:        item.Entry.Amount,
		AmountDisplay: money.Format(item.Entry.Amount),
		DueDate:       calendar.Format(item.Entry.DueDate),
		PaidDate:      item.Entry.PaidDate.Format(time.RFC3339),
	}
}

// load parses the required month query parameter and exports it. It writes
// the error response itself and reports whether the handler may continue.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (calendar.Month, []export.Item, bool) {
	month, err := calendar.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		http.Error(w, "month is required, use YYYY-MM", http.StatusBadRequest)
		return calendar.Month{}, nil, false
	}

	items, err := h.svc.Export(r.Context(), month)
	if err != nil {
		if errors.Is(err, payment.ErrNoFamily) {
			http.Error(w, "no family selected", http.StatusForbidden)
		} else {
			slog.Error("export failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return month, nil, false
	}

	return month, items, true
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	month, items, ok := h.load(w, r)
	if !ok {
		return
	}

	resp := exportMetadataResponse{
		Month:   month.String(),
		Items:   make([]itemResponse, 0, len(items)),
		Summary: h.svc.GenerateSummary(month, items),
	}

	for _, item := range items {
		resp.Items = append(resp.Items, toItemResponse(item))
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) csv(w http.ResponseWriter, r *http.Request) {
	month, items, ok := h.load(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "history_"+month.String()+".csv"))

	if err := export.WriteCSV(w, items); err != nil {
		slog.Error("failed to write csv", "error", err)
	}
}

// download bundles the month's CSV and text summary into one zip archive.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	month, items, ok := h.load(w, r)
	if !ok {
		return
	}

	var sheet bytes.Buffer
	if err := export.WriteCSV(&sheet, items); err != nil {
		slog.Error("failed to write csv", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	files := []struct {
		name string
		body []byte
	}{
		{name: "history_" + month.String() + ".csv", body: sheet.Bytes()},
		{name: "summary.txt", body: []byte(h.svc.GenerateSummary(month, items))},
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "payments_"+month.String()+".zip"))

	zipWriter := zip.NewWriter(w)
	defer zipWriter.Close()

	for _, f := range files {
		zf, err := zipWriter.Create(f.name)
		if err != nil {
			slog.Error("failed to create zip", "error", err)
			return
		}

		if _, err := zf.Write(f.body); err != nil {
			slog.Error("failed to create zip", "error", err)
			return
		}
	}
}
