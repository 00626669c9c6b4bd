package payment

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/household/internal/calendar"
	"github.com/MrJamesThe3rd/household/internal/payment"
)

type Handler struct {
	svc      *payment.Service
	validate *validator.Validate
}

func NewHandler(svc *payment.Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/pay", h.markAsPaid)
	r.Post("/{id}/undo", h.undo)
	r.Post("/{id}/pause", h.togglePause)
	r.Get("/{id}/history/latest", h.latestHistory)
	r.Get("/{id}/history/exists", h.hasHistory)
	r.Get("/{id}/schedule", h.schedule)
}

// HistoryRoutes serves the family-wide payment history.
func (h *Handler) HistoryRoutes(r chi.Router) {
	r.Get("/", h.history)
}

type createPaymentRequest struct {
	Name                 string                    `json:"name" validate:"required,max=200"`
	Description          *string                   `json:"description" validate:"omitempty,max=1000"`
	Amount               int64                     `json:"amount" validate:"gt=0"`
	DueDate              string                    `json:"due_date" validate:"required,datetime=2006-01-02"`
	IsRecurring          bool                      `json:"is_recurring"`
	RecurrencePeriod     *payment.RecurrencePeriod `json:"recurrence_period" validate:"omitempty,oneof=one-time monthly limited"`
	RemainingOccurrences *int                      `json:"remaining_occurrences" validate:"omitempty,min=0"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	due, err := calendar.Parse(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.svc.Create(r.Context(), payment.CreateParams{
		Name:                 req.Name,
		Description:          req.Description,
		Amount:               req.Amount,
		DueDate:              due,
		IsRecurring:          req.IsRecurring,
		RecurrencePeriod:     req.RecurrencePeriod,
		RemainingOccurrences: req.RemainingOccurrences,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(p))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := payment.ListFilter{}

	if s := r.URL.Query().Get("hide_paid"); s != "" {
		hide, err := strconv.ParseBool(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid hide_paid")
			return
		}

		filter.HidePaid = hide
	}

	payments, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(payments))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

type updatePaymentRequest struct {
	Name                 *string                   `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description          *string                   `json:"description,omitempty" validate:"omitempty,max=1000"`
	Amount               *int64                    `json:"amount,omitempty" validate:"omitempty,gt=0"`
	DueDate              *string                   `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsRecurring          *bool                     `json:"is_recurring,omitempty"`
	RecurrencePeriod     *payment.RecurrencePeriod `json:"recurrence_period,omitempty" validate:"omitempty,oneof=one-time monthly limited"`
	RemainingOccurrences *int                      `json:"remaining_occurrences,omitempty" validate:"omitempty,min=0"`
	IsPaused             *bool                     `json:"is_paused,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updatePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	params := payment.UpdateParams{
		Name:                 req.Name,
		Description:          req.Description,
		Amount:               req.Amount,
		IsRecurring:          req.IsRecurring,
		RecurrencePeriod:     req.RecurrencePeriod,
		RemainingOccurrences: req.RemainingOccurrences,
		IsPaused:             req.IsPaused,
	}

	if req.DueDate != nil {
		due, err := calendar.Parse(*req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		params.DueDate = &due
	}

	p, err := h.svc.Update(r.Context(), id, params)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAsPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.MarkAsPaid(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) undo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.UndoLastPayment(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) togglePause(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.TogglePause(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) latestHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	e, err := h.svc.LastHistoryEntry(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toHistoryResponse(e))
}

func (h *Handler) hasHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, hasHistoryResponse{HasHistory: h.svc.HasHistory(r.Context(), id)})
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	months, err := h.svc.Schedule(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toScheduleResponse(months))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	filter := payment.HistoryFilter{}

	if s := r.URL.Query().Get("month"); s != "" {
		month, err := calendar.ParseMonth(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month, use YYYY-MM")
			return
		}

		filter.Month = &month
	}

	if s := r.URL.Query().Get("payment_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid payment_id")
			return
		}

		filter.PaymentID = &id
	}

	entries, err := h.svc.History(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toHistoryResponseList(entries))
}

// decode reads the JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}

	return true
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}

	return id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrNoFamily):
		writeError(w, http.StatusForbidden, "no family selected")
	case errors.Is(err, payment.ErrNotFound):
		writeError(w, http.StatusNotFound, "payment not found")
	case errors.Is(err, payment.ErrNoHistory):
		writeError(w, http.StatusConflict, "payment has no history to undo")
	case errors.Is(err, payment.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("payment request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
