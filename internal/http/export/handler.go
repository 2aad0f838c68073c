package export

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ascendia/internal/export"
	"github.com/MrJamesThe3rd/ascendia/internal/http/auth"
	"github.com/MrJamesThe3rd/ascendia/internal/integration"
	"github.com/MrJamesThe3rd/ascendia/internal/investec"
)

type Handler struct {
	svc *export.Service
	now func() time.Time
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/accounts/{id}", h.download)
}

// download streams the account's transactions as CSV. Without from_date and
// to_date it covers the current month.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, err := h.svc.Statement(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", st.Filename()))

	if err := export.WriteCSV(w, st.Transactions); err != nil {
		slog.Error("failed to write csv", "error", err)
	}
}

func (h *Handler) parseRange(r *http.Request) (time.Time, time.Time, error) {
	now := h.now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if s := r.URL.Query().Get("from_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return from, to, errors.New("invalid from_date, expected YYYY-MM-DD")
		}

		from = t
	}

	if s := r.URL.Query().Get("to_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return from, to, errors.New("invalid to_date, expected YYYY-MM-DD")
		}

		to = t
	}

	return from, to, nil
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *investec.APIError

	switch {
	case errors.Is(err, export.ErrInvalidRange), errors.Is(err, investec.ErrMissingAccountID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, integration.ErrNotConnected), errors.Is(err, investec.ErrInvalidCredentials):
		http.Error(w, "investec session is not valid, please re-connect your account", http.StatusUnauthorized)
	case errors.As(err, &apiErr):
		slog.Warn("investec api error", "status", apiErr.StatusCode, "message", apiErr.Message)
		http.Error(w, apiErr.Message, http.StatusBadGateway)
	default:
		slog.Error("failed to export transactions", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
