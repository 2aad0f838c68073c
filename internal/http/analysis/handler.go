package analysis

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ascendia/internal/analysis"
	"github.com/MrJamesThe3rd/ascendia/internal/http/auth"
	"github.com/MrJamesThe3rd/ascendia/internal/integration"
	"github.com/MrJamesThe3rd/ascendia/internal/investec"
)

type Handler struct {
	svc          *analysis.Service
	integrations *integration.Service
	validate     *validator.Validate
}

func NewHandler(svc *analysis.Service, integrations *integration.Service, validate *validator.Validate) *Handler {
	return &Handler{svc: svc, integrations: integrations, validate: validate}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.analyse)
	r.Post("/saved", h.save)
	r.Get("/saved", h.list)
}

type analyseRequest struct {
	AccountID string `json:"account_id" validate:"required"`
	FromDate  string `json:"from_date" validate:"required,datetime=2006-01-02"`
	ToDate    string `json:"to_date" validate:"required,datetime=2006-01-02"`
	Save      bool   `json:"save"`
}

type analyseResponse struct {
	Analysis     string     `json:"analysis"`
	Transactions int        `json:"transactions"`
	SavedID      *uuid.UUID `json:"saved_id,omitempty"`
}

func (h *Handler) analyse(w http.ResponseWriter, r *http.Request) {
	var req analyseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	from, to, err := parseRange(req.FromDate, req.ToDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID := auth.UserID(r.Context())

	client, err := h.integrations.Client(r.Context(), userID)
	if err != nil {
		writeBankError(w, err)
		return
	}

	txs, err := client.Transactions(r.Context(), req.AccountID, investec.TransactionFilter{From: &from, To: &to})
	if err != nil {
		writeBankError(w, err)
		return
	}

	content, err := h.svc.Analyse(r.Context(), analysis.AnalyseParams{Transactions: txs, From: from, To: to})
	if err != nil {
		if errors.Is(err, analysis.ErrNoTransactions) {
			http.Error(w, "no transactions found for the selected period", http.StatusUnprocessableEntity)
			return
		}

		slog.Error("failed to generate analysis", "error", err)
		http.Error(w, "failed to generate analysis", http.StatusBadGateway)

		return
	}

	resp := analyseResponse{Analysis: content, Transactions: len(txs)}

	if req.Save {
		saved, err := h.svc.Save(r.Context(), analysis.SaveParams{UserID: userID, Content: content, From: from, To: to})
		if err != nil {
			slog.Error("failed to save analysis", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)

			return
		}

		resp.SavedID = &saved.ID
	}

	writeJSON(w, http.StatusOK, resp)
}

type saveRequest struct {
	Analysis string `json:"analysis" validate:"required"`
	FromDate string `json:"from_date" validate:"required,datetime=2006-01-02"`
	ToDate   string `json:"to_date" validate:"required,datetime=2006-01-02"`
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	from, to, err := parseRange(req.FromDate, req.ToDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := h.svc.Save(r.Context(), analysis.SaveParams{
		UserID:  auth.UserID(r.Context()),
		Content: req.Analysis,
		From:    from,
		To:      to,
	})
	if err != nil {
		if errors.Is(err, analysis.ErrEmptyAnalysis) || errors.Is(err, analysis.ErrInvalidRange) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		slog.Error("failed to save analysis", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusCreated, toResponse(saved))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.svc.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		slog.Error("failed to list analyses", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, toResponseList(analyses))
}

func parseRange(fromDate, toDate string) (time.Time, time.Time, error) {
	from, err := time.Parse(time.DateOnly, fromDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid from_date, expected YYYY-MM-DD")
	}

	to, err := time.Parse(time.DateOnly, toDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid to_date, expected YYYY-MM-DD")
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, errors.New("from_date must not be after to_date")
	}

	return from, to, nil
}

func writeBankError(w http.ResponseWriter, err error) {
	var apiErr *investec.APIError

	switch {
	case errors.Is(err, integration.ErrNotConnected), errors.Is(err, investec.ErrInvalidCredentials):
		http.Error(w, "investec session is not valid, please re-connect your account", http.StatusUnauthorized)
	case errors.As(err, &apiErr):
		http.Error(w, apiErr.Message, http.StatusBadGateway)
	default:
		slog.Error("failed to fetch transactions", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
