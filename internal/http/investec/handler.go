package investec

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/ascendia/internal/http/auth"
	"github.com/MrJamesThe3rd/ascendia/internal/integration"
	"github.com/MrJamesThe3rd/ascendia/internal/investec"
)

const reconnectMessage = "investec session is not valid, please re-connect your account"

type Handler struct {
	svc      *integration.Service
	validate *validator.Validate
}

func NewHandler(svc *integration.Service, validate *validator.Validate) *Handler {
	return &Handler{svc: svc, validate: validate}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/connect", h.connect)
	r.Delete("/connect", h.disconnect)
	r.Get("/status", h.status)
	r.Get("/accounts", h.accounts)
	r.Get("/accounts/{id}/balance", h.balance)
	r.Get("/accounts/{id}/transactions", h.transactions)
	r.Get("/beneficiaries", h.beneficiaries)
}

type connectRequest struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`
	APIKey       string `json:"api_key" validate:"required"`
}

func (h *Handler) connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status, err := h.svc.Connect(r.Context(), auth.UserID(r.Context()), investec.Credentials{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		APIKey:       req.APIKey,
	})
	if err != nil {
		// 401 is reserved for the caller's own session, so a failed
		// credential test is a 400.
		switch {
		case errors.Is(err, investec.ErrInvalidCredentials):
			http.Error(w, "investec rejected the credentials", http.StatusBadRequest)
		case errors.Is(err, integration.ErrConnectionFailed):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			slog.Error("failed to connect investec", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}

		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Disconnect(r.Context(), auth.UserID(r.Context())); err != nil {
		slog.Error("failed to disconnect investec", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Status(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) accounts(w http.ResponseWriter, r *http.Request) {
	client, err := h.svc.Client(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	accounts, err := client.Accounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponses(accounts))
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	client, err := h.svc.Client(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	balance, err := client.Balance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceResponse(balance))
}

func (h *Handler) transactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	client, err := h.svc.Client(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	txs, err := client.Transactions(r.Context(), chi.URLParam(r, "id"), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

func (h *Handler) beneficiaries(w http.ResponseWriter, r *http.Request) {
	client, err := h.svc.Client(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	beneficiaries, err := client.Beneficiaries(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBeneficiaryResponses(beneficiaries))
}

var errInvalidRange = errors.New("from_date must not be after to_date")

// parseFilter reads the optional from_date and to_date query parameters.
func parseFilter(r *http.Request) (investec.TransactionFilter, error) {
	var filter investec.TransactionFilter

	if s := r.URL.Query().Get("from_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return filter, errors.New("invalid from_date, expected YYYY-MM-DD")
		}

		filter.From = &t
	}

	if s := r.URL.Query().Get("to_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return filter, errors.New("invalid to_date, expected YYYY-MM-DD")
		}

		filter.To = &t
	}

	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return filter, errInvalidRange
	}

	filter.Type = r.URL.Query().Get("type")

	return filter, nil
}

// writeError maps integration and client errors to status codes. Anything
// that needs the user to connect again is a 401.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *investec.APIError

	switch {
	case errors.Is(err, integration.ErrNotConnected), errors.Is(err, investec.ErrInvalidCredentials):
		http.Error(w, reconnectMessage, http.StatusUnauthorized)
	case errors.Is(err, investec.ErrMissingAccountID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == http.StatusNotFound {
			http.Error(w, apiErr.Message, http.StatusNotFound)
			return
		}

		slog.Warn("investec api error", "status", apiErr.StatusCode, "message", apiErr.Message)
		http.Error(w, apiErr.Message, http.StatusBadGateway)
	default:
		slog.Error("investec request failed", "error", err)
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
