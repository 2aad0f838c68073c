package export_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ascendia/internal/export"
	exportHandler "github.com/MrJamesThe3rd/ascendia/internal/http/export"
	"github.com/MrJamesThe3rd/ascendia/internal/http/auth"
	"github.com/MrJamesThe3rd/ascendia/internal/integration"
	"github.com/MrJamesThe3rd/ascendia/internal/investec"
)

type clients struct {
	client integration.BankClient
	err    error
}

func (c clients) Client(context.Context, string) (integration.BankClient, error) {
	return c.client, c.err
}

func newRouter(c clients) http.Handler {
	h := exportHandler.NewHandler(export.NewService(c))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), "user-1")))
		})
	})
	r.Route("/export", h.Routes)

	return r
}

func TestHandler_Download(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := integration.NewMockBankClient(ctrl)
	client.EXPECT().
		Transactions(gomock.Any(), "acc-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, filter investec.TransactionFilter) ([]investec.Transaction, error) {
			assert.Equal(t, "2025-01-01", filter.From.Format(time.DateOnly))
			assert.Equal(t, "2025-01-31", filter.To.Format(time.DateOnly))

			return []investec.Transaction{{
				Type:        investec.TypeDebit,
				Description: "UBER",
				PostingDate: investec.NewDate(time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)),
				Amount:      decimal.NewFromInt(120),
			}}, nil
		})

	rec := httptest.NewRecorder()
	newRouter(clients{client: client}).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/export/accounts/acc-1?from_date=2025-01-01&to_date=2025-01-31", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="investec_acc-1_20250101_20250131.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "2025-01-04,,DEBIT,,UBER,-120.00,0.00,,")
}

func TestHandler_Download_Errors(t *testing.T) {
	type testCase struct {
		name       string
		target     string
		clients    clients
		wantStatus int
	}

	tests := []testCase{
		{
			name:       "BadDate",
			target:     "/export/accounts/acc-1?from_date=01-01-2025",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "ReversedRange",
			target:     "/export/accounts/acc-1?from_date=2025-02-01&to_date=2025-01-01",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "NotConnected",
			target:     "/export/accounts/acc-1?from_date=2025-01-01&to_date=2025-01-31",
			clients:    clients{err: integration.ErrNotConnected},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newRouter(tt.clients).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
