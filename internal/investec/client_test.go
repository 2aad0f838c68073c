package investec_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/MrJamesThe3rd/ascendia/internal/investec"
)

var testCreds = investec.Credentials{
	ClientID:     "client-id",
	ClientSecret: "client-secret",
	APIKey:       "api-key",
}

type memStore struct {
	mu      sync.Mutex
	tok     *oauth2.Token
	saved   int
	cleared int
}

func (s *memStore) LoadToken(_ context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tok, nil
}

func (s *memStore) SaveToken(_ context.Context, tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tok = tok
	s.saved++

	return nil
}

func (s *memStore) ClearToken(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tok = nil
	s.cleared++

	return nil
}

// bank is a fake Investec host. Tokens are issued as tok-1, tok-2, ...
// and api decides how each account endpoint call is answered.
type bank struct {
	tokenCalls atomic.Int32
	apiCalls   atomic.Int32

	tokenStatus int
	expiresIn   int
	api         func(w http.ResponseWriter, r *http.Request)
}

func (b *bank) server(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/identity/v2/oauth2/token" {
			n := b.tokenCalls.Add(1)

			if b.tokenStatus != 0 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(b.tokenStatus)
				fmt.Fprint(w, `{"error":"invalid_client","error_description":"bad credentials"}`)

				return
			}

			expires := b.expiresIn
			if expires == 0 {
				expires = 1799
			}

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"Bearer","expires_in":%d,"scope":"accounts"}`, n, expires)

			return
		}

		b.apiCalls.Add(1)
		b.api(w, r)
	}))
	t.Cleanup(ts.Close)

	return ts
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

const accountsBody = `{"data":{"accounts":[{"accountId":"acc-1","accountNumber":"10011","accountName":"Mr J Doe","referenceName":"Mr J Doe","productName":"Private Bank Account","kycCompliant":true}]}}`

func newClient(t *testing.T, ts *httptest.Server, store investec.TokenStore) *investec.Client {
	t.Helper()

	c, err := investec.NewClient(investec.Config{BaseURL: ts.URL, Scopes: []string{"accounts"}}, testCreds, store)
	require.NoError(t, err)

	return c
}

func TestNewClient_MissingCredentials(t *testing.T) {
	type testCase struct {
		name  string
		creds investec.Credentials
	}

	tests := []testCase{
		{name: "NoClientID", creds: investec.Credentials{ClientSecret: "s", APIKey: "k"}},
		{name: "NoSecret", creds: investec.Credentials{ClientID: "i", APIKey: "k"}},
		{name: "NoAPIKey", creds: investec.Credentials{ClientID: "i", ClientSecret: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := investec.NewClient(investec.Config{}, tt.creds, nil)
			assert.ErrorIs(t, err, investec.ErrMissingCredentials)
		})
	}
}

func TestClient_AcquireToken_SendsClientCredentials(t *testing.T) {
	var got *http.Request

	var form string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())

		got = r
		form = r.PostForm.Encode()

		writeJSON(w, `{"access_token":"abc","token_type":"Bearer","expires_in":1799}`)
	}))
	defer ts.Close()

	store := &memStore{}
	c := newClient(t, ts, store)

	tok, err := c.AcquireToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/identity/v2/oauth2/token", got.URL.Path)
	assert.Equal(t, "api-key", got.Header.Get("x-api-key"))
	assert.Equal(t, "application/x-www-form-urlencoded", got.Header.Get("Content-Type"))

	user, pass, ok := got.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "client-id", user)
	assert.Equal(t, "client-secret", pass)

	assert.Contains(t, form, "grant_type=client_credentials")
	assert.Contains(t, form, "scope=accounts")

	assert.Equal(t, "abc", tok.AccessToken)
	assert.WithinDuration(t, time.Now().Add(1799*time.Second), tok.Expiry, 5*time.Second)
	assert.Equal(t, 1, store.saved)
}

func TestClient_Accounts_ReusesCachedToken(t *testing.T) {
	b := &bank{api: func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/za/pb/v1/accounts", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "api-key", r.Header.Get("x-api-key"))
		writeJSON(w, accountsBody)
	}}
	ts := b.server(t)
	c := newClient(t, ts, nil)

	for range 2 {
		accounts, err := c.Accounts(context.Background())
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "acc-1", accounts[0].AccountID)
		assert.Equal(t, "Private Bank Account", accounts[0].ProductName)
		assert.True(t, accounts[0].KYCCompliant)
	}

	assert.Equal(t, int32(1), b.tokenCalls.Load())
	assert.Equal(t, int32(2), b.apiCalls.Load())
}

func TestClient_UsesStoredToken(t *testing.T) {
	b := &bank{api: func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer stored", r.Header.Get("Authorization"))
		writeJSON(w, accountsBody)
	}}
	ts := b.server(t)

	store := &memStore{tok: &oauth2.Token{AccessToken: "stored", Expiry: time.Now().Add(time.Hour)}}
	c := newClient(t, ts, store)

	_, err := c.Accounts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(0), b.tokenCalls.Load())
}

func TestClient_RefreshesTokenInsideSkew(t *testing.T) {
	b := &bank{api: func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		writeJSON(w, accountsBody)
	}}
	ts := b.server(t)

	store := &memStore{tok: &oauth2.Token{AccessToken: "stale", Expiry: time.Now().Add(30 * time.Second)}}
	c := newClient(t, ts, store)

	_, err := c.Accounts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), b.tokenCalls.Load())
	assert.Equal(t, "tok-1", store.tok.AccessToken)
	assert.Equal(t, 1, store.saved)
}

func TestClient_RetriesOnceAfterUnauthorized(t *testing.T) {
	b := &bank{api: func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		writeJSON(w, accountsBody)
	}}
	ts := b.server(t)
	store := &memStore{}
	c := newClient(t, ts, store)

	accounts, err := c.Accounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	assert.Equal(t, int32(2), b.tokenCalls.Load())
	assert.Equal(t, int32(2), b.apiCalls.Load())
	assert.Equal(t, "tok-2", store.tok.AccessToken)
}

func TestClient_SecondUnauthorizedIsInvalidCredentials(t *testing.T) {
	b := &bank{api: func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}}
	ts := b.server(t)
	store := &memStore{}
	c := newClient(t, ts, store)

	_, err := c.Accounts(context.Background())
	require.ErrorIs(t, err, investec.ErrInvalidCredentials)

	assert.Equal(t, int32(2), b.tokenCalls.Load())
	assert.Equal(t, int32(2), b.apiCalls.Load())
	assert.Nil(t, store.tok)
	assert.Equal(t, 1, store.cleared)
}

func TestClient_ForbiddenIsNotRetried(t *testing.T) {
	b := &bank{api: func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}}
	ts := b.server(t)
	store := &memStore{}
	c := newClient(t, ts, store)

	_, err := c.Accounts(context.Background())
	require.ErrorIs(t, err, investec.ErrInvalidCredentials)

	assert.Equal(t, int32(1), b.tokenCalls.Load())
	assert.Equal(t, int32(1), b.apiCalls.Load())
	assert.Nil(t, store.tok)
}

func TestClient_TokenEndpointRejectsCredentials(t *testing.T) {
	b := &bank{
		tokenStatus: http.StatusUnauthorized,
		api: func(w http.ResponseWriter, _ *http.Request) {
			t.Error("api must not be called without a token")
		},
	}
	ts := b.server(t)
	store := &memStore{tok: &oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Minute)}}
	c := newClient(t, ts, store)

	_, err := c.Accounts(context.Background())
	require.ErrorIs(t, err, investec.ErrInvalidCredentials)
	assert.Nil(t, store.tok)
	assert.Equal(t, int32(0), b.apiCalls.Load())
}

func TestClient_TokenEndpointServerError(t *testing.T) {
	b := &bank{tokenStatus: http.StatusInternalServerError}
	ts := b.server(t)
	c := newClient(t, ts, nil)

	_, err := c.AcquireToken(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, investec.ErrInvalidCredentials)
}

func TestClient_APIError(t *testing.T) {
	b := &bank{api: func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"message":"upstream unavailable"}`)
	}}
	ts := b.server(t)
	c := newClient(t, ts, nil)

	_, err := c.Accounts(context.Background())

	var apiErr *investec.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestClient_Transactions(t *testing.T) {
	b := &bank{api: func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/za/pb/v1/accounts/acc-1/transactions", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("fromDate"))
		assert.Equal(t, "2024-01-31", r.URL.Query().Get("toDate"))
		assert.Empty(t, r.URL.Query().Get("transactionType"))

		writeJSON(w, `{"data":{"transactions":[
			{"accountId":"acc-1","type":"DEBIT","transactionType":"CardPurchases","status":"POSTED",
			 "description":"WOOLWORTHS","postingDate":"2024-01-05","valueDate":"2024-01-05",
			 "actionDate":"2024-01-06","transactionDate":"2024-01-04","amount":245.5,"runningBalance":10000.25,
			 "uuid":"u-1"}
		]}}`)
	}}
	ts := b.server(t)
	c := newClient(t, ts, nil)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	txs, err := c.Transactions(context.Background(), "acc-1", investec.TransactionFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, investec.TypeDebit, tx.Type)
	assert.Equal(t, "WOOLWORTHS", tx.Description)
	assert.True(t, decimal.RequireFromString("245.5").Equal(tx.Amount))
	assert.Equal(t, "2024-01-05", tx.PostingDate.String())
	assert.Equal(t, "2024-01-04", tx.TransactionDate.String())
}

func TestClient_Balance(t *testing.T) {
	b := &bank{api: func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/za/pb/v1/accounts/acc-1/balance", r.URL.Path)
		writeJSON(w, `{"data":{"accountId":"acc-1","currentBalance":28857.76,"availableBalance":98857.76,"budgetBalance":0,"straightBalance":0,"cashBalance":28857.76,"currency":"ZAR"}}`)
	}}
	ts := b.server(t)
	c := newClient(t, ts, nil)

	bal, err := c.Balance(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "ZAR", bal.Currency)
	assert.True(t, decimal.RequireFromString("98857.76").Equal(bal.AvailableBalance))
}

func TestClient_RequiresAccountID(t *testing.T) {
	c, err := investec.NewClient(investec.Config{}, testCreds, nil)
	require.NoError(t, err)

	_, err = c.Balance(context.Background(), "")
	assert.ErrorIs(t, err, investec.ErrMissingAccountID)

	_, err = c.Transactions(context.Background(), "", investec.TransactionFilter{})
	assert.ErrorIs(t, err, investec.ErrMissingAccountID)
}

func TestClient_Beneficiaries(t *testing.T) {
	b := &bank{api: func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/za/pb/v1/accounts/beneficiaries", r.URL.Path)
		writeJSON(w, `{"data":[{"beneficiaryId":"b-1","beneficiaryName":"Landlord","bank":"FNB"}]}`)
	}}
	ts := b.server(t)
	c := newClient(t, ts, nil)

	got, err := c.Beneficiaries(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Landlord", got[0].BeneficiaryName)
}

func TestClient_ConcurrentCallersShareToken(t *testing.T) {
	b := &bank{api: func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, accountsBody)
	}}
	ts := b.server(t)
	c := newClient(t, ts, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			_, err := c.Accounts(context.Background())
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	assert.Equal(t, int32(1), b.tokenCalls.Load())
}

func TestClient_ConcurrentUnauthorizedRefreshesOnce(t *testing.T) {
	const callers = 4

	var (
		rejecting atomic.Bool
		arrived   atomic.Int32
		allIn     = make(chan struct{})
	)

	// Every caller holding tok-1 is held until all of them have sent with it,
	// so each one sees a 401 before any refresh happens.
	b := &bank{api: func(w http.ResponseWriter, r *http.Request) {
		if rejecting.Load() && r.Header.Get("Authorization") == "Bearer tok-1" {
			if arrived.Add(1) == callers {
				close(allIn)
			}

			select {
			case <-allIn:
			case <-time.After(5 * time.Second):
			}

			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		writeJSON(w, accountsBody)
	}}
	ts := b.server(t)
	store := &memStore{}
	c := newClient(t, ts, store)

	_, err := c.Accounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), b.tokenCalls.Load())

	rejecting.Store(true)

	var wg sync.WaitGroup
	for range callers {
		wg.Go(func() {
			_, err := c.Accounts(context.Background())
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	assert.Equal(t, int32(callers), arrived.Load())
	assert.Equal(t, int32(2), b.tokenCalls.Load(), "only the first rejected caller acquires a new token")
	assert.Equal(t, int32(1+2*callers), b.apiCalls.Load())
	assert.Equal(t, 2, store.saved)
	assert.Zero(t, store.cleared)

	tok, err := c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok.AccessToken)
}

func TestTransaction_SignedAmount(t *testing.T) {
	type testCase struct {
		name string
		tx   investec.Transaction
		want string
	}

	tests := []testCase{
		{name: "PositiveDebit", tx: investec.Transaction{Type: investec.TypeDebit, Amount: decimal.RequireFromString("10.5")}, want: "-10.5"},
		{name: "NegativeDebit", tx: investec.Transaction{Type: investec.TypeDebit, Amount: decimal.RequireFromString("-10.5")}, want: "-10.5"},
		{name: "Credit", tx: investec.Transaction{Type: investec.TypeCredit, Amount: decimal.RequireFromString("200")}, want: "200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tx.SignedAmount().String())
		})
	}
}

func TestFresh(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	type testCase struct {
		name string
		tok  *oauth2.Token
		want bool
	}

	tests := []testCase{
		{name: "Nil", tok: nil, want: false},
		{name: "Empty", tok: &oauth2.Token{}, want: false},
		{name: "NoExpiry", tok: &oauth2.Token{AccessToken: "a"}, want: true},
		{name: "Valid", tok: &oauth2.Token{AccessToken: "a", Expiry: now.Add(10 * time.Minute)}, want: true},
		{name: "InsideSkew", tok: &oauth2.Token{AccessToken: "a", Expiry: now.Add(59 * time.Second)}, want: false},
		{name: "Expired", tok: &oauth2.Token{AccessToken: "a", Expiry: now.Add(-time.Second)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, investec.Fresh(tt.tok, time.Minute, now))
		})
	}
}

func TestDate_JSON(t *testing.T) {
	var v struct {
		D investec.Date `json:"d"`
		E investec.Date `json:"e"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-02-29","e":null}`), &v))
	assert.Equal(t, "2024-02-29", v.D.String())
	assert.True(t, v.E.IsZero())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), `"d":"2024-02-29"`))
	assert.True(t, strings.Contains(string(out), `"e":null`))
}
