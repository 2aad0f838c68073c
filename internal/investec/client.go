package investec

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/MrJamesThe3rd/ascendia/internal/metrics"
)

const (
	DefaultBaseURL     = "https://openapisandbox.investec.com"
	DefaultRefreshSkew = 60 * time.Second
	defaultTimeout     = 30 * time.Second
	tokenPath          = "/identity/v2/oauth2/token"
	apiKeyHeader       = "x-api-key"
)

// Config controls where and how the client talks to Investec. Zero values
// fall back to the sandbox host, a 60 second refresh skew and a 30 second
// HTTP timeout.
type Config struct {
	BaseURL     string
	TokenURL    string
	Scopes      []string
	RefreshSkew time.Duration
	HTTPClient  *http.Client
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}

	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.TokenURL == "" {
		c.TokenURL = c.BaseURL + tokenPath
	}

	if c.RefreshSkew <= 0 {
		c.RefreshSkew = DefaultRefreshSkew
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}

	return c
}

type Client struct {
	cfg   Config
	http  *http.Client
	oauth clientcredentials.Config
	store TokenStore

	mu     sync.Mutex
	token  *oauth2.Token
	loaded bool
}

// NewClient builds a client for one set of credentials. store may be nil,
// in which case tokens only live in memory.
func NewClient(cfg Config, creds Credentials, store TokenStore) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	cfg = cfg.withDefaults()

	base := cfg.HTTPClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	hc := *cfg.HTTPClient
	hc.Transport = &apiKeyTransport{key: creds.APIKey, base: base}

	return &Client{
		cfg:  cfg,
		http: &hc,
		oauth: clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		store: store,
	}, nil
}

// RefreshSkew is how long before expiry a token is considered stale.
func (c *Client) RefreshSkew() time.Duration {
	return c.cfg.RefreshSkew
}

func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	data, err := fetch[struct {
		Accounts []Account `json:"accounts"`
	}](ctx, c, "accounts", "/za/pb/v1/accounts", nil)
	if err != nil {
		return nil, err
	}

	return data.Accounts, nil
}

func (c *Client) Balance(ctx context.Context, accountID string) (*Balance, error) {
	if accountID == "" {
		return nil, ErrMissingAccountID
	}

	data, err := fetch[Balance](ctx, c, "balance", "/za/pb/v1/accounts/"+url.PathEscape(accountID)+"/balance", nil)
	if err != nil {
		return nil, err
	}

	return &data, nil
}

func (c *Client) Transactions(ctx context.Context, accountID string, filter TransactionFilter) ([]Transaction, error) {
	if accountID == "" {
		return nil, ErrMissingAccountID
	}

	query := url.Values{}
	if filter.From != nil {
		query.Set("fromDate", filter.From.Format(time.DateOnly))
	}

	if filter.To != nil {
		query.Set("toDate", filter.To.Format(time.DateOnly))
	}

	if filter.Type != "" {
		query.Set("transactionType", filter.Type)
	}

	data, err := fetch[struct {
		Transactions []Transaction `json:"transactions"`
	}](ctx, c, "transactions", "/za/pb/v1/accounts/"+url.PathEscape(accountID)+"/transactions", query)
	if err != nil {
		return nil, err
	}

	return data.Transactions, nil
}

func (c *Client) Beneficiaries(ctx context.Context) ([]Beneficiary, error) {
	return fetch[[]Beneficiary](ctx, c, "beneficiaries", "/za/pb/v1/accounts/beneficiaries", nil)
}

// fetch performs an authenticated GET and decodes the "data" member of the
// response envelope. A 401 triggers exactly one token refresh and replay.
func fetch[T any](ctx context.Context, c *Client, endpoint, path string, query url.Values) (T, error) {
	var zero T

	tok, err := c.Token(ctx)
	if err != nil {
		return zero, err
	}

	resp, err := c.send(ctx, endpoint, path, query, tok)
	if err != nil {
		return zero, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		discard(resp)
		metrics.TokenRetries.Inc()
		slog.Warn("investec rejected access token, refreshing", "endpoint", endpoint)

		tok, err = c.refresh(ctx, tok)
		if err != nil {
			return zero, err
		}

		resp, err = c.send(ctx, endpoint, path, query, tok)
		if err != nil {
			return zero, err
		}

		if resp.StatusCode == http.StatusUnauthorized {
			discard(resp)
			c.invalidate(ctx)

			return zero, ErrInvalidCredentials
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		c.invalidate(ctx)
		return zero, ErrInvalidCredentials
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, newAPIError(resp)
	}

	var envelope struct {
		Data T `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return zero, fmt.Errorf("decoding %s response: %w", endpoint, err)
	}

	return envelope.Data, nil
}

func (c *Client) send(ctx context.Context, endpoint, path string, query url.Values, tok *oauth2.Token) (*http.Response, error) {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	tok.SetAuthHeader(req)

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("executing %s request: %w", endpoint, err)
	}

	metrics.APIRequestDuration.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	return resp, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}

// apiKeyTransport adds the developer API key that Investec expects on both
// the token endpoint and the account endpoints.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set(apiKeyHeader, t.key)

	return t.base.RoundTrip(r)
}
