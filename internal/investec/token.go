package investec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/MrJamesThe3rd/ascendia/internal/metrics"
)

// TokenStore persists the access token between client instances.
// LoadToken returns (nil, nil) when nothing is stored.
type TokenStore interface {
	LoadToken(ctx context.Context) (*oauth2.Token, error)
	SaveToken(ctx context.Context, tok *oauth2.Token) error
	ClearToken(ctx context.Context) error
}

// Fresh reports whether tok can still be used for at least skew. A token
// without an expiry is treated as fresh until the API rejects it.
func Fresh(tok *oauth2.Token, skew time.Duration, now time.Time) bool {
	if tok == nil || tok.AccessToken == "" {
		return false
	}

	if tok.Expiry.IsZero() {
		return true
	}

	return tok.Expiry.After(now.Add(skew))
}

// Token returns a usable access token, loading it from the store or
// acquiring a new one when the cached token is missing or about to expire.
func (c *Client) Token(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.tokenLocked(ctx)
}

// AcquireToken always requests a new token from the authorization server.
func (c *Client) AcquireToken(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.acquireLocked(ctx)
}

func (c *Client) tokenLocked(ctx context.Context) (*oauth2.Token, error) {
	if Fresh(c.token, c.cfg.RefreshSkew, time.Now()) {
		return c.token, nil
	}

	if !c.loaded && c.store != nil {
		c.loaded = true

		tok, err := c.store.LoadToken(ctx)
		if err != nil {
			slog.Warn("failed to load stored investec token", "error", err)
		} else if Fresh(tok, c.cfg.RefreshSkew, time.Now()) {
			c.token = tok
			return tok, nil
		}
	}

	slog.Info("investec token expired or missing, acquiring new one")

	return c.acquireLocked(ctx)
}

func (c *Client) acquireLocked(ctx context.Context) (*oauth2.Token, error) {
	tok, err := c.oauth.Token(context.WithValue(ctx, oauth2.HTTPClient, c.http))
	if err != nil {
		c.token = nil
		c.clearStore(ctx)

		if rejected(err) {
			metrics.TokenAcquisitions.WithLabelValues("rejected").Inc()
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}

		metrics.TokenAcquisitions.WithLabelValues("error").Inc()

		return nil, fmt.Errorf("acquiring token: %w", err)
	}

	metrics.TokenAcquisitions.WithLabelValues("success").Inc()

	c.token = tok
	c.loaded = true

	if c.store != nil {
		if err := c.store.SaveToken(ctx, tok); err != nil {
			slog.Warn("failed to persist investec token", "error", err)
		}
	}

	slog.Info("acquired investec access token", "expires_at", tok.Expiry)

	return tok, nil
}

// refresh replaces a token the API rejected. If another caller already
// swapped in a different fresh token, that one is reused.
func (c *Client) refresh(ctx context.Context, rejectedTok *oauth2.Token) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && c.token.AccessToken != rejectedTok.AccessToken && Fresh(c.token, c.cfg.RefreshSkew, time.Now()) {
		return c.token, nil
	}

	return c.acquireLocked(ctx)
}

// invalidate drops the token locally and in the store.
func (c *Client) invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = nil
	c.clearStore(ctx)
}

func (c *Client) clearStore(ctx context.Context) {
	if c.store == nil {
		return
	}

	if err := c.store.ClearToken(ctx); err != nil {
		slog.Warn("failed to clear stored investec token", "error", err)
	}
}

func rejected(err error) bool {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) || re.Response == nil {
		return false
	}

	switch re.Response.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}

	return false
}
