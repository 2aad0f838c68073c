// Package integration manages each user's connection to Investec: the stored
// credentials, the cached access token and the API client built from them.
package integration

import (
	"errors"
	"time"

	"golang.org/x/oauth2"

	"github.com/MrJamesThe3rd/ascendia/internal/investec"
)

var (
	ErrNotFound = errors.New("integration not found")
	// ErrNotConnected is returned when a user has no stored credentials.
	ErrNotConnected     = errors.New("investec is not connected, connect your account first")
	ErrConnectionFailed = errors.New("failed to connect to investec")
)

// Integration is one user's Investec connection.
type Integration struct {
	UserID      string
	Credentials investec.Credentials
	AccessToken string
	Expiry      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Token returns the stored access token, or nil when there is none.
func (i *Integration) Token() *oauth2.Token {
	if i.AccessToken == "" {
		return nil
	}

	tok := &oauth2.Token{AccessToken: i.AccessToken, TokenType: "Bearer"}
	if i.Expiry != nil {
		tok.Expiry = *i.Expiry
	}

	return tok
}

type Status struct {
	Connected bool       `json:"connected"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
