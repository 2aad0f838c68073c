package integration

import (
	"context"

	"golang.org/x/oauth2"
)

// tokenStore adapts the repository to investec.TokenStore for a single user.
// initial is the token read together with the integration, so the client
// does not query the database again on its first call.
type tokenStore struct {
	repo    Repository
	userID  string
	initial *oauth2.Token
}

func (t *tokenStore) LoadToken(ctx context.Context) (*oauth2.Token, error) {
	if t.initial != nil {
		return t.initial, nil
	}

	in, err := t.repo.GetIntegration(ctx, t.userID)
	if err != nil {
		return nil, err
	}

	return in.Token(), nil
}

func (t *tokenStore) SaveToken(ctx context.Context, tok *oauth2.Token) error {
	t.initial = nil

	if tok.Expiry.IsZero() {
		return t.repo.UpdateToken(ctx, t.userID, tok.AccessToken, nil)
	}

	expiry := tok.Expiry

	return t.repo.UpdateToken(ctx, t.userID, tok.AccessToken, &expiry)
}

func (t *tokenStore) ClearToken(ctx context.Context) error {
	t.initial = nil
	return t.repo.UpdateToken(ctx, t.userID, "", nil)
}
