package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/ascendia/internal/integration"
	"github.com/MrJamesThe3rd/ascendia/internal/secret"
)

// Store keeps integrations in postgres. The client secret, API key and
// access token are sealed with box before they are written.
type Store struct {
	db  *sql.DB
	box *secret.Box
}

func New(db *sql.DB, box *secret.Box) *Store {
	return &Store{db: db, box: box}
}

func (s *Store) GetIntegration(ctx context.Context, userID string) (*integration.Integration, error) {
	query := `
		SELECT user_id, client_id, client_secret, api_key, access_token, expires_at, created_at, updated_at
		FROM investec_integrations
		WHERE user_id = $1
	`

	var (
		in                         integration.Integration
		sealedSecret, sealedAPIKey string
		sealedToken                sql.NullString
		expiresAt                  sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&in.UserID, &in.Credentials.ClientID, &sealedSecret, &sealedAPIKey,
		&sealedToken, &expiresAt, &in.CreatedAt, &in.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, integration.ErrNotFound
		}

		return nil, fmt.Errorf("getting integration: %w", err)
	}

	if in.Credentials.ClientSecret, err = s.box.Open(sealedSecret); err != nil {
		return nil, fmt.Errorf("opening client secret: %w", err)
	}

	if in.Credentials.APIKey, err = s.box.Open(sealedAPIKey); err != nil {
		return nil, fmt.Errorf("opening api key: %w", err)
	}

	if sealedToken.Valid && sealedToken.String != "" {
		if in.AccessToken, err = s.box.Open(sealedToken.String); err != nil {
			return nil, fmt.Errorf("opening access token: %w", err)
		}
	}

	if expiresAt.Valid {
		in.Expiry = &expiresAt.Time
	}

	return &in, nil
}

func (s *Store) UpsertIntegration(ctx context.Context, in *integration.Integration) error {
	sealedSecret, err := s.box.Seal(in.Credentials.ClientSecret)
	if err != nil {
		return fmt.Errorf("sealing client secret: %w", err)
	}

	sealedAPIKey, err := s.box.Seal(in.Credentials.APIKey)
	if err != nil {
		return fmt.Errorf("sealing api key: %w", err)
	}

	sealedToken, err := s.sealToken(in.AccessToken)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO investec_integrations (user_id, client_id, client_secret, api_key, access_token, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			client_id = EXCLUDED.client_id,
			client_secret = EXCLUDED.client_secret,
			api_key = EXCLUDED.api_key,
			access_token = EXCLUDED.access_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err = s.db.QueryRowContext(ctx, query,
		in.UserID,
		in.Credentials.ClientID,
		sealedSecret,
		sealedAPIKey,
		sealedToken,
		in.Expiry,
	).Scan(&in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting integration: %w", err)
	}

	return nil
}

// UpdateToken replaces the cached token. An empty accessToken clears it.
func (s *Store) UpdateToken(ctx context.Context, userID, accessToken string, expiry *time.Time) error {
	sealedToken, err := s.sealToken(accessToken)
	if err != nil {
		return err
	}

	query := `
		UPDATE investec_integrations
		SET access_token = $1, expires_at = $2, updated_at = NOW()
		WHERE user_id = $3
	`

	result, err := s.db.ExecContext(ctx, query, sealedToken, expiry, userID)
	if err != nil {
		return fmt.Errorf("updating token: %w", err)
	}

	return requireRow(result)
}

func (s *Store) DeleteIntegration(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM investec_integrations WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deleting integration: %w", err)
	}

	return requireRow(result)
}

func (s *Store) sealToken(token string) (sql.NullString, error) {
	if token == "" {
		return sql.NullString{}, nil
	}

	sealed, err := s.box.Seal(token)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("sealing access token: %w", err)
	}

	return sql.NullString{String: sealed, Valid: true}, nil
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}

	if rows == 0 {
		return integration.ErrNotFound
	}

	return nil
}
