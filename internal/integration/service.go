package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/MrJamesThe3rd/ascendia/internal/investec"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=integration
type Repository interface {
	GetIntegration(ctx context.Context, userID string) (*Integration, error)
	UpsertIntegration(ctx context.Context, in *Integration) error
	UpdateToken(ctx context.Context, userID, accessToken string, expiry *time.Time) error
	DeleteIntegration(ctx context.Context, userID string) error
}

// BankClient is the part of *investec.Client the rest of the app depends on.
type BankClient interface {
	AcquireToken(ctx context.Context) (*oauth2.Token, error)
	Token(ctx context.Context) (*oauth2.Token, error)
	RefreshSkew() time.Duration

	Accounts(ctx context.Context) ([]investec.Account, error)
	Balance(ctx context.Context, accountID string) (*investec.Balance, error)
	Transactions(ctx context.Context, accountID string, filter investec.TransactionFilter) ([]investec.Transaction, error)
	Beneficiaries(ctx context.Context) ([]investec.Beneficiary, error)
}

// ClientFactory builds a BankClient. store may be nil.
type ClientFactory func(cfg investec.Config, creds investec.Credentials, store investec.TokenStore) (BankClient, error)

// NewInvestecClient is the ClientFactory used outside of tests.
func NewInvestecClient(cfg investec.Config, creds investec.Credentials, store investec.TokenStore) (BankClient, error) {
	client, err := investec.NewClient(cfg, creds, store)
	if err != nil {
		return nil, err
	}

	return client, nil
}

type Service struct {
	repo      Repository
	cfg       investec.Config
	newClient ClientFactory
}

func NewService(repo Repository, cfg investec.Config, newClient ClientFactory) *Service {
	if newClient == nil {
		newClient = NewInvestecClient
	}

	return &Service{repo: repo, cfg: cfg, newClient: newClient}
}

// Connect checks the credentials by acquiring a token and stores both.
func (s *Service) Connect(ctx context.Context, userID string, creds investec.Credentials) (*Status, error) {
	client, err := s.newClient(s.cfg, creds, nil)
	if err != nil {
		return nil, err
	}

	tok, err := client.AcquireToken(ctx)
	if err != nil {
		slog.Warn("investec connection test failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	in := &Integration{
		UserID:      userID,
		Credentials: creds,
		AccessToken: tok.AccessToken,
	}

	if !tok.Expiry.IsZero() {
		in.Expiry = &tok.Expiry
	}

	if err := s.repo.UpsertIntegration(ctx, in); err != nil {
		return nil, fmt.Errorf("saving integration: %w", err)
	}

	slog.Info("investec connected", "user_id", userID)

	return &Status{Connected: true, ExpiresAt: in.Expiry}, nil
}

// Status reports whether the user holds a usable token, refreshing it when it
// is about to expire.
func (s *Service) Status(ctx context.Context, userID string) (*Status, error) {
	in, err := s.repo.GetIntegration(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return &Status{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("getting integration: %w", err)
	}

	if in.AccessToken == "" {
		return &Status{}, nil
	}

	client, err := s.clientFor(in)
	if err != nil {
		return nil, err
	}

	tok, err := client.Token(ctx)
	if errors.Is(err, investec.ErrInvalidCredentials) {
		return &Status{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	status := &Status{Connected: true}
	if !tok.Expiry.IsZero() {
		status.ExpiresAt = &tok.Expiry
	}

	return status, nil
}

// Client returns an API client whose token changes are written back to the
// repository.
func (s *Service) Client(ctx context.Context, userID string) (BankClient, error) {
	in, err := s.repo.GetIntegration(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotConnected
	}

	if err != nil {
		return nil, fmt.Errorf("getting integration: %w", err)
	}

	return s.clientFor(in)
}

func (s *Service) Disconnect(ctx context.Context, userID string) error {
	err := s.repo.DeleteIntegration(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("deleting integration: %w", err)
	}

	slog.Info("investec disconnected", "user_id", userID)

	return nil
}

func (s *Service) clientFor(in *Integration) (BankClient, error) {
	store := &tokenStore{repo: s.repo, userID: in.UserID, initial: in.Token()}

	client, err := s.newClient(s.cfg, in.Credentials, store)
	if err != nil {
		return nil, fmt.Errorf("building investec client: %w", err)
	}

	return client, nil
}
