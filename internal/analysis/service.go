package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrJamesThe3rd/ascendia/internal/investec"
	"github.com/MrJamesThe3rd/ascendia/internal/metrics"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=analysis
type Repository interface {
	CreateAnalysis(ctx context.Context, a *Analysis) error
	ListAnalyses(ctx context.Context, userID string) ([]*Analysis, error)
}

// Generator produces a completion for a system and a user message.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

type Service struct {
	repo Repository
	gen  Generator
}

func NewService(repo Repository, gen Generator) *Service {
	return &Service{repo: repo, gen: gen}
}

type AnalyseParams struct {
	Transactions []investec.Transaction
	From         time.Time
	To           time.Time
}

type SaveParams struct {
	UserID  string
	Content string
	From    time.Time
	To      time.Time
}

// Analyse returns the model's markdown report on the given transactions.
func (s *Service) Analyse(ctx context.Context, params AnalyseParams) (string, error) {
	if len(params.Transactions) == 0 {
		return "", ErrNoTransactions
	}

	start := time.Now()

	content, err := s.gen.Generate(ctx, SystemPrompt, BuildPrompt(params.Transactions, params.From, params.To))
	if err != nil {
		metrics.AnalysisDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return "", fmt.Errorf("generating analysis: %w", err)
	}

	metrics.AnalysisDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())
	slog.Info("generated analysis", "transactions", len(params.Transactions), "duration", time.Since(start))

	return content, nil
}

func (s *Service) Save(ctx context.Context, params SaveParams) (*Analysis, error) {
	if params.Content == "" {
		return nil, ErrEmptyAnalysis
	}

	if params.From.IsZero() || params.To.IsZero() || params.From.After(params.To) {
		return nil, ErrInvalidRange
	}

	a := &Analysis{
		UserID:  params.UserID,
		Content: params.Content,
		From:    params.From,
		To:      params.To,
	}

	if err := s.repo.CreateAnalysis(ctx, a); err != nil {
		return nil, fmt.Errorf("saving analysis: %w", err)
	}

	return a, nil
}

// List returns the user's saved analyses, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*Analysis, error) {
	return s.repo.ListAnalyses(ctx, userID)
}
