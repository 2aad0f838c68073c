package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MrJamesThe3rd/ascendia/internal/analysis"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateAnalysis(ctx context.Context, a *analysis.Analysis) error {
	query := `
		INSERT INTO transaction_analyses (user_id, analysis, from_date, to_date, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		a.UserID,
		a.Content,
		a.From,
		a.To,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating analysis: %w", err)
	}

	return nil
}

func (s *Store) ListAnalyses(ctx context.Context, userID string) ([]*analysis.Analysis, error) {
	query := `
		SELECT id, user_id, analysis, from_date, to_date, created_at
		FROM transaction_analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*analysis.Analysis

	for rows.Next() {
		var a analysis.Analysis
		if err := rows.Scan(&a.ID, &a.UserID, &a.Content, &a.From, &a.To, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}

		analyses = append(analyses, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating analyses: %w", err)
	}

	return analyses, nil
}
