// Package analysis asks a language model for insights on a set of bank
// transactions and keeps the analyses a user chose to save.
package analysis

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoTransactions = errors.New("no transactions to analyse")
	ErrEmptyAnalysis  = errors.New("analysis content is required")
	ErrInvalidRange   = errors.New("from and to dates are required and from must not be after to")
)

// Analysis is a saved AI report covering the transactions between From and To.
type Analysis struct {
	ID        uuid.UUID
	UserID    string
	Content   string
	From      time.Time
	To        time.Time
	CreatedAt time.Time
}
