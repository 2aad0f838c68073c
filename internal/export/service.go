// Package export writes Investec transaction listings to CSV statements.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/ascendia/internal/integration"
	"github.com/MrJamesThe3rd/ascendia/internal/investec"
	"github.com/MrJamesThe3rd/ascendia/internal/money"
)

var ErrInvalidRange = errors.New("start date must not be after end date")

var header = []string{
	"posting_date",
	"transaction_date",
	"type",
	"transaction_type",
	"description",
	"amount",
	"running_balance",
	"status",
	"card_number",
}

// Clients hands out a bank client for a user. *integration.Service implements it.
type Clients interface {
	Client(ctx context.Context, userID string) (integration.BankClient, error)
}

// Statement is one account's transactions over an inclusive date range.
type Statement struct {
	AccountID    string
	From         time.Time
	To           time.Time
	Transactions []investec.Transaction
}

// Result describes a statement written to disk.
type Result struct {
	Path  string
	Count int
}

type Service struct {
	clients Clients
}

func NewService(clients Clients) *Service {
	return &Service{clients: clients}
}

// Statement fetches the transactions for accountID between from and to.
func (s *Service) Statement(ctx context.Context, userID, accountID string, from, to time.Time) (*Statement, error) {
	if from.After(to) {
		return nil, ErrInvalidRange
	}

	client, err := s.clients.Client(ctx, userID)
	if err != nil {
		return nil, err
	}

	txs, err := client.Transactions(ctx, accountID, investec.TransactionFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return &Statement{AccountID: accountID, From: from, To: to, Transactions: txs}, nil
}

// Export fetches a statement and writes it as CSV into outputDir, which is
// created when missing.
func (s *Service) Export(ctx context.Context, userID, accountID string, from, to time.Time, outputDir string) (*Result, error) {
	st, err := s.Statement(ctx, userID, accountID, from, to)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(outputDir, st.Filename())

	err = writeFile(path, func(w io.Writer) error {
		return WriteCSV(w, st.Transactions)
	})
	if err != nil {
		return nil, err
	}

	return &Result{Path: path, Count: len(st.Transactions)}, nil
}

// writeFile creates path and fills it with write. Nothing is left on disk
// when the write or the close fails.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return err
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("closing file: %w", err)
	}

	return nil
}

// Filename is the default name for the statement's CSV file,
// e.g. investec_1234567890_20250101_20250131.csv.
func (st *Statement) Filename() string {
	safeID := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, st.AccountID)

	return fmt.Sprintf("investec_%s_%s_%s.csv", safeID, st.From.Format("20060102"), st.To.Format("20060102"))
}

// WriteCSV writes txs with a header row. Debits are written as negative amounts.
func WriteCSV(w io.Writer, txs []investec.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, tx := range txs {
		record := []string{
			tx.PostingDate.String(),
			tx.TransactionDate.String(),
			string(tx.Type),
			tx.TransactionType,
			tx.Description,
			tx.SignedAmount().StringFixed(2),
			tx.RunningBalance.StringFixed(2),
			tx.Status,
			tx.CardNumber,
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing transaction %s: %w", tx.UUID, err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return nil
}

// GenerateSummary renders one line per transaction for a quick on-screen
// overview of an export.
func GenerateSummary(txs []investec.Transaction) string {
	var sb strings.Builder

	for _, tx := range txs {
		fmt.Fprintf(&sb, "* %s | %s | %s\n", tx.PostingDate, tx.Description, money.FormatRand(tx.SignedAmount()))
	}

	fmt.Fprintf(&sb, "%d transactions", len(txs))

	return sb.String()
}
