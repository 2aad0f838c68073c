// Package investec is a client for the Investec Programmable Banking API.
//
// Authentication uses the OAuth2 client-credentials grant. The client keeps
// one access token in memory, optionally mirrored to a TokenStore, refreshes
// it shortly before it expires and replays a request exactly once when the
// API answers 401 with a token it believed to be valid.
package investec

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Credentials identify an Investec developer application.
type Credentials struct {
	ClientID     string
	ClientSecret string
	APIKey       string
}

func (c Credentials) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" || c.APIKey == "" {
		return ErrMissingCredentials
	}

	return nil
}

// Date is a calendar date encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}

	d.Time = t

	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}

	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}

	return d.Format(time.DateOnly)
}

type Account struct {
	AccountID     string `json:"accountId"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	ReferenceName string `json:"referenceName"`
	ProductName   string `json:"productName"`
	KYCCompliant  bool   `json:"kycCompliant"`
	ProfileID     string `json:"profileId"`
	ProfileName   string `json:"profileName"`
}

type Balance struct {
	AccountID        string          `json:"accountId"`
	CurrentBalance   decimal.Decimal `json:"currentBalance"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	BudgetBalance    decimal.Decimal `json:"budgetBalance"`
	StraightBalance  decimal.Decimal `json:"straightBalance"`
	CashBalance      decimal.Decimal `json:"cashBalance"`
	Currency         string          `json:"currency"`
}

// TransactionType is the debit/credit direction reported by the bank.
type TransactionType string

const (
	TypeDebit  TransactionType = "DEBIT"
	TypeCredit TransactionType = "CREDIT"
)

type Transaction struct {
	AccountID       string          `json:"accountId"`
	Type            TransactionType `json:"type"`
	TransactionType string          `json:"transactionType"`
	Status          string          `json:"status"`
	Description     string          `json:"description"`
	CardNumber      string          `json:"cardNumber"`
	PostedOrder     int             `json:"postedOrder"`
	PostingDate     Date            `json:"postingDate"`
	ValueDate       Date            `json:"valueDate"`
	ActionDate      Date            `json:"actionDate"`
	TransactionDate Date            `json:"transactionDate"`
	Amount          decimal.Decimal `json:"amount"`
	RunningBalance  decimal.Decimal `json:"runningBalance"`
	UUID            string          `json:"uuid"`
}

// SignedAmount is the amount with debits negative and credits as reported,
// regardless of the sign the bank sent for a debit.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TypeDebit {
		return t.Amount.Abs().Neg()
	}

	return t.Amount
}

type Beneficiary struct {
	BeneficiaryID          string `json:"beneficiaryId"`
	AccountNumber          string `json:"accountNumber"`
	Code                   string `json:"code"`
	Bank                   string `json:"bank"`
	BeneficiaryName        string `json:"beneficiaryName"`
	LastPaymentAmount      string `json:"lastPaymentAmount"`
	LastPaymentDate        string `json:"lastPaymentDate"`
	ReferenceAccountNumber string `json:"referenceAccountNumber"`
	ReferenceName          string `json:"referenceName"`
	BeneficiaryType        string `json:"beneficiaryType"`
}

// TransactionFilter narrows a transaction listing. Nil bounds are omitted.
type TransactionFilter struct {
	From *time.Time
	To   *time.Time
	Type string
}
