package investec

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ascendia/internal/investec"
	"github.com/MrJamesThe3rd/ascendia/internal/money"
)

type accountResponse struct {
	ID            string `json:"id"`
	Number        string `json:"number"`
	Name          string `json:"name"`
	ReferenceName string `json:"reference_name"`
	ProductName   string `json:"product_name"`
}

type balanceResponse struct {
	AccountID          string          `json:"account_id"`
	CurrentBalance     decimal.Decimal `json:"current_balance"`
	AvailableBalance   decimal.Decimal `json:"available_balance"`
	Currency           string          `json:"currency"`
	CurrentFormatted   string          `json:"current_formatted"`
	AvailableFormatted string          `json:"available_formatted"`
}

type transactionResponse struct {
	ID              string                   `json:"id,omitempty"`
	AccountID       string                   `json:"account_id"`
	Type            investec.TransactionType `json:"type"`
	TransactionType string                   `json:"transaction_type"`
	Status          string                   `json:"status"`
	Description     string                   `json:"description"`
	PostingDate     investec.Date            `json:"posting_date"`
	TransactionDate investec.Date            `json:"transaction_date"`
	Amount          decimal.Decimal          `json:"amount"`
	AmountFormatted string                   `json:"amount_formatted"`
	RunningBalance  decimal.Decimal          `json:"running_balance"`
}

type beneficiaryResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	AccountNumber     string `json:"account_number"`
	Bank              string `json:"bank"`
	ReferenceName     string `json:"reference_name"`
	Type              string `json:"type"`
	LastPaymentAmount string `json:"last_payment_amount"`
	LastPaymentDate   string `json:"last_payment_date"`
}

func toAccountResponses(accounts []investec.Account) []accountResponse {
	resp := make([]accountResponse, len(accounts))
	for i, a := range accounts {
		resp[i] = accountResponse{
			ID:            a.AccountID,
			Number:        a.AccountNumber,
			Name:          a.AccountName,
			ReferenceName: a.ReferenceName,
			ProductName:   a.ProductName,
		}
	}

	return resp
}

func toBalanceResponse(b *investec.Balance) balanceResponse {
	currency := b.Currency
	if currency == "" {
		currency = money.Currency
	}

	return balanceResponse{
		AccountID:          b.AccountID,
		CurrentBalance:     b.CurrentBalance,
		AvailableBalance:   b.AvailableBalance,
		Currency:           currency,
		CurrentFormatted:   money.FormatRand(b.CurrentBalance),
		AvailableFormatted: money.FormatRand(b.AvailableBalance),
	}
}

// toTransactionResponses signs amounts so debits are negative.
func toTransactionResponses(txs []investec.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		amount := tx.SignedAmount()

		resp[i] = transactionResponse{
			ID:              tx.UUID,
			AccountID:       tx.AccountID,
			Type:            tx.Type,
			TransactionType: tx.TransactionType,
			Status:          tx.Status,
			Description:     tx.Description,
			PostingDate:     tx.PostingDate,
			TransactionDate: tx.TransactionDate,
			Amount:          amount,
			AmountFormatted: money.FormatRand(amount),
			RunningBalance:  tx.RunningBalance,
		}
	}

	return resp
}

func toBeneficiaryResponses(bs []investec.Beneficiary) []beneficiaryResponse {
	resp := make([]beneficiaryResponse, len(bs))
	for i, b := range bs {
		resp[i] = beneficiaryResponse{
			ID:                b.BeneficiaryID,
			Name:              b.BeneficiaryName,
			AccountNumber:     b.AccountNumber,
			Bank:              b.Bank,
			ReferenceName:     b.ReferenceName,
			Type:              b.BeneficiaryType,
			LastPaymentAmount: b.LastPaymentAmount,
			LastPaymentDate:   b.LastPaymentDate,
		}
	}

	return resp
}
