package analysis_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/ascendia/internal/analysis"
	"github.com/MrJamesThe3rd/ascendia/internal/investec"
)

func TestBuildPrompt(t *testing.T) {
	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)

	txs := []investec.Transaction{
		{
			Type:        investec.TypeDebit,
			Description: "WOOLWORTHS CAPE TOWN",
			PostingDate: investec.NewDate(time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC)),
			Amount:      decimal.RequireFromString("452.3"),
		},
		{
			Type:        investec.TypeCredit,
			Description: "SALARY",
			PostingDate: investec.NewDate(time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC)),
			Amount:      decimal.NewFromInt(25000),
		},
	}

	want := "Here are my recent bank transactions from 2025-08-01 to 2025-08-31:\n\n" +
		"- transaction type: DEBIT on 2025-08-03: WOOLWORTHS CAPE TOWN - R452.30\n" +
		"- transaction type: CREDIT on 2025-08-25: SALARY - R25000.00\n\n" +
		"Can you provide insights on my spending habits and suggest ways I can save money?"

	assert.Equal(t, want, analysis.BuildPrompt(txs, from, to))
}

func TestSystemPrompt_Sections(t *testing.T) {
	for _, heading := range []string{"Summary", "Insights", "Recommendations", "ZAR"} {
		assert.Contains(t, analysis.SystemPrompt, heading)
	}
}
