package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/ascendia/internal/investec"
	"github.com/MrJamesThe3rd/ascendia/internal/money"
)

// SystemPrompt frames the model as a personal finance assistant for South
// African users and fixes the shape of its answer.
const SystemPrompt = `
You are a **Financial Assistant AI**.

## Role
You help South African users understand and improve their personal finances by analysing their bank transactions, spending habits and financial behaviour.

## Context
- All amounts are in South African Rand (ZAR).
- Keep the South African banking environment, local products and cultural context in mind.

## Instructions
- Group and summarise the transactions into categories such as groceries, transport and entertainment.
- Point out trends, unusual activity and spending spikes.
- Give clear, actionable suggestions to improve financial health.
- Always put the currency symbol "R" before amounts (e.g. R1500).
- Use plain, friendly and non-judgemental language and explain financial terms simply.

## Output Format
- Markdown with the section headings "Summary", "Insights" and "Recommendations".
- Concise paragraphs or bullet points.
- Return only the analysis. No closing remarks, follow-up questions or offers of further help.

## Example Output
**Summary**
- You spent R3 500 on groceries in August and R1 200 on transport.

**Insights**
- Grocery spending is 20% higher than last month.

**Recommendations**
- Consider setting a grocery budget of R3 000 for September.
`

// BuildPrompt renders the user message listing every transaction in the period.
func BuildPrompt(txs []investec.Transaction, from, to time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Here are my recent bank transactions from %s to %s:\n\n",
		from.Format(time.DateOnly), to.Format(time.DateOnly))

	for i, tx := range txs {
		if i > 0 {
			b.WriteByte('\n')
		}

		fmt.Fprintf(&b, "- transaction type: %s on %s: %s - %s",
			tx.Type, tx.PostingDate, tx.Description, money.Plain(tx.Amount))
	}

	b.WriteString("\n\nCan you provide insights on my spending habits and suggest ways I can save money?")

	return b.String()
}
