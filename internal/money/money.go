// Package money formats South African Rand amounts for display.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const Currency = "ZAR"

var printer = message.NewPrinter(language.English)

// FormatRand renders an amount with a leading "R" and thousands grouping,
// e.g. 3500 -> "R3,500.00" and -12.5 -> "-R12.50". The digits never pass
// through a float.
func FormatRand(d decimal.Decimal) string {
	d = d.Round(2)

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	whole := d.Truncate(0)
	cents := d.Sub(whole).Shift(2).IntPart()

	return sign + printer.Sprintf("R%d", whole.IntPart()) + fmt.Sprintf(".%02d", cents)
}

// Plain renders an amount with two decimals and no grouping, as sent to the LLM.
func Plain(d decimal.Decimal) string {
	return "R" + d.StringFixed(2)
}
