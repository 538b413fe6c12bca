package notifications

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney renders amount with the symbol and precision of the ISO code.
// Unknown codes fall back to "<CODE> <amount>" with two decimals.
func FormatMoney(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		return strings.TrimSpace(code + " " + amount.StringFixed(2))
	}
	value, _ := amount.Float64()
	return moneyPrinter.Sprint(currency.Symbol(unit.Amount(value)))
}
