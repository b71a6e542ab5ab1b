package reminder

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// amountPrinter renders "." as the thousands separator and "," as the
// decimal separator.
var amountPrinter = message.NewPrinter(language.Indonesian)

// FormatCurrency renders an amount with two decimals in Indonesian notation:
// 1234.5 becomes "Rp1.234,50". The sign follows the symbol: "Rp-1.234,50".
func FormatCurrency(symbol string, amount decimal.Decimal) string {
	rounded := amount.Round(2)

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	digits := amountPrinter.Sprint(number.Decimal(rounded.Abs().InexactFloat64(), number.Scale(2)))
	return symbol + sign + digits
}
