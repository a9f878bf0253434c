package campaign

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney renders a dollar amount the way the campaign UI shows it:
// "$2.5M" from a million up, grouped digits below that.
func FormatMoney(v float64) string {
	neg := ""
	if v < 0 {
		neg, v = "-", -v
	}
	if v >= 1_000_000 {
		return moneyPrinter.Sprintf("%s$%.1fM", neg, v/1_000_000)
	}
	return moneyPrinter.Sprintf("%s$%d", neg, int64(v))
}
