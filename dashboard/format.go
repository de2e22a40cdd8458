package dashboard

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// formatCurrency renders v as $1,234.56.
func formatCurrency(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

// formatCount renders v with thousands separators.
func formatCount(v float64) string {
	return printer.Sprintf("%d", int64(v))
}
