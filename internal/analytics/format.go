package analytics

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is shown for values that cannot be computed
const Placeholder = "-"

var printer = message.NewPrinter(language.BrazilianPortuguese)

// SafeRatio returns num/den, or 0 when den is not positive
func SafeRatio(num, den float64) float64 {
	if den > 0 {
		return num / den
	}
	return 0
}

// RoundKg rounds a weight to whole kilograms, half to even
func RoundKg(v float64) int64 {
	return int64(math.RoundToEven(v))
}

// FormatKg formats a weight as whole kilograms with pt-BR grouping
func FormatKg(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Placeholder
	}
	return printer.Sprintf("%d kg", RoundKg(v))
}

// FormatPercent formats a ratio as a percentage with one decimal
func FormatPercent(ratio float64) string {
	return printer.Sprintf("%.1f%%", ratio*100)
}

// FormatDays formats a day count with one decimal
func FormatDays(days float64) string {
	return printer.Sprintf("%.1f dias", days)
}
