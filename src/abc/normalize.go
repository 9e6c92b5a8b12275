// src/abc/normalize.go
package abc

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeAmount converts a monetary value in an ambiguous representation
// into a float64 amount. Numeric inputs pass through unchanged (NaN and
// ±Inf become 0). String inputs may carry an "R$" prefix, thousands
// separators and either "," or "." as the decimal separator.
//
// Separator rule, applied uniformly to every cell rather than guessed
// per row:
//   - both "." and "," present: "." is the thousands separator, "," the
//     decimal separator ("R$ 1.234,56" -> 1234.56);
//   - only "," present: "," is the decimal separator;
//   - only "." present: decimal separator when it occurs exactly once,
//     thousands separator otherwise ("1.234.567" -> 1234567).
//
// Any parse failure (empty string, a stray label such as "TOTAL",
// non-numeric residue) yields 0 rather than an error; the record filter
// drops those rows afterwards.
func NormalizeAmount(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case float32:
		return NormalizeAmount(float64(n))
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		return normalizeAmountString(n)
	default:
		return 0
	}
}

func normalizeAmountString(s string) float64 {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.Trim(cleaned, "\"")
	cleaned = strings.TrimPrefix(cleaned, "R$")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	// Non-breaking spaces show up in cells copied out of Excel.
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	if cleaned == "" {
		return 0
	}

	hasDot := strings.Contains(cleaned, ".")
	hasComma := strings.Contains(cleaned, ",")

	switch {
	case hasDot && hasComma:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasDot && strings.Count(cleaned, ".") > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
