// src/utils/utils.go
package utils

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/username/curvaabc/backend/src/logger"
)

// RoundFloat rounds val to the given number of decimal places.
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// FormatBRL renders an amount in Brazilian currency format, e.g.
// 1234.5 -> "R$ 1.234,50".
func FormatBRL(val float64) string {
	d := decimal.NewFromFloat(val).StringFixed(2) // "1234.50"

	negative := strings.HasPrefix(d, "-")
	d = strings.TrimPrefix(d, "-")

	parts := strings.SplitN(d, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	// Insert "." thousands separators right to left.
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := "R$ " + b.String() + "," + fracPart
	if negative {
		out = "-" + out
	}
	return out
}

// SendJSONResponse writes v as a JSON response with the given status code.
func SendJSONResponse(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Error("Error encoding JSON response", "error", err)
	}
}

// SendJSONError writes a JSON error body with the given status code.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	SendJSONResponse(w, map[string]string{"error": message}, statusCode)
}
