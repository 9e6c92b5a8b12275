package abc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{name: "brazilian currency with prefix", input: "R$ 1.234,56", want: 1234.56},
		{name: "brazilian currency no prefix", input: "1.234,56", want: 1234.56},
		{name: "comma only decimal", input: "1234,56", want: 1234.56},
		{name: "single dot is decimal", input: "1234.56", want: 1234.56},
		{name: "multiple dots are thousands", input: "1.234.567", want: 1234567},
		// The separator rule is uniform, so a US-style cell is read with
		// "." as thousands and "," as decimal.
		{name: "us style read with brazilian rule", input: "1,234.56", want: 1.23456},
		{name: "zero brazilian", input: "R$ 0,00", want: 0},
		{name: "plain integer string", input: "500", want: 500},
		{name: "whitespace around prefix", input: "  R$  2.000,00 ", want: 2000},
		{name: "quoted cell", input: "\"1.500,25\"", want: 1500.25},
		{name: "negative amount", input: "-1,50", want: -1.5},
		{name: "empty string", input: "", want: 0},
		{name: "whitespace only", input: "   ", want: 0},
		{name: "stray label", input: "TOTAL", want: 0},
		{name: "non numeric residue", input: "R$ abc", want: 0},
		{name: "nil value", input: nil, want: 0},
		{name: "native float", input: 987.65, want: 987.65},
		{name: "native int", input: 42, want: 42},
		{name: "nan becomes zero", input: math.NaN(), want: 0},
		{name: "inf becomes zero", input: math.Inf(1), want: 0},
		{name: "non breaking space", input: "R$ 1.000,00", want: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAmount(tt.input)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNormalizeAmount_Deterministic(t *testing.T) {
	// The separator rule is applied uniformly; the same cell always yields
	// the same amount.
	for i := 0; i < 10; i++ {
		assert.Equal(t, NormalizeAmount("R$ 9.876,54"), NormalizeAmount("R$ 9.876,54"))
	}
}
