// src/abc/engine.go
package abc

import (
	"sort"
	"strconv"

	"github.com/username/curvaabc/backend/src/models"
	"github.com/username/curvaabc/backend/src/utils"
)

// Cumulative-incidence thresholds for the classic Pareto 80/15/5 split.
// Both bounds are inclusive: a record landing exactly on 80.00 is class A,
// exactly on 95.00 is class B.
const (
	ThresholdA = 80.0
	ThresholdB = 95.0
)

// Result is the outcome of one classification run.
type Result struct {
	Records    []models.Record
	Summary    []models.ClassSummary
	GrandTotal float64
}

// Engine turns raw line items into an ABC-classified dataset. It is a pure
// synchronous transformation: no I/O, no state between calls, safe for
// concurrent use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// ClassifyCumulative maps a cumulative incidence percentage to its class.
func ClassifyCumulative(cumulativePct float64) models.Class {
	switch {
	case cumulativePct <= ThresholdA:
		return models.ClassA
	case cumulativePct <= ThresholdB:
		return models.ClassB
	default:
		return models.ClassC
	}
}

// Classify runs the whole pipeline: normalize, filter, rank, compute
// incidence and cumulative incidence, assign classes, summarize. It either
// returns a complete, internally consistent result or an error; never a
// partial classification.
func (e *Engine) Classify(raw []models.RawRecord) (*Result, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyInput
	}

	// Normalize and filter in one pass. Records whose amount is not
	// strictly positive are dropped entirely: they neither count toward
	// the grand total nor appear in the output.
	records := make([]models.Record, 0, len(raw))
	for _, r := range raw {
		amount := NormalizeAmount(r.AmountRaw)
		if amount <= 0 {
			continue
		}
		records = append(records, models.Record{
			Identifier:  r.Identifier,
			Description: r.Description,
			AmountRaw:   rawString(r.AmountRaw),
			Amount:      amount,
			SourceRow:   r.SourceRow,
			Fields:      r.Fields,
		})
	}
	if len(records) == 0 {
		return nil, ErrNoPositiveAmounts
	}

	// Rank by amount descending. The sort must be stable so that tied
	// amounts keep their input order; an unspecified tie-break could flip
	// which side of the 80/95 boundary a tied item lands on.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Amount > records[j].Amount
	})

	var grandTotal float64
	for _, r := range records {
		grandTotal += r.Amount
	}
	if grandTotal <= 0 {
		// Unreachable after the filter above, but the components are
		// reusable on their own.
		return nil, ErrDegenerateTotal
	}

	// Incidence and cumulative incidence are accumulated at full float64
	// precision; rounding to two decimals happens once, on the output
	// fields, so rounding error never compounds across rows.
	var cumulative float64
	for i := range records {
		incidence := records[i].Amount / grandTotal * 100
		cumulative += incidence

		records[i].IncidencePct = utils.RoundFloat(incidence, 2)
		records[i].CumulativePct = utils.RoundFloat(cumulative, 2)
		records[i].Class = ClassifyCumulative(cumulative)
		// The top-ranked item is always class A, even when it alone
		// exceeds the B band.
		if i == 0 {
			records[i].Class = models.ClassA
		}
		records[i].AmountDisplay = utils.FormatBRL(records[i].Amount)
	}

	return &Result{
		Records:    records,
		Summary:    Summarize(records, grandTotal),
		GrandTotal: grandTotal,
	}, nil
}

func rawString(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	default:
		return ""
	}
}
