package models

import "time"

// Class is the ABC band assigned to a record from its cumulative incidence.
type Class string

const (
	ClassA Class = "A"
	ClassB Class = "B"
	ClassC Class = "C"
)

// RawRecord is the unified, intermediate representation of one line item.
// Each parser is responsible for populating these fields directly from the
// source file; the amount is kept exactly as supplied (string or numeric)
// so that normalization happens in one place, inside the engine.
type RawRecord struct {
	// Identifier is an opaque key for traceability: the source "ITEM" cell
	// when one exists, otherwise the 1-based source row number.
	Identifier  string `json:"identifier"`
	Description string `json:"description"`

	// AmountRaw is the monetary field as supplied: a string such as
	// "R$ 1.234,56", or a float64 when the source cell was already numeric.
	AmountRaw any `json:"amount_raw"`

	// SourceRow is the 1-based row number in the source file.
	SourceRow int `json:"source_row"`

	// Fields carries any remaining columns of the row, keyed by
	// normalized header name, for downstream display.
	Fields map[string]string `json:"fields,omitempty"`
}

// Record is one classified line item in the output dataset.
type Record struct {
	Identifier    string  `json:"identifier"`
	Description   string  `json:"description"`
	AmountRaw     string  `json:"amount_raw"`
	Amount        float64 `json:"amount"`
	AmountDisplay string  `json:"amount_display"` // pt-BR formatted, e.g. "R$ 1.234,56"
	IncidencePct  float64 `json:"incidence_pct"`
	CumulativePct float64 `json:"cumulative_pct"`
	Class         Class   `json:"class"`

	SourceRow int               `json:"source_row"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// ClassSummary aggregates the records of one class. Classes with zero
// members after filtering are omitted from the summary entirely, so
// consumers must tolerate fewer than three entries.
type ClassSummary struct {
	Class       Class   `json:"class"`
	ItemCount   int     `json:"item_count"`
	TotalAmount float64 `json:"total_amount"`
	MeanAmount  float64 `json:"mean_amount"`
	PctOfTotal  float64 `json:"pct_of_total"`
}

// AnalysisResult is the complete outcome of one upload: the classified
// dataset ordered by amount descending plus the per-class summary. It is
// recomputed in full on every upload and held only in the report cache.
type AnalysisResult struct {
	ID          string         `json:"id"`
	SourceFile  string         `json:"source_file"`
	GeneratedAt time.Time      `json:"generated_at"`
	ItemCount   int            `json:"item_count"`
	GrandTotal  float64        `json:"grand_total"`
	Records     []Record       `json:"records"`
	Summary     []ClassSummary `json:"summary"`
}

// ChartData is the Pareto-chart-ready projection of an AnalysisResult.
// Rendering is the frontend's job; this is data only.
type ChartData struct {
	Labels     []string  `json:"labels"`
	Incidence  []float64 `json:"incidence"`
	Cumulative []float64 `json:"cumulative"`
	Classes    []Class   `json:"classes"`
}
