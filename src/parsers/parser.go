// src/parsers/parser.go
package parsers

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/username/curvaabc/backend/src/abc"
	"github.com/username/curvaabc/backend/src/models"
)

// ErrTooManyRows is returned when the source exceeds the configured row cap.
var ErrTooManyRows = errors.New("row count exceeds the configured limit")

// Parser converts one spreadsheet format into raw line-item records.
type Parser interface {
	Parse(file io.Reader, opts Options) ([]models.RawRecord, error)
}

// Options carries the schema mapping and pre-filtering for one ingestion.
// The source spreadsheets are inconsistent about column naming ("TOTAL",
// " TOTAL ", positional) and carry template noise rows; all of that is
// resolved here, at the boundary, so the engine only ever sees a canonical
// amount field.
type Options struct {
	// SheetName selects the worksheet (xlsx only). Falls back to the
	// first sheet when absent from the workbook.
	SheetName string

	// HeaderKeyword locates the header row: the first row with a cell
	// equal to it (case/whitespace-insensitive) within the leading rows.
	// When no row matches, the first row is taken as the header.
	HeaderKeyword string

	// AmountColumn is the header name of the monetary column.
	AmountColumn string
	// AmountColumnIndex is a 1-based positional fallback for sources
	// without a usable header. 0 means unset.
	AmountColumnIndex int

	IdentifierColumn  string
	DescriptionColumn string

	// ExcludeRows lists 1-based source row numbers to drop before the
	// records reach the engine. The original template's noise rows are
	// supplied here by the caller, never hardcoded.
	ExcludeRows []int

	// MaxRows caps the number of data rows ingested.
	MaxRows int
}

func (o Options) withDefaults() Options {
	if o.HeaderKeyword == "" {
		o.HeaderKeyword = "ITEM"
	}
	if o.AmountColumn == "" {
		o.AmountColumn = "TOTAL"
	}
	if o.IdentifierColumn == "" {
		o.IdentifierColumn = "ITEM"
	}
	return o
}

// headerHuntLimit bounds how many leading rows are scanned for the header
// keyword before giving up and treating the first row as the header.
const headerHuntLimit = 30

// normalizeHeader collapses the naming inconsistencies seen in the source
// templates (" TOTAL " vs "TOTAL", mixed case).
func normalizeHeader(h string) string {
	return strings.ToUpper(strings.TrimSpace(h))
}

// schema is the resolved column layout of one source file.
type schema struct {
	headers   []string
	amountIdx int
	identIdx  int
	descIdx   int
}

// descriptionFallbacks are tried in order when no DescriptionColumn was
// configured.
var descriptionFallbacks = []string{"DESCRIÇÃO", "DESCRICAO", "DESCRIPTION"}

func resolveSchema(headerRow []string, opts Options) (schema, error) {
	sch := schema{amountIdx: -1, identIdx: -1, descIdx: -1}
	sch.headers = make([]string, len(headerRow))
	for i, h := range headerRow {
		sch.headers[i] = normalizeHeader(h)
	}

	wantAmount := normalizeHeader(opts.AmountColumn)
	wantIdent := normalizeHeader(opts.IdentifierColumn)
	for i, h := range sch.headers {
		switch h {
		case wantAmount:
			if sch.amountIdx == -1 {
				sch.amountIdx = i
			}
		case wantIdent:
			if sch.identIdx == -1 {
				sch.identIdx = i
			}
		}
	}

	if opts.DescriptionColumn != "" {
		sch.descIdx = indexOfHeader(sch.headers, opts.DescriptionColumn)
	} else {
		for _, name := range descriptionFallbacks {
			if idx := indexOfHeader(sch.headers, name); idx != -1 {
				sch.descIdx = idx
				break
			}
		}
	}

	if sch.amountIdx == -1 && opts.AmountColumnIndex > 0 {
		sch.amountIdx = opts.AmountColumnIndex - 1
	}
	if sch.amountIdx == -1 {
		return sch, fmt.Errorf("%w: column %q not found among headers %v",
			abc.ErrMissingField, opts.AmountColumn, sch.headers)
	}
	return sch, nil
}

func indexOfHeader(headers []string, name string) int {
	want := normalizeHeader(name)
	for i, h := range headers {
		if h == want {
			return i
		}
	}
	return -1
}

// makeRecord maps one data row to a RawRecord. sourceRow is the 1-based row
// number in the source file, kept for traceability.
func (sch schema) makeRecord(row []string, sourceRow int) models.RawRecord {
	rec := models.RawRecord{SourceRow: sourceRow}

	if sch.amountIdx < len(row) {
		rec.AmountRaw = row[sch.amountIdx]
	}
	if sch.identIdx != -1 && sch.identIdx < len(row) {
		rec.Identifier = strings.TrimSpace(row[sch.identIdx])
	}
	if rec.Identifier == "" {
		rec.Identifier = strconv.Itoa(sourceRow)
	}
	if sch.descIdx != -1 && sch.descIdx < len(row) {
		rec.Description = strings.TrimSpace(row[sch.descIdx])
	}

	fields := make(map[string]string)
	for i, cell := range row {
		if i == sch.amountIdx || i == sch.identIdx || i == sch.descIdx {
			continue
		}
		if i >= len(sch.headers) || sch.headers[i] == "" {
			continue
		}
		if cell = strings.TrimSpace(cell); cell != "" {
			fields[sch.headers[i]] = cell
		}
	}
	if len(fields) > 0 {
		rec.Fields = fields
	}
	return rec
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// rowIsHeader reports whether any cell of the row matches the header keyword.
func rowIsHeader(row []string, keyword string) bool {
	want := normalizeHeader(keyword)
	for _, cell := range row {
		if normalizeHeader(cell) == want {
			return true
		}
	}
	return false
}

func excludeSet(rows []int) map[int]bool {
	if len(rows) == 0 {
		return nil
	}
	set := make(map[int]bool, len(rows))
	for _, r := range rows {
		set[r] = true
	}
	return set
}
