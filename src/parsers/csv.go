// src/parsers/csv.go
package parsers

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/username/curvaabc/backend/src/logger"
	"github.com/username/curvaabc/backend/src/models"
)

// CSVParser ingests delimiter-separated procurement listings. The source
// exports are inconsistent: some are tab-separated, some use ";" or ",",
// so the delimiter is sniffed from the first line.
type CSVParser struct{}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// sniffDelimiter picks the candidate occurring most often in the first line.
func sniffDelimiter(line string) rune {
	best, bestCount := ',', 0
	for _, cand := range []rune{'\t', ';', ','} {
		if c := strings.Count(line, string(cand)); c > bestCount {
			best, bestCount = cand, c
		}
	}
	return best
}

// Parse reads a CSV file and converts its rows into raw line-item records.
func (p *CSVParser) Parse(file io.Reader, opts Options) ([]models.RawRecord, error) {
	opts = opts.withDefaults()

	br := bufio.NewReader(file)
	firstLine, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("csv parser: failed to read input: %w", err)
	}
	if idx := strings.IndexByte(string(firstLine), '\n'); idx != -1 {
		firstLine = firstLine[:idx]
	}

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(string(firstLine))
	reader.FieldsPerRecord = -1 // Allow variable number of fields per record
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv parser: failed to read records: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Locate the header row. Template exports sometimes carry title rows
	// above the real header, so hunt for the keyword first.
	headerIdx := 0
	for i, row := range rows {
		if i >= headerHuntLimit {
			break
		}
		if rowIsHeader(row, opts.HeaderKeyword) {
			headerIdx = i
			break
		}
	}

	sch, err := resolveSchema(rows[headerIdx], opts)
	if err != nil {
		return nil, err
	}

	excluded := excludeSet(opts.ExcludeRows)
	var records []models.RawRecord
	for i := headerIdx + 1; i < len(rows); i++ {
		sourceRow := i + 1 // 1-based, counting from the top of the file
		if excluded[sourceRow] {
			logger.L.Debug("CSV parser: skipping excluded row", "row", sourceRow)
			continue
		}
		if isBlankRow(rows[i]) {
			continue
		}
		if opts.MaxRows > 0 && len(records) >= opts.MaxRows {
			return nil, fmt.Errorf("csv parser: %w (max %d)", ErrTooManyRows, opts.MaxRows)
		}
		records = append(records, sch.makeRecord(rows[i], sourceRow))
	}
	return records, nil
}
