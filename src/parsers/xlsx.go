// src/parsers/xlsx.go
package parsers

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/username/curvaabc/backend/src/logger"
	"github.com/username/curvaabc/backend/src/models"
)

// XLSXParser ingests Excel workbooks via streaming row iteration.
type XLSXParser struct{}

func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

// Parse reads an xlsx workbook and converts the selected sheet's rows into
// raw line-item records.
func (p *XLSXParser) Parse(file io.Reader, opts Options) ([]models.RawRecord, error) {
	opts = opts.withDefaults()

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("xlsx parser: failed to open workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.L.Warn("XLSX parser: failed to close workbook", "error", cerr)
		}
	}()

	sheet := opts.SheetName
	idx := -1
	if sheet != "" {
		if idx, err = f.GetSheetIndex(sheet); err != nil {
			return nil, fmt.Errorf("xlsx parser: invalid sheet name %q: %w", sheet, err)
		}
	}
	if idx == -1 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("xlsx parser: workbook has no sheets")
		}
		if sheet != "" {
			logger.L.Info("XLSX parser: sheet not found, falling back to first sheet",
				"requested", sheet, "using", sheets[0])
		}
		sheet = sheets[0]
	}

	iter, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx parser: failed to iterate sheet %q: %w", sheet, err)
	}
	defer iter.Close()

	var (
		sch        schema
		haveHeader bool
		records    []models.RawRecord
		sourceRow  int
	)
	excluded := excludeSet(opts.ExcludeRows)

	for iter.Next() {
		sourceRow++
		row, err := iter.Columns()
		if err != nil {
			return nil, fmt.Errorf("xlsx parser: failed to read row %d: %w", sourceRow, err)
		}

		if !haveHeader {
			if sourceRow > headerHuntLimit {
				break
			}
			if !rowIsHeader(row, opts.HeaderKeyword) {
				continue
			}
			sch, err = resolveSchema(row, opts)
			if err != nil {
				return nil, err
			}
			haveHeader = true
			continue
		}

		if excluded[sourceRow] {
			logger.L.Debug("XLSX parser: skipping excluded row", "row", sourceRow)
			continue
		}
		if isBlankRow(row) {
			continue
		}
		if opts.MaxRows > 0 && len(records) >= opts.MaxRows {
			return nil, fmt.Errorf("xlsx parser: %w (max %d)", ErrTooManyRows, opts.MaxRows)
		}
		records = append(records, sch.makeRecord(row, sourceRow))
	}

	if !haveHeader {
		return nil, fmt.Errorf("xlsx parser: could not locate header row with keyword %q in sheet %q",
			opts.HeaderKeyword, sheet)
	}
	return records, nil
}
