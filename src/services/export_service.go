// src/services/export_service.go
package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/username/curvaabc/backend/src/models"
	"github.com/username/curvaabc/backend/src/security/validation"
	"github.com/username/curvaabc/backend/src/utils"
)

// Column headers mirror the source templates so the exported workbook drops
// back into the users' existing routines.
var exportHeaders = []string{
	"ITEM",
	"DESCRIÇÃO",
	"TOTAL",
	"TOTAL (R$)",
	"INCIDÊNCIA DO ITEM (%)",
	"INCIDÊNCIA ACUMULADA (%)",
	"CLASSIFICAÇÃO",
}

var summaryHeaders = []string{
	"CLASSE",
	"QUANTIDADE DE ITENS",
	"VALOR TOTAL",
	"VALOR MÉDIO",
	"% DO TOTAL",
}

type exportServiceImpl struct{}

func NewExportService() ExportService {
	return &exportServiceImpl{}
}

// BuildXLSX renders the classified dataset into a workbook with a
// "CURVA ABC" sheet and a "RESUMO" summary sheet.
func (s *exportServiceImpl) BuildXLSX(result *models.AnalysisResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const dataSheet = "CURVA ABC"
	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return nil, fmt.Errorf("xlsx export: failed to rename sheet: %w", err)
	}

	if err := f.SetSheetRow(dataSheet, "A1", &exportHeaders); err != nil {
		return nil, fmt.Errorf("xlsx export: failed to write header: %w", err)
	}
	for i, rec := range result.Records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			exportCell(rec.Identifier),
			exportCell(rec.Description),
			rec.Amount,
			exportCell(rec.AmountDisplay),
			rec.IncidencePct,
			rec.CumulativePct,
			string(rec.Class),
		}
		if err := f.SetSheetRow(dataSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("xlsx export: failed to write row %d: %w", i+2, err)
		}
	}

	const summarySheet = "RESUMO"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("xlsx export: failed to create summary sheet: %w", err)
	}
	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeaders); err != nil {
		return nil, fmt.Errorf("xlsx export: failed to write summary header: %w", err)
	}
	for i, sum := range result.Summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			string(sum.Class),
			sum.ItemCount,
			exportCell(utils.FormatBRL(sum.TotalAmount)),
			exportCell(utils.FormatBRL(sum.MeanAmount)),
			sum.PctOfTotal,
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("xlsx export: failed to write summary row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx export: failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildCSV renders the classified dataset as a comma-separated table.
func (s *exportServiceImpl) BuildCSV(result *models.AnalysisResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeaders); err != nil {
		return nil, fmt.Errorf("csv export: %w", err)
	}
	for _, rec := range result.Records {
		row := []string{
			exportCell(rec.Identifier),
			exportCell(rec.Description),
			strconv.FormatFloat(rec.Amount, 'f', 2, 64),
			exportCell(rec.AmountDisplay),
			strconv.FormatFloat(rec.IncidencePct, 'f', 2, 64),
			strconv.FormatFloat(rec.CumulativePct, 'f', 2, 64),
			string(rec.Class),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("csv export: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv export: %w", err)
	}
	return buf.Bytes(), nil
}

// exportCell guards every text cell against formula injection.
func exportCell(s string) string {
	return validation.SanitizeForFormulaInjection(s)
}
