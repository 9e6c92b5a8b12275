// src/handlers/export_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/username/curvaabc/backend/src/logger"
	"github.com/username/curvaabc/backend/src/models"
	"github.com/username/curvaabc/backend/src/services"
	"github.com/username/curvaabc/backend/src/utils"
)

type ExportHandler struct {
	analysisService services.AnalysisService
	exportService   services.ExportService
}

func NewExportHandler(analysisService services.AnalysisService, exportService services.ExportService) *ExportHandler {
	return &ExportHandler{
		analysisService: analysisService,
		exportService:   exportService,
	}
}

// HandleExportXLSX streams the classified dataset as an Excel download.
func (h *ExportHandler) HandleExportXLSX(w http.ResponseWriter, r *http.Request) {
	result, ok := h.fetch(w, r)
	if !ok {
		return
	}

	data, err := h.exportService.BuildXLSX(result)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to build xlsx export", "analysisID", result.ID, "error", err)
		utils.SendJSONError(w, "Failed to build export", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="curva_abc_classificada.xlsx"`)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	if _, err := w.Write(data); err != nil {
		logger.FromContext(r.Context()).Error("Failed to write xlsx response", "analysisID", result.ID, "error", err)
	}
}

// HandleExportCSV streams the classified dataset as a CSV download.
func (h *ExportHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	result, ok := h.fetch(w, r)
	if !ok {
		return
	}

	data, err := h.exportService.BuildCSV(result)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to build csv export", "analysisID", result.ID, "error", err)
		utils.SendJSONError(w, "Failed to build export", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="curva_abc_classificada.csv"`)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	if _, err := w.Write(data); err != nil {
		logger.FromContext(r.Context()).Error("Failed to write csv response", "analysisID", result.ID, "error", err)
	}
}

func (h *ExportHandler) fetch(w http.ResponseWriter, r *http.Request) (*models.AnalysisResult, bool) {
	id := chi.URLParam(r, "id")
	res, err := h.analysisService.GetAnalysis(id)
	if err != nil {
		if errors.Is(err, services.ErrAnalysisNotFound) {
			utils.SendJSONError(w, "Análise não encontrada ou expirada", http.StatusNotFound)
		} else {
			logger.FromContext(r.Context()).Error("Error retrieving analysis for export", "analysisID", id, "error", err)
			utils.SendJSONError(w, "Error retrieving analysis", http.StatusInternalServerError)
		}
		return nil, false
	}
	return res, true
}
