// src/handlers/analysis_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/username/curvaabc/backend/src/abc"
	"github.com/username/curvaabc/backend/src/config"
	"github.com/username/curvaabc/backend/src/logger"
	"github.com/username/curvaabc/backend/src/models"
	"github.com/username/curvaabc/backend/src/parsers"
	"github.com/username/curvaabc/backend/src/security/validation"
	"github.com/username/curvaabc/backend/src/services"
	"github.com/username/curvaabc/backend/src/utils"
)

type AnalysisHandler struct {
	analysisService services.AnalysisService
}

func NewAnalysisHandler(service services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: service,
	}
}

// HandleUpload receives a multipart spreadsheet upload, runs the ABC
// classification and returns the full analysis result as JSON.
//
// Optional form values: "sheet", "amount_column", "header_keyword",
// "exclude_rows" (comma-separated 1-based row numbers).
func (h *AnalysisHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		ctxLogger.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Falha ao processar ou o ficheiro é demasiado grande (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	opts, err := ingestOptionsFromForm(r)
	if err != nil {
		ctxLogger.Warn("Invalid ingest options", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		ctxLogger.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Ficheiro demasiado grande, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		ctxLogger.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	kind, err := validation.DetectUploadKind(file)
	if err != nil {
		ctxLogger.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctxLogger.Info("Processing upload request", "filename", fileHeader.Filename, "kind", kind)

	result, err := h.analysisService.ProcessUpload(file, fileHeader.Filename, kind, opts)
	if err != nil {
		status, msg := mapUploadError(err)
		ctxLogger.Warn("Upload processing failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, msg, status)
		return
	}

	utils.SendJSONResponse(w, result, http.StatusOK)
}

// HandleGetAnalysis returns a cached analysis; "?class=A" filters records.
func (h *AnalysisHandler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	result, ok := h.fetchAnalysis(w, r)
	if !ok {
		return
	}

	classParam := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("class")))
	if classParam == "" {
		utils.SendJSONResponse(w, result, http.StatusOK)
		return
	}

	class := models.Class(classParam)
	if class != models.ClassA && class != models.ClassB && class != models.ClassC {
		utils.SendJSONError(w, "class filter must be A, B or C", http.StatusBadRequest)
		return
	}

	filtered := *result
	filtered.Records = make([]models.Record, 0, len(result.Records))
	for _, rec := range result.Records {
		if rec.Class == class {
			filtered.Records = append(filtered.Records, rec)
		}
	}
	filtered.ItemCount = len(filtered.Records)
	utils.SendJSONResponse(w, &filtered, http.StatusOK)
}

// HandleGetSummary returns only the per-class aggregates.
func (h *AnalysisHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	result, ok := h.fetchAnalysis(w, r)
	if !ok {
		return
	}
	utils.SendJSONResponse(w, map[string]any{
		"id":          result.ID,
		"grand_total": result.GrandTotal,
		"item_count":  result.ItemCount,
		"summary":     result.Summary,
	}, http.StatusOK)
}

// HandleGetChart returns Pareto-chart-ready arrays. Rendering is the
// frontend's job.
func (h *AnalysisHandler) HandleGetChart(w http.ResponseWriter, r *http.Request) {
	result, ok := h.fetchAnalysis(w, r)
	if !ok {
		return
	}

	chart := models.ChartData{
		Labels:     make([]string, len(result.Records)),
		Incidence:  make([]float64, len(result.Records)),
		Cumulative: make([]float64, len(result.Records)),
		Classes:    make([]models.Class, len(result.Records)),
	}
	for i, rec := range result.Records {
		chart.Labels[i] = rec.Identifier
		chart.Incidence[i] = rec.IncidencePct
		chart.Cumulative[i] = rec.CumulativePct
		chart.Classes[i] = rec.Class
	}
	utils.SendJSONResponse(w, &chart, http.StatusOK)
}

// HandleDeleteAnalysis drops a cached analysis.
func (h *AnalysisHandler) HandleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.analysisService.InvalidateAnalysis(id)
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth is a liveness probe.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.SendJSONResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *AnalysisHandler) fetchAnalysis(w http.ResponseWriter, r *http.Request) (*models.AnalysisResult, bool) {
	id := chi.URLParam(r, "id")
	result, err := h.analysisService.GetAnalysis(id)
	if err != nil {
		if errors.Is(err, services.ErrAnalysisNotFound) {
			utils.SendJSONError(w, "Análise não encontrada ou expirada", http.StatusNotFound)
		} else {
			logger.FromContext(r.Context()).Error("Error retrieving analysis", "analysisID", id, "error", err)
			utils.SendJSONError(w, "Error retrieving analysis", http.StatusInternalServerError)
		}
		return nil, false
	}
	return result, true
}

func ingestOptionsFromForm(r *http.Request) (parsers.Options, error) {
	var opts parsers.Options

	sheet := r.FormValue("sheet")
	if err := validation.ValidateSheetName(sheet); err != nil {
		return opts, err
	}
	amountColumn := r.FormValue("amount_column")
	if err := validation.ValidateColumnName(amountColumn, "amount_column"); err != nil {
		return opts, err
	}
	headerKeyword := r.FormValue("header_keyword")
	if err := validation.ValidateColumnName(headerKeyword, "header_keyword"); err != nil {
		return opts, err
	}
	excludeRows, err := validation.ParseExcludeRows(r.FormValue("exclude_rows"))
	if err != nil {
		return opts, err
	}

	opts.SheetName = strings.TrimSpace(sheet)
	opts.AmountColumn = strings.TrimSpace(amountColumn)
	opts.HeaderKeyword = strings.TrimSpace(headerKeyword)
	opts.ExcludeRows = excludeRows

	if config.Cfg != nil {
		if opts.SheetName == "" {
			opts.SheetName = config.Cfg.DefaultSheetName
		}
		if opts.AmountColumn == "" {
			opts.AmountColumn = config.Cfg.DefaultAmountColumn
		}
		if opts.HeaderKeyword == "" {
			opts.HeaderKeyword = config.Cfg.DefaultHeaderKeyword
		}
	}
	return opts, nil
}

// mapUploadError translates the engine's error taxonomy into HTTP responses
// with distinguishable, user-facing messages.
func mapUploadError(err error) (int, string) {
	switch {
	case errors.Is(err, abc.ErrEmptyInput):
		return http.StatusUnprocessableEntity, "A tabela enviada não contém linhas de dados"
	case errors.Is(err, abc.ErrNoPositiveAmounts):
		return http.StatusUnprocessableEntity, "Nenhum valor monetário válido encontrado na planilha"
	case errors.Is(err, abc.ErrMissingField):
		return http.StatusBadRequest, fmt.Sprintf("Coluna de valores não encontrada: %v", err)
	case errors.Is(err, abc.ErrDegenerateTotal):
		return http.StatusUnprocessableEntity, "A soma total dos valores é zero"
	case errors.Is(err, parsers.ErrTooManyRows):
		return http.StatusBadRequest, "A planilha excede o número máximo de linhas permitido"
	case errors.Is(err, services.ErrParsingFailed):
		return http.StatusBadRequest, fmt.Sprintf("Erro ao processar arquivo: %v", err)
	default:
		return http.StatusInternalServerError, "Erro interno ao processar a análise"
	}
}
