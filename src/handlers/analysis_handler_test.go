package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/curvaabc/backend/src/abc"
	"github.com/username/curvaabc/backend/src/config"
	"github.com/username/curvaabc/backend/src/models"
	"github.com/username/curvaabc/backend/src/services"
)

const uploadCSV = "ITEM;DESCRIÇÃO;TOTAL\n" +
	"1;Cimento CP-II;R$ 8.000,00\n" +
	"2;Areia lavada;R$ 1.500,00\n" +
	"3;Pregos;R$ 500,00\n"

func newTestRouter(t *testing.T) (chi.Router, services.AnalysisService) {
	t.Helper()

	config.Cfg = &config.AppConfig{
		MaxUploadSizeBytes:   10 * 1024 * 1024,
		MaxRowCount:          50000,
		DefaultSheetName:     "ARP",
		DefaultHeaderKeyword: "ITEM",
		DefaultAmountColumn:  "TOTAL",
	}

	analysisService := services.NewAnalysisService(
		abc.NewEngine(),
		cache.New(time.Minute, time.Minute),
	)
	analysisHandler := NewAnalysisHandler(analysisService)
	exportHandler := NewExportHandler(analysisService, services.NewExportService())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", HandleHealth)
		r.Route("/analysis", func(r chi.Router) {
			r.Post("/upload", analysisHandler.HandleUpload)
			r.Get("/{id}", analysisHandler.HandleGetAnalysis)
			r.Delete("/{id}", analysisHandler.HandleDeleteAnalysis)
			r.Get("/{id}/summary", analysisHandler.HandleGetSummary)
			r.Get("/{id}/chart", analysisHandler.HandleGetChart)
			r.Get("/{id}/export/xlsx", exportHandler.HandleExportXLSX)
			r.Get("/{id}/export/csv", exportHandler.HandleExportCSV)
		})
	})
	return r, analysisService
}

func multipartCSVRequest(t *testing.T, csvBody string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="planilha.csv"`)
	header.Set("Content-Type", "text/csv")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(csvBody))
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func uploadAnalysis(t *testing.T, router chi.Router) models.AnalysisResult {
	t.Helper()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartCSVRequest(t, uploadCSV, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestHandleUpload_ClassifiesCSV(t *testing.T) {
	router, _ := newTestRouter(t)

	result := uploadAnalysis(t, router)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "planilha.csv", result.SourceFile)
	assert.Equal(t, 3, result.ItemCount)
	assert.InDelta(t, 10000, result.GrandTotal, 0.001)

	require.Len(t, result.Records, 3)
	assert.Equal(t, "Cimento CP-II", result.Records[0].Description)
	assert.Equal(t, models.ClassA, result.Records[0].Class)
	assert.Equal(t, models.ClassB, result.Records[1].Class)
	assert.Equal(t, models.ClassC, result.Records[2].Class)
	assert.Equal(t, "R$ 8.000,00", result.Records[0].AmountDisplay)
}

func TestHandleUpload_RejectsMissingAmountColumn(t *testing.T) {
	router, _ := newTestRouter(t)

	req := multipartCSVRequest(t, uploadCSV, map[string]string{"amount_column": "VALOR"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Coluna")
}

func TestHandleUpload_RejectsNoPositiveAmounts(t *testing.T) {
	router, _ := newTestRouter(t)

	csvBody := "ITEM;DESCRIÇÃO;TOTAL\n1;Item A;0\n2;Item B;texto\n"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartCSVRequest(t, csvBody, nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleUpload_RejectsInvalidExcludeRows(t *testing.T) {
	router, _ := newTestRouter(t)

	req := multipartCSVRequest(t, uploadCSV, map[string]string{"exclude_rows": "1,abc"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetAnalysis_ClassFilter(t *testing.T) {
	router, _ := newTestRouter(t)
	result := uploadAnalysis(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/"+result.ID+"?class=A", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var filtered models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filtered))
	require.Len(t, filtered.Records, 1)
	assert.Equal(t, models.ClassA, filtered.Records[0].Class)
	assert.Equal(t, 1, filtered.ItemCount)
	// The grand total still refers to the whole dataset.
	assert.InDelta(t, result.GrandTotal, filtered.GrandTotal, 0.001)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/"+result.ID+"?class=X", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetAnalysis_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/desconhecida", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "não encontrada")
}

func TestHandleGetSummary(t *testing.T) {
	router, _ := newTestRouter(t)
	result := uploadAnalysis(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/"+result.ID+"/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		ID         string                `json:"id"`
		GrandTotal float64               `json:"grand_total"`
		ItemCount  int                   `json:"item_count"`
		Summary    []models.ClassSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, result.ID, payload.ID)
	assert.Equal(t, 3, payload.ItemCount)
	require.Len(t, payload.Summary, 3)
	assert.Equal(t, models.ClassA, payload.Summary[0].Class)
	assert.Equal(t, 1, payload.Summary[0].ItemCount)
}

func TestHandleGetChart(t *testing.T) {
	router, _ := newTestRouter(t)
	result := uploadAnalysis(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/"+result.ID+"/chart", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var chart models.ChartData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chart))
	require.Len(t, chart.Labels, 3)
	assert.Equal(t, []models.Class{models.ClassA, models.ClassB, models.ClassC}, chart.Classes)
	assert.InDelta(t, 100, chart.Cumulative[2], 0.01)
}

func TestHandleDeleteAnalysis(t *testing.T) {
	router, svc := newTestRouter(t)
	result := uploadAnalysis(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/analysis/"+result.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := svc.GetAnalysis(result.ID)
	assert.ErrorIs(t, err, services.ErrAnalysisNotFound)
}

func TestHandleExport(t *testing.T) {
	router, _ := newTestRouter(t)
	result := uploadAnalysis(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/"+result.ID+"/export/csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "curva_abc_classificada.csv")
	assert.Contains(t, rec.Body.String(), "CLASSIFICAÇÃO")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/"+result.ID+"/export/xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "curva_abc_classificada.xlsx")
	// xlsx payloads are zip containers.
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0x50, 0x4b}))
}

func TestHandleHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
