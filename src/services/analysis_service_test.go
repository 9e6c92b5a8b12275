package services

import (
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/curvaabc/backend/src/abc"
	"github.com/username/curvaabc/backend/src/models"
	"github.com/username/curvaabc/backend/src/parsers"
	"github.com/username/curvaabc/backend/src/security/validation"
)

func newTestService() AnalysisService {
	return NewAnalysisService(abc.NewEngine(), cache.New(time.Minute, time.Minute))
}

const sampleCSV = "ITEM\tDESCRIÇÃO\tTOTAL\n" +
	"1\tCimento\tR$ 1.000,00\n" +
	"2\tAreia\tR$ 800,00\n" +
	"3\tBrita\tR$ 200,00\n"

func TestAnalysisService_ProcessUpload(t *testing.T) {
	svc := newTestService()

	result, err := svc.ProcessUpload(strings.NewReader(sampleCSV), "planilha.csv", validation.KindCSV, parsers.Options{})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "planilha.csv", result.SourceFile)
	assert.Equal(t, 3, result.ItemCount)
	assert.InDelta(t, 2000.0, result.GrandTotal, 0.01)
	require.Len(t, result.Records, 3)
	assert.Equal(t, models.ClassA, result.Records[0].Class)
	assert.Equal(t, models.ClassB, result.Records[1].Class)
	assert.Equal(t, models.ClassC, result.Records[2].Class)
	assert.Len(t, result.Summary, 3)
}

func TestAnalysisService_GetAnalysis_RoundTrip(t *testing.T) {
	svc := newTestService()

	uploaded, err := svc.ProcessUpload(strings.NewReader(sampleCSV), "planilha.csv", validation.KindCSV, parsers.Options{})
	require.NoError(t, err)

	fetched, err := svc.GetAnalysis(uploaded.ID)
	require.NoError(t, err)
	assert.Equal(t, uploaded, fetched)
}

func TestAnalysisService_GetAnalysis_NotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.GetAnalysis("nope")
	assert.ErrorIs(t, err, ErrAnalysisNotFound)
}

func TestAnalysisService_InvalidateAnalysis(t *testing.T) {
	svc := newTestService()

	uploaded, err := svc.ProcessUpload(strings.NewReader(sampleCSV), "planilha.csv", validation.KindCSV, parsers.Options{})
	require.NoError(t, err)

	svc.InvalidateAnalysis(uploaded.ID)
	_, err = svc.GetAnalysis(uploaded.ID)
	assert.ErrorIs(t, err, ErrAnalysisNotFound)
}

func TestAnalysisService_UnsupportedKind(t *testing.T) {
	svc := newTestService()

	_, err := svc.ProcessUpload(strings.NewReader(sampleCSV), "p.csv", "pdf", parsers.Options{})
	assert.ErrorIs(t, err, ErrParsingFailed)
}

func TestAnalysisService_SanitizesDescriptions(t *testing.T) {
	svc := newTestService()

	csvData := "ITEM\tDESCRIÇÃO\tTOTAL\n" +
		"1\t<script>alert(1)</script>Cimento\tR$ 100,00\n"

	result, err := svc.ProcessUpload(strings.NewReader(csvData), "p.csv", validation.KindCSV, parsers.Options{})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.NotContains(t, result.Records[0].Description, "<script>")
	assert.Contains(t, result.Records[0].Description, "Cimento")
}

func TestAnalysisService_EngineErrorsKeepIdentity(t *testing.T) {
	svc := newTestService()

	allZero := "ITEM\tTOTAL\n1\tR$ 0,00\n2\tinválido\n"
	_, err := svc.ProcessUpload(strings.NewReader(allZero), "p.csv", validation.KindCSV, parsers.Options{})
	assert.ErrorIs(t, err, abc.ErrNoPositiveAmounts)

	noColumn := "ITEM\tDESCRIÇÃO\n1\tCimento\n"
	_, err = svc.ProcessUpload(strings.NewReader(noColumn), "p.csv", validation.KindCSV, parsers.Options{})
	assert.ErrorIs(t, err, abc.ErrMissingField)

	empty := ""
	_, err = svc.ProcessUpload(strings.NewReader(empty), "p.csv", validation.KindCSV, parsers.Options{})
	assert.ErrorIs(t, err, abc.ErrEmptyInput)
}
