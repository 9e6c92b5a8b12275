// src/services/analysis_service.go
package services

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/curvaabc/backend/src/abc"
	"github.com/username/curvaabc/backend/src/config"
	"github.com/username/curvaabc/backend/src/logger"
	"github.com/username/curvaabc/backend/src/models"
	"github.com/username/curvaabc/backend/src/parsers"
	"github.com/username/curvaabc/backend/src/security/validation"
)

const (
	ckAnalysisResult       = "analysis_result_%s"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type analysisServiceImpl struct {
	engine      *abc.Engine
	csvParser   *parsers.CSVParser
	xlsxParser  *parsers.XLSXParser
	reportCache *cache.Cache
}

func NewAnalysisService(engine *abc.Engine, reportCache *cache.Cache) AnalysisService {
	return &analysisServiceImpl{
		engine:      engine,
		csvParser:   parsers.NewCSVParser(),
		xlsxParser:  parsers.NewXLSXParser(),
		reportCache: reportCache,
	}
}

func (s *analysisServiceImpl) ProcessUpload(file io.Reader, filename string, kind string, opts parsers.Options) (*models.AnalysisResult, error) {
	if opts.MaxRows == 0 && config.Cfg != nil {
		opts.MaxRows = config.Cfg.MaxRowCount
	}

	var parser parsers.Parser
	switch kind {
	case validation.KindXLSX:
		parser = s.xlsxParser
	case validation.KindCSV:
		parser = s.csvParser
	default:
		return nil, fmt.Errorf("%w: unsupported file kind '%s'", ErrParsingFailed, kind)
	}

	raw, err := parser.Parse(file, opts)
	if err != nil {
		// Schema failures keep their identity so the handler can map them;
		// everything else is a generic parse failure.
		if isEngineError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	logger.L.Info("Spreadsheet parsed", "filename", filename, "rows", len(raw))

	classified, err := s.engine.Classify(raw)
	if err != nil {
		return nil, err
	}

	result := &models.AnalysisResult{
		ID:          uuid.NewString(),
		SourceFile:  filename,
		GeneratedAt: time.Now().UTC(),
		ItemCount:   len(classified.Records),
		GrandTotal:  classified.GrandTotal,
		Records:     sanitizeRecords(classified.Records),
		Summary:     classified.Summary,
	}

	if s.reportCache != nil {
		s.reportCache.Set(fmt.Sprintf(ckAnalysisResult, result.ID), result, cache.DefaultExpiration)
	}
	logger.L.Info("Analysis complete", "analysisID", result.ID,
		"items", result.ItemCount, "grandTotal", result.GrandTotal)
	return result, nil
}

func (s *analysisServiceImpl) GetAnalysis(id string) (*models.AnalysisResult, error) {
	if s.reportCache == nil {
		return nil, ErrAnalysisNotFound
	}
	if cached, found := s.reportCache.Get(fmt.Sprintf(ckAnalysisResult, id)); found {
		return cached.(*models.AnalysisResult), nil
	}
	return nil, ErrAnalysisNotFound
}

func (s *analysisServiceImpl) InvalidateAnalysis(id string) {
	if s.reportCache != nil {
		s.reportCache.Delete(fmt.Sprintf(ckAnalysisResult, id))
	}
}

// sanitizeRecords cleans the text fields that came out of the spreadsheet
// before they are echoed back to any consumer. XSS hits are logged; the
// sanitized value is what leaves the service either way.
func sanitizeRecords(records []models.Record) []models.Record {
	for i := range records {
		if err := validation.CheckXSSPatterns(records[i].Description, "description", records[i].Identifier); err != nil {
			logger.L.Warn("Suspicious description cell sanitized", "identifier", records[i].Identifier)
		}
		records[i].Description = validation.StripUnprintable(validation.SanitizeText(records[i].Description))
		records[i].Identifier = validation.StripUnprintable(validation.SanitizeText(records[i].Identifier))
		for k, v := range records[i].Fields {
			records[i].Fields[k] = validation.StripUnprintable(validation.SanitizeText(v))
		}
	}
	return records
}

func isEngineError(err error) bool {
	for _, sentinel := range []error{abc.ErrEmptyInput, abc.ErrNoPositiveAmounts, abc.ErrMissingField, abc.ErrDegenerateTotal} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
