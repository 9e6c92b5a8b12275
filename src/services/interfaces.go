package services

import (
	"errors"
	"io"

	"github.com/username/curvaabc/backend/src/models"
	"github.com/username/curvaabc/backend/src/parsers"
)

// Define common service errors
var (
	ErrParsingFailed    = errors.New("spreadsheet parsing failed")
	ErrAnalysisNotFound = errors.New("analysis not found or expired")
)

// AnalysisService defines the interface for the core upload processing logic.
// Every upload is recomputed from scratch; the cache underneath is a purely
// additive memoization so dashboard tabs can re-fetch without re-uploading.
type AnalysisService interface {
	// ProcessUpload parses the uploaded spreadsheet (kind is
	// validation.KindCSV or validation.KindXLSX), runs the ABC
	// classification and caches the result under a fresh analysis ID.
	ProcessUpload(file io.Reader, filename string, kind string, opts parsers.Options) (*models.AnalysisResult, error)

	// GetAnalysis fetches a cached result by ID.
	GetAnalysis(id string) (*models.AnalysisResult, error)

	// InvalidateAnalysis drops a cached result.
	InvalidateAnalysis(id string)
}

// ExportService builds downloadable renditions of an analysis result.
type ExportService interface {
	BuildXLSX(result *models.AnalysisResult) ([]byte, error)
	BuildCSV(result *models.AnalysisResult) ([]byte, error)
}
