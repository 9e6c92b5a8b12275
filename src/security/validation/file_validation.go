package validation

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/username/curvaabc/backend/src/logger"
)

// Detected upload kinds, as decided by content inspection.
const (
	KindCSV  = "csv"
	KindXLSX = "xlsx"
)

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedClientContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true, // Often used for CSV by older Excel
	"text/plain":               true, // CSVs are often plain text
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true, // .xlsx
	"application/vnd.ms-excel.sheet.macroenabled.12":                    true, // .xlsm
}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	if allowed, exists := AllowedClientContentTypes[strings.ToLower(contentType)]; !exists || !allowed {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("client-declared file type '%s' is not allowed for spreadsheet upload", contentType)
	}
	return nil
}

// xlsx files are zip containers; this is the zip local-file-header signature.
var zipMagic = []byte{0x50, 0x4b, 0x03, 0x04}

// isBinaryContent checks if a buffer contains binary control characters (like null bytes)
// which indicate the file is likely not a valid text-based CSV.
func isBinaryContent(buf []byte) bool {
	// 1. Check for null bytes. Text files should not have these.
	if bytes.IndexByte(buf, 0) != -1 {
		return true
	}

	// 2. Validate UTF-8. If it's invalid UTF-8, it might be binary garbage.
	if !utf8.Valid(buf) {
		return true
	}

	return false
}

// DetectUploadKind inspects the actual file content signature (magic bytes)
// and decides whether the upload is an xlsx workbook or a text CSV. Anything
// else is rejected. The read pointer is reset so the parser can read the
// full file afterwards.
func DetectUploadKind(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	// Read first 1024 bytes (1KB) for detection
	buffer := make([]byte, 1024)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// IMPORTANT: Reset the file read pointer to the beginning so the actual parser can read the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if n == 0 {
		return "", fmt.Errorf("file is empty")
	}

	// xlsx: zip container signature.
	if bytes.HasPrefix(buffer[:n], zipMagic) {
		return KindXLSX, nil
	}

	// Otherwise the upload must be text-based CSV.
	if isBinaryContent(buffer[:n]) {
		logger.L.Warn("File rejected: binary content that is neither xlsx nor text")
		return "", fmt.Errorf("file appears to be binary or executable, not a spreadsheet")
	}

	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0]) // Normalize

	allowedDetectedTypes := map[string]bool{
		"text/plain":      true,
		"text/csv":        true,
		"application/csv": true,
	}
	if !allowedDetectedTypes[detectedContentType] {
		logger.L.Warn("Disallowed detected file content type", "detectedContentType", detectedContentType)
		return "", fmt.Errorf("detected file content type '%s' is not allowed", detectedContentType)
	}

	logger.L.Debug("File content validated", "detectedContentType", detectedContentType)
	return KindCSV, nil
}
