// src/security/validation/content_scanner.go
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/username/curvaabc/backend/src/logger"
)

var (
	// Common XSS vectors. Contextual output encoding is the primary defense.
	xssPatternsRegex = regexp.MustCompile(
		`(?i)<script|onerror=|onmouseover=|onfocus=|onload=|javascript:|vbscript:|<iframe|<object|<embed|<applet|<style|<link|<img\s+src\s*=\s*['"]?\s*(javascript|data):`,
	)
	// Formula injection characters at the start of a string.
	formulaInjectionPrefixRegex = regexp.MustCompile(`^[=+\-@\t\r]`)
)

func truncateForLog(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

// CheckXSSPatterns detects basic XSS patterns in a spreadsheet cell.
// This is a defense-in-depth measure; the sanitizers are the real fix.
func CheckXSSPatterns(s, fieldName, contextID string) error {
	if xssPatternsRegex.MatchString(s) {
		errMsg := fmt.Sprintf("potential XSS pattern detected in field '%s'", fieldName)
		logger.L.Warn(errMsg, "contextID", contextID, "contentPreview", truncateForLog(s, 50))
		return fmt.Errorf("%w: %s", ErrValidationFailed, errMsg)
	}
	return nil
}

// CheckFormulaInjection detects if a string starts with characters common in CSV formula injection.
func CheckFormulaInjection(s, fieldName, contextID string) error {
	// Formula injection relies on the prefix, so only the first few
	// characters need checking.
	prefixToCheck := s
	if len(s) > 10 {
		prefixToCheck = s[:10]
	}
	if formulaInjectionPrefixRegex.MatchString(strings.TrimSpace(prefixToCheck)) {
		errMsg := fmt.Sprintf("potential formula injection pattern detected in field '%s'", fieldName)
		logger.L.Warn(errMsg, "contextID", contextID, "contentPreview", truncateForLog(s, 50))
		return fmt.Errorf("%w: %s", ErrValidationFailed, errMsg)
	}
	return nil
}
