// src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	MaxSheetNameLength  = 31 // Excel's own limit
	MaxColumnNameLength = 64
	MaxExcludeRows      = 500
)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// Sheet and column names from the source templates carry letters (including
// accented ones), digits, spaces and a few separators; anything else is
// rejected before it reaches a parser.
var sheetOrColumnNameRegex = regexp.MustCompile(`^[\p{L}\p{N} ()./%_-]+$`)

// ValidateSheetName checks a user-supplied worksheet name.
func ValidateSheetName(s string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil // optional; defaults apply
	}
	if err := ValidateStringMaxLength(trimmed, MaxSheetNameLength, "sheet name"); err != nil {
		return err
	}
	if !sheetOrColumnNameRegex.MatchString(trimmed) {
		return fmt.Errorf("%w: sheet name ('%s') contains unexpected characters", ErrValidationFailed, s)
	}
	return nil
}

// ValidateColumnName checks a user-supplied column header name.
func ValidateColumnName(s, fieldName string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil // optional; defaults apply
	}
	if err := ValidateStringMaxLength(trimmed, MaxColumnNameLength, fieldName); err != nil {
		return err
	}
	if !sheetOrColumnNameRegex.MatchString(trimmed) {
		return fmt.Errorf("%w: %s ('%s') contains unexpected characters", ErrValidationFailed, fieldName, s)
	}
	return nil
}

// ParseExcludeRows parses a comma-separated list of 1-based row numbers,
// e.g. "14,15,30,59,262".
func ParseExcludeRows(s string) ([]int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, ",")
	if len(parts) > MaxExcludeRows {
		return nil, fmt.Errorf("%w: exclude_rows lists more than %d rows", ErrValidationFailed, MaxExcludeRows)
	}
	rows := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: exclude_rows entry ('%s') is not a valid integer", ErrValidationFailed, part)
		}
		if n < 1 {
			return nil, fmt.Errorf("%w: exclude_rows entries must be positive 1-based row numbers, got %d", ErrValidationFailed, n)
		}
		rows = append(rows, n)
	}
	return rows, nil
}
