package usecase

import (
	"strings"
	"unicode"
)

// IsValidVIN accepts exactly 17 characters from the VIN alphabet (no I, O, Q
// to avoid transcription ambiguity with 1 and 0) containing at least one
// digit, which filters all-letter false positives.
func IsValidVIN(s string) bool {
	if len(s) != 17 {
		return false
	}
	hasDigit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'A' && r <= 'Z':
			if r == 'I' || r == 'O' || r == 'Q' {
				return false
			}
		default:
			return false
		}
	}
	return hasDigit
}

// NormalizeLicensePlate collapses whitespace runs to a single space and
// uppercases the plate.
func NormalizeLicensePlate(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// IsValidLicensePlate requires a separator character and at least one digit
// after normalization.
func IsValidLicensePlate(s string) bool {
	hasSeparator := false
	hasDigit := false
	for _, r := range s {
		switch {
		case r == '-' || r == ' ':
			hasSeparator = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasSeparator && hasDigit
}

// expandYear maps a 2-digit year onto a century: values up to 50 become 20xx,
// everything above becomes 19xx. 3-digit years are returned as-is and fail the
// plausibility check downstream.
func expandYear(y int) int {
	if y >= 100 {
		return y
	}
	if y <= 50 {
		return 2000 + y
	}
	return 1900 + y
}

// plausibleYear bounds extracted years to [2000, currentYear+1]; anything
// outside is treated as a misread.
func plausibleYear(y, currentYear int) bool {
	return y >= 2000 && y <= currentYear+1
}
