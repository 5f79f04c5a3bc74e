package parser

import "strconv"

// parseNumber converts a NUMBER token's lexeme (as produced by the
// scanner: digits, optionally "." digits) into a float64.
func parseNumber(lexeme string) (float64, error) {
	return strconv.ParseFloat(lexeme, 64)
}

// stripQuotes removes the surrounding double quotes a STRING token's
// lexeme carries; no escape processing is performed (spec.md §9).
func stripQuotes(lexeme string) string {
	if len(lexeme) >= 2 {
		return lexeme[1 : len(lexeme)-1]
	}
	return lexeme
}
