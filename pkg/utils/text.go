// Package utils provides shared utilities for text, math, and logging.
package utils

import (
	"strconv"
	"unicode/utf8"
)

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxLen]) + "..."
}

// FormatAmount renders a currency amount with two decimals.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatOptionalAmount renders v, or "none" when v is nil.
func FormatOptionalAmount(v *float64) string {
	if v == nil {
		return "none"
	}
	return FormatAmount(*v)
}
