// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatAmount adds comma separators to a fund amount.
// e.g., 1234567 -> "1,234,567"
func FormatAmount(n int64) string {
	if n < 0 {
		return "-" + FormatAmount(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// ParseAmount parses an amount argument, accepting "_" and "," separators.
// e.g., "1_000_000" or "1,000,000" -> 1000000
func ParseAmount(s string) (int64, error) {
	cleaned := strings.NewReplacer("_", "", ",", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return n, nil
}

// Utilization returns spent/allocated clamped to [0, 1].
func Utilization(spent, allocated int64) float64 {
	if allocated <= 0 {
		return 0
	}
	pct := float64(spent) / float64(allocated)
	if pct < 0 {
		return 0
	}
	if pct > 1 {
		return 1
	}
	return pct
}
