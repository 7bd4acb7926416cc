package exporter

import (
	"fmt"
	"strconv"
)

// formatAmount formats a contribution or series value with exactly 2 decimal
// places so values like 13.4 appear as 13.40 in CSV
func formatAmount(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatScore formats a z-score or normalized importance with 4 decimal
// places; scores need more precision than currency amounts
func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
