package exporter

import (
	"strconv"
)

// formatFloat formats a float64 with the shortest exact representation
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatFixed formats a float64 with 6 decimal places for summary tables
func formatFixed(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}
