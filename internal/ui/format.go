package ui

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCount renders an integer with thousands separators.
func FormatCount(value int) string {
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	digits := strconv.Itoa(value)
	var builder strings.Builder
	for i, digit := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(digit)
	}
	return sign + builder.String()
}

// FormatCost renders a dollar amount with four decimal places.
func FormatCost(value float64) string {
	return fmt.Sprintf("$%.4f", value)
}
