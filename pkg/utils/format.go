// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// FormatIndianCurrency formats a number in Indian currency format (lakhs, crores).
func FormatIndianCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	intPart := parts[0]
	decPart := parts[1]

	formatted := formatIndianNumber(intPart)

	result := "₹" + formatted + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// formatIndianNumber formats an integer string in Indian numbering system.
func formatIndianNumber(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	// First group of 3 from right
	result := s[n-3:]
	s = s[:n-3]

	// Then groups of 2
	for len(s) > 0 {
		if len(s) >= 2 {
			result = s[len(s)-2:] + "," + result
			s = s[:len(s)-2]
		} else {
			result = s + "," + result
			s = ""
		}
	}

	return result
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// ChangeDisplay describes a price move for rendering.
type ChangeDisplay struct {
	Change        float64
	ChangePercent float64
	Arrow         string
	Sign          string
	Positive      bool
}

// GetChangeDisplay computes the change between LTP and previous close.
func GetChangeDisplay(ltp, prevClose float64) ChangeDisplay {
	change := ltp - prevClose
	var changePercent float64
	if prevClose != 0 {
		changePercent = change / prevClose * 100
	}
	d := ChangeDisplay{Change: change, ChangePercent: changePercent}
	if change >= 0 {
		d.Arrow, d.Sign, d.Positive = "↑", "+", true
	} else {
		d.Arrow = "↓"
	}
	return d
}

var timeOfDayRe = regexp.MustCompile(`(\d{1,2}:\d{2}:\d{2})`)

// ExtractTimeFromTimestamp pulls the HH:MM:SS portion out of broker timestamp
// strings, which vary by broker ("HH:MM:SS DD-MM-YYYY", "DD-Mon-YYYY HH:MM:SS",
// "YYYY-MM-DD HH:MM:SS"). Returns "" when no time is present.
func ExtractTimeFromTimestamp(timestamp string) string {
	if timestamp == "" {
		return ""
	}
	if m := timeOfDayRe.FindStringSubmatch(timestamp); m != nil {
		return m[1]
	}
	return ""
}
