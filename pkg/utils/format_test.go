package utils

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFormatIndianCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "₹0.00"},
		{999, "₹999.00"},
		{1000, "₹1,000.00"},
		{100000, "₹1,00,000.00"},
		{12345678.9, "₹1,23,45,678.90"},
		{-2500.5, "-₹2,500.50"},
	}
	for _, tt := range tests {
		if got := FormatIndianCurrency(tt.in); got != tt.want {
			t.Errorf("FormatIndianCurrency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatIndianCurrencyGrouping(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("digits survive formatting", prop.ForAll(
		func(amount int) bool {
			formatted := FormatIndianCurrency(float64(amount))
			stripped := strings.NewReplacer("₹", "", ",", "", ".", "", "-", "").Replace(formatted)
			digits := strings.TrimLeft(stripped, "0")
			if amount == 0 {
				return stripped == "000"
			}
			want := strings.TrimLeft(itoa(abs(amount)), "0") + "00"
			return digits == want
		},
		gen.IntRange(-1_000_000_000, 1_000_000_000),
	))

	properties.TestingRun(t)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

func TestGetChangeDisplay(t *testing.T) {
	up := GetChangeDisplay(110, 100)
	if !up.Positive || up.Arrow != "↑" || up.Sign != "+" {
		t.Errorf("positive change display wrong: %+v", up)
	}
	if up.ChangePercent != 10 {
		t.Errorf("change percent = %.2f, want 10", up.ChangePercent)
	}

	down := GetChangeDisplay(90, 100)
	if down.Positive || down.Arrow != "↓" {
		t.Errorf("negative change display wrong: %+v", down)
	}

	flat := GetChangeDisplay(50, 0)
	if flat.ChangePercent != 0 {
		t.Errorf("zero prev close should give 0%%, got %.2f", flat.ChangePercent)
	}
}

func TestExtractTimeFromTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"09:15:01 12-08-2025", "09:15:01"},
		{"12-Aug-2025 15:29:59", "15:29:59"},
		{"2025-08-12 10:00:00", "10:00:00"},
		{"no time here", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractTimeFromTimestamp(tt.in); got != tt.want {
			t.Errorf("ExtractTimeFromTimestamp(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
