package chain

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"openalgo-scalper/internal/models"
)

func TestParseOptionSymbol(t *testing.T) {
	tests := []struct {
		name       string
		symbol     string
		ok         bool
		isOption   bool
		underlying string
		expiry     string
		strike     int
		optType    models.OptionType
	}{
		{
			name:       "nifty call",
			symbol:     "NIFTY07AUG2524500CE",
			ok:         true,
			isOption:   true,
			underlying: "NIFTY",
			expiry:     "07AUG25",
			strike:     24500,
			optType:    models.OptionTypeCall,
		},
		{
			name:       "banknifty put",
			symbol:     "BANKNIFTY26DEC2452000PE",
			ok:         true,
			isOption:   true,
			underlying: "BANKNIFTY",
			expiry:     "26DEC24",
			strike:     52000,
			optType:    models.OptionTypePut,
		},
		{
			name:       "ampersand underlying",
			symbol:     "M&M28AUG253200CE",
			ok:         true,
			isOption:   true,
			underlying: "M&M",
			expiry:     "28AUG25",
			strike:     3200,
			optType:    models.OptionTypeCall,
		},
		{
			name:       "equity symbol passes through",
			symbol:     "RELIANCE",
			ok:         true,
			isOption:   false,
			underlying: "RELIANCE",
		},
		{
			name:   "zero strike rejected",
			symbol: "NIFTY07AUG250CE",
			ok:     false,
		},
		{
			name:   "empty",
			symbol: "",
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, ok := ParseOptionSymbol(tt.symbol)
			if ok != tt.ok {
				t.Fatalf("ParseOptionSymbol(%q) ok = %v, want %v", tt.symbol, ok, tt.ok)
			}
			if !ok {
				return
			}
			if parsed.IsOption != tt.isOption {
				t.Errorf("IsOption = %v, want %v", parsed.IsOption, tt.isOption)
			}
			if parsed.Underlying != tt.underlying {
				t.Errorf("Underlying = %q, want %q", parsed.Underlying, tt.underlying)
			}
			if !tt.isOption {
				return
			}
			if parsed.Expiry != tt.expiry {
				t.Errorf("Expiry = %q, want %q", parsed.Expiry, tt.expiry)
			}
			if parsed.Strike != tt.strike {
				t.Errorf("Strike = %d, want %d", parsed.Strike, tt.strike)
			}
			if parsed.OptionType != tt.optType {
				t.Errorf("OptionType = %q, want %q", parsed.OptionType, tt.optType)
			}
		})
	}
}

func TestNormalizeExpiry(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"26-DEC-24", "26DEC24"},
		{"07-aug-25", "07AUG25"},
		{"07AUG25", "07AUG25"},
	}
	for _, tt := range tests {
		if got := NormalizeExpiry(tt.in); got != tt.want {
			t.Errorf("NormalizeExpiry(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Building a symbol from parsed components and parsing it back must be
// lossless for any valid combination.
func TestBuildParseRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	months := []string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

	properties.Property("build then parse is identity", prop.ForAll(
		func(underlying string, day, month, year, strike int, isCall bool) bool {
			expiry := twoDigits(day) + months[month] + twoDigits(year)
			optType := models.OptionTypePut
			if isCall {
				optType = models.OptionTypeCall
			}

			symbol := BuildOptionSymbol(underlying, expiry, strike, optType)
			parsed, ok := ParseOptionSymbol(symbol)
			if !ok || !parsed.IsOption {
				return false
			}
			return parsed.Underlying == underlying &&
				parsed.Expiry == expiry &&
				parsed.Strike == strike &&
				parsed.OptionType == optType
		},
		gen.RegexMatch(`[A-Z]{2,10}`),
		gen.IntRange(1, 28),
		gen.IntRange(0, 11),
		gen.IntRange(24, 30),
		gen.IntRange(1, 99999),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}
