// Package chain derives and maintains the options strike ladder.
//
// Only the ATM and ITM1 symbols are ever resolved over the network; the
// strike interval derived from those two seeds every other rung, so a full
// ladder costs two round-trips regardless of depth.
package chain

import (
	"regexp"
	"strconv"
	"strings"

	"openalgo-scalper/internal/models"
)

// optionSymbolRe matches the resolved symbol layout:
// UNDERLYING + DDMMMYY + STRIKE + CE/PE, e.g. NIFTY26DEC2424500CE.
// The expiry token is assumed to be exactly 7 characters (2 digits, 3
// letters, 2 digits); a broker deviating from this layout fails the parse
// rather than producing a garbage ladder.
var optionSymbolRe = regexp.MustCompile(`^([A-Z&]+)(\d{2}[A-Z]{3}\d{2})(\d+)(CE|PE)$`)

// ParsedSymbol is the decomposition of an option symbol.
type ParsedSymbol struct {
	Underlying string
	Expiry     string
	Strike     int
	OptionType models.OptionType
	IsOption   bool
}

// ParseOptionSymbol decomposes a resolved option symbol. Non-option symbols
// (equity, futures) are returned with IsOption false and the symbol as the
// underlying. A matched symbol with a non-positive strike is treated as a
// parse failure.
func ParseOptionSymbol(symbol string) (ParsedSymbol, bool) {
	if symbol == "" {
		return ParsedSymbol{}, false
	}

	m := optionSymbolRe.FindStringSubmatch(symbol)
	if m == nil {
		return ParsedSymbol{Underlying: symbol}, true
	}

	strike, err := strconv.Atoi(m[3])
	if err != nil || strike <= 0 {
		return ParsedSymbol{}, false
	}

	return ParsedSymbol{
		Underlying: m[1],
		Expiry:     m[2],
		Strike:     strike,
		OptionType: models.OptionType(m[4]),
		IsOption:   true,
	}, true
}

// BuildOptionSymbol assembles a synthetic option symbol from its parts,
// the inverse of ParseOptionSymbol.
func BuildOptionSymbol(underlying, expiry string, strike int, optType models.OptionType) string {
	return underlying + expiry + strconv.Itoa(strike) + string(optType)
}

// NormalizeExpiry converts a server expiry string ("26-DEC-24") into the
// symbol-embedded tag form ("26DEC24").
func NormalizeExpiry(expiry string) string {
	return strings.ToUpper(strings.ReplaceAll(expiry, "-", ""))
}
