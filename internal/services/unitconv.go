package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Conversion constants. All arithmetic stays in fixed-point decimals; binary
// floats never touch factor multiplication.
var (
	milesToKm  = decimal.RequireFromString("1.60934")
	kmToMiles  = decimal.RequireFromString("0.621371")
	tonnesToKg = decimal.NewFromInt(1000)
	kgToTonnes = decimal.RequireFromString("0.001")
)

// MilesToKm converts miles to kilometres at 2 fractional digits.
func MilesToKm(miles decimal.Decimal) decimal.Decimal {
	return miles.Mul(milesToKm).Round(2)
}

// KmToMiles converts kilometres to miles at 2 fractional digits.
func KmToMiles(km decimal.Decimal) decimal.Decimal {
	return km.Mul(kmToMiles).Round(2)
}

// TonnesToKg converts tonnes to kilograms.
func TonnesToKg(tonnes decimal.Decimal) decimal.Decimal {
	return tonnes.Mul(tonnesToKg)
}

// KgToTonnes converts kilograms to tonnes.
func KgToTonnes(kg decimal.Decimal) decimal.Decimal {
	return kg.Mul(kgToTonnes)
}

// NormalizeNumber parses a numeric string into a decimal, stripping thousands
// separators, currency symbols and surrounding whitespace first.
func NormalizeNumber(value string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "\"", "")
	for _, sym := range []string{"£", "$", "€"} {
		cleaned = strings.ReplaceAll(cleaned, sym, "")
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty numeric value %q", value)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse numeric value %q: %w", value, err)
	}
	return d, nil
}
