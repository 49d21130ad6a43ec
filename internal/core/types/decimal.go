// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value stored with 2 fractional digits.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Length represents a length in meters (or a meter-based stock figure)
// stored with 3 fractional digits.
type Length = decimal.Decimal

const (
	MoneyPlaces  int32 = 2
	LengthPlaces int32 = 3
)

// Cent is the smallest representable money amount.
var Cent = decimal.New(1, -MoneyPlaces)

func init() {
	// API clients expect JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// NewMoney creates a Money value from a float, rounded to cents.
// WARNING: Use MustMoney for precise constants.
func NewMoney(f float64) Money {
	return RoundMoney(decimal.NewFromFloat(f))
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MustLength creates a Length from a string, panics on error.
func MustLength(s string) Length {
	return MustMoney(s)
}

// Zero returns zero value.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// RoundMoney rounds half away from zero to 2 fractional digits.
func RoundMoney(d decimal.Decimal) Money {
	return d.Round(MoneyPlaces)
}

// RoundLength rounds half away from zero to 3 fractional digits.
func RoundLength(d decimal.Decimal) Length {
	return d.Round(LengthPlaces)
}

// HasMoneyPrecision reports whether d has at most 2 fractional digits.
func HasMoneyPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyPlaces))
}

// HasLengthPrecision reports whether d has at most 3 fractional digits.
func HasLengthPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Round(LengthPlaces))
}

// SumMoney adds amounts and rounds the result.
func SumMoney(amounts ...Money) Money {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return RoundMoney(total)
}

// MinMoney returns the smallest of the given amounts.
func MinMoney(first Money, rest ...Money) Money {
	return decimal.Min(first, rest...)
}

// Ptr returns a pointer to a copy of d.
func Ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
