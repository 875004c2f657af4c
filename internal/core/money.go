// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and rendering them back in the ledger's decimal notation. Amounts keep
// every digit they were entered with; nothing is rounded.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts outside this exponent range would render as absurdly long strings.
const (
	maxExponent = 308
	minExponent = -340
)

// Money is an exact decimal amount.
type Money struct {
	d decimal.Decimal
}

// ParseMoney reads a decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, an
// optional sign and exponent notation as written by older ledger files.
//
// Examples:
//
//	ParseMoney("12.34") -> 12.34
//	ParseMoney("12,34") -> 12.34
//	ParseMoney("1.0E7") -> 10000000.0
//	ParseMoney("0.125") -> 0.125
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if exp := int64(d.Exponent()); exp > maxExponent || exp < minExponent {
		return Money{}, ErrInvalidAmount
	}
	return Money{d: d}, nil
}

// MustParseMoney is ParseMoney for literals known to be valid.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic("core: invalid money literal " + s)
	}
	return m
}

// Cents builds an amount from a whole number of hundredths.
func Cents(n int64) Money {
	return Money{d: decimal.New(n, -2)}
}

// Add returns the exact sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// Equal compares values, so 1.5 equals 1.50.
func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

// String renders the amount with at least one fractional digit and no
// trailing zeros beyond it: 250.0, 12.5, 0.125.
func (m Money) String() string {
	s := m.d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
