// Package core holds the finance DTOs exchanged with the API and the form validators.
//
// This file contains amount parsing for form input.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a form amount into a decimal rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, and the
// pt-BR grouping form "1.234,56". Blank input yields zero so that the
// validators can report the positive-amount rule in its proper order.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34
//	ParseAmount("12,345")   -> 12.35 (half-up)
//	ParseAmount("1.234,56") -> 1234.56
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}
