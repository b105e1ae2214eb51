// Package core holds the domain model of the ledger engine.
//
// This file contains the money codec: conversion between the Brazilian
// locale text form ("1.630,00") and exact decimal values.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders an exact decimal with '.' as the thousands separator
// and ',' as the decimal separator, always with two fraction digits.
//
//	FormatAmount(1630)      -> "1.630,00"
//	FormatAmount(0)         -> "0,00"
//	FormatAmount(-1234.5)   -> "-1.234,50"
func FormatAmount(v decimal.Decimal) string {
	s := v.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
		if len(intPart) > lead {
			b.WriteByte('.')
		}
	}
	for i := lead; i < len(intPart); i += 3 {
		b.WriteString(intPart[i : i+3])
		if i+3 < len(intPart) {
			b.WriteByte('.')
		}
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// ParseAmount converts locale-formatted money text to an exact decimal. It
// tolerates a currency prefix, surrounding whitespace and either separator
// convention:
//
//   - both ',' and '.' present: '.' groups thousands, ',' is the decimal mark
//   - only ',' present: ',' is the decimal mark
//   - only '.' present: the text is already a plain decimal
//
// Characters outside digits, comma, dot and minus are stripped before
// parsing. Irrecoverably malformed input yields zero, not an error; callers
// needing strict validation must re-format and compare themselves.
func ParseAmount(text string) decimal.Decimal {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return decimal.Zero
	}

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case hasComma:
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}
