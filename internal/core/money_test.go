package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"0", "0,00"},
		{"1", "1,00"},
		{"1630", "1.630,00"},
		{"1630.5", "1.630,50"},
		{"999", "999,00"},
		{"1000", "1.000,00"},
		{"1000000.55", "1.000.000,55"},
		{"123456789.01", "123.456.789,01"},
		{"-1234.5", "-1.234,50"},
		{"0.01", "0,01"},
	}
	for _, tc := range cases {
		v := decimal.RequireFromString(tc.in)
		if got := FormatAmount(v); got != tc.out {
			t.Fatalf("FormatAmount(%s) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"1.630,00", "1630"},
		{"1630,00", "1630"},
		{"1630.00", "1630"},
		{"R$ 1.630,00", "1630"},
		{"  12,34  ", "12.34"},
		{"12.34", "12.34"},
		{"1.234.567,89", "1234567.89"},
		{"-50,00", "-50"},
		{"0", "0"},
		{"", "0"},
		{"abc", "0"},
		{"1.2.3", "0"},
		{"1,2,3", "0"},
	}
	for _, tc := range cases {
		want := decimal.RequireFromString(tc.out)
		if got := ParseAmount(tc.in); !got.Equal(want) {
			t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, want)
		}
	}
}

func TestMoneyRoundTrip(t *testing.T) {
	values := []string{
		"0.00", "0.01", "0.99", "1.00", "10.50", "999.99",
		"1630.00", "1000.00", "123456.78", "1000000.55", "987654321.09",
	}
	for _, s := range values {
		v := decimal.RequireFromString(s)
		back := ParseAmount(FormatAmount(v))
		if !back.Equal(v) {
			t.Fatalf("round trip %s: format=%q parse=%s", s, FormatAmount(v), back)
		}
	}
}
