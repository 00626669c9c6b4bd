// Package money converts between user-facing amount strings and the integer
// minor units (cents) that payments are stored in.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is appended by Format.
const Currency = "RSD"

var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// Parse reads an amount into cents. Both the local format ("1.234,56") and
// the plain format ("1234.56") are accepted; a trailing currency code is
// ignored. When a comma is present it is the decimal separator and dots are
// thousand separators.
func Parse(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimSpace(strings.TrimSuffix(strings.ToUpper(clean), Currency))
	clean = strings.ReplaceAll(clean, " ", "")

	if strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	if clean == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	return d.Mul(hundred).Round(0).IntPart(), nil
}

// Format renders cents the way the household UI shows amounts: dot-grouped
// thousands, a decimal comma only when there is a fraction, and the currency
// code ("1.234,5 RSD").
func Format(cents int64) string {
	return FormatNumber(cents) + " " + Currency
}

// FormatNumber is Format without the currency code.
func FormatNumber(cents int64) string {
	s := decimal.New(cents, -2).String()

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder

	b.WriteString(sign)

	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}

		b.WriteRune(r)
	}

	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}

	return b.String()
}
