// Amount parsing and formatting. The tracker keeps all amounts in
// whole Kč: the fee is a round number and the treasurer collects cash,
// so fractional amounts are rejected rather than rounded.

package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a user-supplied amount string to whole Kč.
// It tolerates surrounding whitespace, a trailing "Kč" unit and
// thousands spaces ("1 000"). Decimals, signs and zero are rejected.
//
// Examples:
//
//	ParseAmount("300")      -> 300, nil
//	ParseAmount("1 000 Kč") -> 1000, nil
//	ParseAmount("12,50")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "Kč")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	var digits strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == ' ' || r == ' ':
			// thousands separator
		default:
			return 0, ErrInvalidAmount
		}
	}
	if digits.Len() == 0 {
		return 0, ErrInvalidAmount
	}
	amount, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return amount, nil
}

// FormatAmount renders an amount for exports and messages, e.g. "300 Kč".
func FormatAmount(amount int64) string {
	return strconv.FormatInt(amount, 10) + " Kč"
}
