// Package numeric turns the free-form number cells of a broker export into
// finite decimals. Every function here is total: no input panics or errors.
package numeric

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places every parsed value is rounded to.
const Scale = 4

// maxDigits bounds the integer magnitude of an accepted value (10^18).
const maxDigits = 18

// Status tells how Parse arrived at its value.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusInfinite
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusInfinite:
		return "infinite"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result carries the parsed value and how it was obtained. Value is zero for
// every status but StatusOK.
type Result struct {
	Value  decimal.Decimal
	Status Status
}

// Substituted reports whether the token was replaced by zero because it was
// not a usable finite number. Empty cells are not substitutions.
func (r Result) Substituted() bool {
	return r.Status == StatusInfinite || r.Status == StatusInvalid
}

var cleaner = strings.NewReplacer(
	"$", "",
	",", "",
	"%", "",
	" ", "",
	"\u00a0", "",
	"\u2212", "-",
)

// ParseNumeric returns the finite value of token, or zero when the token is
// empty, "N/A", infinite or not a number.
func ParseNumeric(token string) decimal.Decimal {
	return Parse(token).Value
}

// Parse is ParseNumeric with the reason for a zero result attached, so the
// caller can decide whether a warning is due. A parenthesised value that
// already carries a sign, such as "(-5)", is invalid.
func Parse(token string) Result {
	s := strings.TrimSpace(token)
	if s == "" || strings.EqualFold(s, "n/a") {
		return Result{Value: decimal.Zero, Status: StatusEmpty}
	}
	if isInfinite(s) {
		return Result{Value: decimal.Zero, Status: StatusInfinite}
	}

	negative := false
	if len(s) > 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = cleaner.Replace(s)
	if isInfinite(s) {
		return Result{Value: decimal.Zero, Status: StatusInfinite}
	}
	if negative && (strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+")) {
		return invalid()
	}
	s = strings.TrimPrefix(s, "+")
	if s == "" || s == "-" {
		return invalid()
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return invalid()
	}

	// Coefficient digits plus exponent is the position of the most significant
	// digit; check it before Round, which would otherwise allocate 10^exp.
	magnitude := int64(d.NumDigits()) + int64(d.Exponent())
	if magnitude > maxDigits {
		return invalid()
	}
	if magnitude < -(Scale + 1) {
		return Result{Value: decimal.Zero, Status: StatusOK}
	}

	if negative {
		d = d.Neg()
	}
	return Result{Value: d.Round(Scale), Status: StatusOK}
}

func invalid() Result {
	return Result{Value: decimal.Zero, Status: StatusInvalid}
}

func isInfinite(s string) bool {
	s = strings.ToLower(strings.TrimLeft(s, "+-"))
	return s == "inf" || s == "infinity" || s == "\u221e"
}
