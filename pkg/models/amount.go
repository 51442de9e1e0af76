package models

import (
	"fmt"
	"strconv"
)

// AmountKind tags the variant held by an Amount.
type AmountKind int

const (
	// AmountZero means no amount was mentioned, or policy chose not to flag.
	AmountZero AmountKind = iota
	// AmountNumeric carries a parsed value.
	AmountNumeric
	// AmountNeedsVerification means the amount could not be determined
	// automatically and requires human review.
	AmountNeedsVerification
)

// VerifyLabel is how a NeedsVerification amount is rendered in reports.
const VerifyLabel = "Verify"

func (k AmountKind) String() string {
	switch k {
	case AmountNumeric:
		return "numeric"
	case AmountNeedsVerification:
		return "needs_verification"
	default:
		return "zero"
	}
}

// Amount is a tagged monetary value. The zero value is Zero().
type Amount struct {
	kind  AmountKind
	value float64
}

// Numeric returns an amount holding v.
func Numeric(v float64) Amount {
	return Amount{kind: AmountNumeric, value: v}
}

// NeedsVerification returns the sentinel amount.
func NeedsVerification() Amount {
	return Amount{kind: AmountNeedsVerification}
}

// Zero returns the empty amount.
func Zero() Amount {
	return Amount{kind: AmountZero}
}

func (a Amount) Kind() AmountKind {
	return a.kind
}

// Value returns the numeric value and whether the amount is Numeric.
func (a Amount) Value() (float64, bool) {
	return a.value, a.kind == AmountNumeric
}

// Contribution is what the amount adds to a sender total: v for Numeric,
// 0 for the sentinel and Zero.
func (a Amount) Contribution() float64 {
	if a.kind == AmountNumeric {
		return a.value
	}
	return 0
}

func (a Amount) NeedsReview() bool {
	return a.kind == AmountNeedsVerification
}

func (a Amount) String() string {
	switch a.kind {
	case AmountNumeric:
		return strconv.FormatFloat(a.value, 'f', 2, 64)
	case AmountNeedsVerification:
		return VerifyLabel
	default:
		return "0.00"
	}
}

// MarshalJSON renders Numeric and Zero as numbers and the sentinel as a label.
func (a Amount) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AmountNumeric:
		return []byte(strconv.FormatFloat(a.value, 'f', -1, 64)), nil
	case AmountNeedsVerification:
		return []byte(fmt.Sprintf("%q", VerifyLabel)), nil
	default:
		return []byte("0"), nil
	}
}
