// Package validation provides field-level violation reporting for request
// payloads.
package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Monetary amounts must fit NUMERIC(12,2)-sized storage: at most ten integer
// digits. More precision than MaxFractionDigits is rejected.
const (
	maxIntegerDigits  = 10
	MaxFractionDigits = 6
	// maxScale bounds the exponent checked before any arithmetic.
	maxScale = 64
)

// MaxAmount is the largest accepted monetary amount.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// Violation describes a single field that failed validation.
type Violation struct {
	Field   string
	Message string
}

// Error collects every violation found in a payload. It is returned as a
// whole so clients can fix all fields at once.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a violation for field.
func (e *Error) Add(field, message string) {
	e.Violations = append(e.Violations, Violation{Field: field, Message: message})
}

// Addf records a violation with a formatted message.
func (e *Error) Addf(field, format string, args ...any) {
	e.Add(field, fmt.Sprintf(format, args...))
}

// Merge appends all violations of other, prefixing their field names.
func (e *Error) Merge(prefix string, other *Error) {
	if other == nil {
		return
	}
	for _, v := range other.Violations {
		e.Add(prefix+v.Field, v.Message)
	}
}

// Amount records a violation for field unless d is a non-negative amount of
// at most MaxAmount with at most MaxFractionDigits decimal places. The
// exponent and digit count are checked first, so values like 1e99999999 are
// rejected without big-number arithmetic.
func (e *Error) Amount(field string, d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	switch {
	case d.IsNegative():
		e.Add(field, "must be greater than or equal to 0")
	case exp > maxIntegerDigits, exp+int64(d.NumDigits()) > maxIntegerDigits:
		e.Addf(field, "must not exceed %s", MaxAmount.StringFixed(2))
	case exp < -maxScale, !d.Equal(d.Truncate(MaxFractionDigits)):
		e.Addf(field, "must have at most %d decimal places", MaxFractionDigits)
	case d.GreaterThan(MaxAmount):
		e.Addf(field, "must not exceed %s", MaxAmount.StringFixed(2))
	default:
		return true
	}
	return false
}

// Empty reports whether no violations were recorded.
func (e *Error) Empty() bool {
	return e == nil || len(e.Violations) == 0
}

// Err returns e when it holds violations and nil otherwise, so callers can
// write `return v.Err()` without returning a typed nil.
func (e *Error) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

// Index formats the field path of a slice element, e.g. Index("items", 2)
// returns "items[2]".
func Index(field string, i int) string {
	return fmt.Sprintf("%s[%d]", field, i)
}
