// internal/rules/operators.go
package rules

import (
	"strings"
	"time"

	"github.com/kylasweb/inline-crm-rules/internal/types"
)

/*
 * Operator comparison logic.
 *
 * Implements the 6 comparison operators over values already coerced via
 * Coerce() to a common type family (float64, string, or time.Time).
 *
 * Operators:
 *   - equals/notEquals: structural equality (cost 5)
 *   - greaterThan/lessThan: ordered comparison, numbers and dates (cost 7)
 *   - between: inclusive range test, numbers and dates (cost 9)
 *   - contains: case-insensitive substring, strings only (cost 10)
 *
 * Incomparable types never match (return false); the matcher relies on this
 * so one mis-typed record field cannot fail a whole evaluation.
 *
 * Function-based: 6 operators via switch statement is cleaner than 6
 * interface implementations with minimal behavior variation.
 */

// Compare applies the operator to compare value against target.
// Upper is the between upper bound and nil for all other operators.
// Both sides must already be coerced to the condition's field type.
func Compare(op types.Operator, value, target, upper any) bool {
	switch op {
	case types.OpEquals:
		return compareEqual(value, target)
	case types.OpNotEquals:
		return !compareEqual(value, target)
	case types.OpGreaterThan:
		cmp, ok := compareOrdered(value, target)
		return ok && cmp > 0
	case types.OpLessThan:
		cmp, ok := compareOrdered(value, target)
		return ok && cmp < 0
	case types.OpBetween:
		lo, okLo := compareOrdered(value, target)
		hi, okHi := compareOrdered(value, upper)
		// Inclusive bounds on both ends
		return okLo && okHi && lo >= 0 && hi <= 0
	case types.OpContains:
		return compareContains(value, target)
	default:
		return false
	}
}

// compareEqual performs equality within a single coerced type family.
// Dates compare by instant (time.Equal), not by struct identity.
func compareEqual(a, b any) bool {
	if ta, tb, ok := asTimes(a, b); ok {
		return ta.Equal(tb)
	}
	if na, nb, ok := asNumbers(a, b); ok {
		return na == nb
	}
	return a == b
}

// compareOrdered performs three-way comparison (-1/0/1) for numbers and
// dates. Returns ok=false for incomparable types.
func compareOrdered(a, b any) (int, bool) {
	if ta, tb, ok := asTimes(a, b); ok {
		switch {
		case ta.Before(tb):
			return -1, true
		case ta.After(tb):
			return 1, true
		default:
			return 0, true
		}
	}
	na, nb, ok := asNumbers(a, b)
	if !ok {
		return 0, false
	}
	switch {
	case na < nb:
		return -1, true
	case na > nb:
		return 1, true
	default:
		return 0, true
	}
}

// compareContains checks case-insensitive substring containment.
// Returns false for non-string operands.
func compareContains(value, target any) bool {
	vs, ok1 := value.(string)
	ts, ok2 := target.(string)
	if !ok1 || !ok2 {
		return false
	}
	return strings.Contains(strings.ToLower(vs), strings.ToLower(ts))
}

// asNumbers attempts to read both values as float64.
func asNumbers(a, b any) (float64, float64, bool) {
	na, oka := toFloat64(a)
	nb, okb := toFloat64(b)
	return na, nb, oka && okb
}

// toFloat64 converts value to float64 if it's a numeric type.
// Handles float64, int, int64 from JSON unmarshaling and coercion.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// asTimes attempts to read both values as time.Time.
func asTimes(a, b any) (time.Time, time.Time, bool) {
	ta, oka := a.(time.Time)
	tb, okb := b.(time.Time)
	return ta, tb, oka && okb
}
