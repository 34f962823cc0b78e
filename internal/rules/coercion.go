// internal/rules/coercion.go
package rules

import (
	"strconv"
	"strings"
	"time"

	"github.com/kylasweb/inline-crm-rules/internal/types"
)

/*
 * Type coercion for rule evaluation.
 *
 * Implements the 3-type system (NUMBER, STRING, DATE) used by condition
 * evaluation. Comparison values authored on a rule are coerced once at
 * registration; record values are coerced per evaluation.
 *
 * Key distinction: null values vs coercion failures. Null/nil yields
 * IsNull=true and the condition does not match. Coercion failure (e.g.
 * "abc" to number) returns ErrCoercionFailed; during evaluation the matcher
 * degrades it to non-matching, at registration it rejects the rule.
 *
 * Type modes:
 *   - NUMBER: strict - coerce numeric strings to float64, reject booleans
 *   - STRING: lenient - auto-coerce all scalar types to string
 *   - DATE: strict - RFC 3339 or date-only strings, or unix seconds
 */

// CoercionResult holds the coerced value or indicates null.
type CoercionResult struct {
	Value  any  // coerced value (valid only if !IsNull)
	IsNull bool // true if input was nil/null
}

// Coerce attempts to convert value to the given field type.
// Returns CoercionResult with IsNull=true for nil input.
// Returns ErrCoercionFailed for impossible coercions.
func Coerce(value any, fieldType types.FieldType) (CoercionResult, error) {
	if value == nil {
		return CoercionResult{IsNull: true}, nil
	}

	switch fieldType {
	case types.FieldTypeNumber:
		return coerceNumber(value)
	case types.FieldTypeString:
		return coerceString(value)
	case types.FieldTypeDate:
		return coerceDate(value)
	default:
		return CoercionResult{}, types.ErrCoercionFailed
	}
}

// coerceNumber converts value to float64 for numeric comparison.
// Accepts float64, int, int64, and numeric strings. Rejects booleans.
// Whitespace-only strings are not valid numbers.
func coerceNumber(value any) (CoercionResult, error) {
	switch v := value.(type) {
	case float64:
		return CoercionResult{Value: v}, nil
	case int:
		return CoercionResult{Value: float64(v)}, nil
	case int64:
		return CoercionResult{Value: float64(v)}, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return CoercionResult{}, types.ErrCoercionFailed
		}
		// ParseFloat handles both integer and decimal string representations
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return CoercionResult{}, types.ErrCoercionFailed
		}
		return CoercionResult{Value: f}, nil
	default:
		// Strict mode: no boolean or composite coercion to number
		return CoercionResult{}, types.ErrCoercionFailed
	}
}

// coerceString converts scalar types to their string representation.
// Lenient mode: numbers and booleans become their canonical text form so
// UI-authored string values compare against numeric record fields.
func coerceString(value any) (CoercionResult, error) {
	switch v := value.(type) {
	case string:
		return CoercionResult{Value: v}, nil
	case float64:
		return CoercionResult{Value: strconv.FormatFloat(v, 'f', -1, 64)}, nil
	case int:
		return CoercionResult{Value: strconv.Itoa(v)}, nil
	case int64:
		return CoercionResult{Value: strconv.FormatInt(v, 10)}, nil
	case bool:
		if v {
			return CoercionResult{Value: "true"}, nil
		}
		return CoercionResult{Value: "false"}, nil
	default:
		// Objects and arrays have no meaningful string form for matching
		return CoercionResult{}, types.ErrCoercionFailed
	}
}

// dateLayouts accepted for DATE fields, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// coerceDate converts value to time.Time in UTC for temporal comparison.
// Accepts RFC 3339 timestamps, date-only strings, and unix seconds.
func coerceDate(value any) (CoercionResult, error) {
	switch v := value.(type) {
	case time.Time:
		return CoercionResult{Value: v.UTC()}, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return CoercionResult{}, types.ErrCoercionFailed
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return CoercionResult{Value: t.UTC()}, nil
			}
		}
		return CoercionResult{}, types.ErrCoercionFailed
	case float64:
		// JSON numbers as unix seconds
		return CoercionResult{Value: time.Unix(int64(v), 0).UTC()}, nil
	case int64:
		return CoercionResult{Value: time.Unix(v, 0).UTC()}, nil
	case int:
		return CoercionResult{Value: time.Unix(int64(v), 0).UTC()}, nil
	default:
		return CoercionResult{}, types.ErrCoercionFailed
	}
}
