// internal/rules/match.go
package rules

import (
	"encoding/json"

	"github.com/kylasweb/inline-crm-rules/internal/types"
)

/*
 * Rule matching.
 *
 * Matches a CompiledRule against a decoded record with AND semantics:
 * the rule fires only when it is active and every condition matches.
 *
 * Evaluation flow per condition: resolve field path -> coerce record value
 * to the condition's field type -> apply operator. Missing fields, null
 * values, and coercion failures all degrade to non-matching; matching never
 * errors and never panics on malformed records.
 *
 * Short-circuit semantics: first non-matching condition stops the rule.
 * Conditions were cost-ordered at compilation, so the cheapest tests run
 * first; ordering affects performance only, never the outcome.
 */

// DecodeRecord parses a record payload for matching. The decoded form is
// shared across all rules in one evaluation so the JSON is parsed once per
// call, not once per condition.
func DecodeRecord(rec types.Record) (any, error) {
	if len(rec) == 0 {
		return nil, nil
	}
	var doc any
	if err := json.Unmarshal(rec, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Matches reports whether the rule fires for the decoded record.
// Inactive rules never match; a rule without conditions never matches
// (enforced at registration, defensively re-checked here).
func Matches(rule *CompiledRule, doc any) bool {
	if !rule.Active || len(rule.Conditions) == 0 {
		return false
	}
	for i := range rule.Conditions {
		if !matchCondition(&rule.Conditions[i], doc) {
			return false
		}
	}
	return true
}

// matchCondition evaluates a single compiled condition against the record.
func matchCondition(cond *CompiledCondition, doc any) bool {
	value, found := ResolveField(doc, cond.Path)
	if !found {
		return false
	}

	coerced, err := Coerce(value, cond.FieldType)
	if err != nil || coerced.IsNull {
		return false
	}

	return Compare(cond.Operator, coerced.Value, cond.Target, cond.Upper)
}
