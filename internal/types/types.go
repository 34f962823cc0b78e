// Package types provides the domain model shared across the rule engine
// components: rule definitions, evaluation outcomes, identifiers, and the
// error taxonomy.
//
// Zero-dependency design: types.go and errors.go use only the standard
// library so the engine core can be embedded without pulling in transport or
// storage packages. ID utilities in ids.go import uuid but are isolated for
// selective inclusion.
package types

import "encoding/json"

// RuleID represents a UUIDv7 rule identifier.
// String alias enables type safety while maintaining JSON string serialization.
// UUIDv7 time-ordering ensures sequential IDs cluster in B-tree indexes.
type RuleID string

// LeadID represents a UUIDv7 lead identifier.
// String alias enables type safety while maintaining JSON string serialization.
type LeadID string

// Record represents an arbitrary JSON record (lead, account) under evaluation.
// json.RawMessage wrapper preserves original bytes for schema-agnostic
// matching. No validation or parsing; the rule engine operates directly on
// the raw JSON structure, and malformed or missing fields degrade individual
// conditions to non-matching rather than failing the evaluation.
type Record json.RawMessage

// MarshalJSON implements json.Marshaler.
// Delegates to json.RawMessage to preserve original record bytes unchanged.
func (r Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	return json.RawMessage(r).MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler.
// Delegates to json.RawMessage to capture raw bytes without parsing.
func (r *Record) UnmarshalJSON(data []byte) error {
	return (*json.RawMessage)(r).UnmarshalJSON(data)
}

// Resource limits enforced at rule registration time. Rules are
// operator-authored, so violations fail fast at authoring time rather than
// during evaluation.
const (
	// MaxConditionsPerRule bounds per-rule evaluation work.
	// 32 conditions covers the richest qualification rules seen in practice.
	MaxConditionsPerRule = 32

	// MaxFieldPathDepth prevents excessive recursion during field resolution.
	// 16 levels handles deeply nested records (lead.company.address.city).
	MaxFieldPathDepth = 16

	// MinRuleScore and MaxRuleScore bound a single scoring rule contribution.
	// Scores are non-negative; a rule can never subtract from a lead's total.
	MinRuleScore = 0
	MaxRuleScore = 100

	// MaxCategoryScore caps the per-category subtotal during accumulation.
	// Four categories at 100 each yield the 400-point ceiling.
	MaxCategoryScore = 100

	// MinRulePriority and MaxRulePriority bound the priority field.
	// Lower value means higher precedence.
	MinRulePriority = 0
	MaxRulePriority = 10000
)

// Qualification status thresholds applied to the accumulated total score.
const (
	// SalesQualifiedThreshold is the minimum total for SALES_QUALIFIED.
	SalesQualifiedThreshold = 80

	// MarketingQualifiedThreshold is the minimum total for MARKETING_QUALIFIED.
	MarketingQualifiedThreshold = 50
)
