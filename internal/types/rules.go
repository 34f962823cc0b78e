package types

import (
	"fmt"
	"time"
)

// Operator identifies a condition comparison. Serialized with the wire names
// the rule authoring UI produces.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "notEquals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
	OpBetween     Operator = "between"
)

// Valid reports whether the operator is in the supported set.
func (o Operator) Valid() bool {
	switch o {
	case OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan, OpBetween:
		return true
	default:
		return false
	}
}

// FieldType declares the semantic type of a record field. Comparison values
// are coerced to this type once at rule registration; record values are
// coerced at evaluation time and degrade to non-matching on failure.
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeNumber FieldType = "number"
	FieldTypeDate   FieldType = "date"
)

// Valid reports whether the field type is in the supported set.
// The empty value is valid: registration defaults it per operator.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeString, FieldTypeNumber, FieldTypeDate, "":
		return true
	default:
		return false
	}
}

// Condition represents a single field/operator/value test composing part of
// a rule's trigger. Value and SecondaryValue carry the operator-authored
// string form; typed coercion happens once at registration.
type Condition struct {
	Field          string    `json:"field"`
	Operator       Operator  `json:"operator"`
	FieldType      FieldType `json:"fieldType,omitempty"`
	Value          string    `json:"value"`
	SecondaryValue string    `json:"secondaryValue,omitempty"` // between upper bound
}

// Rule is the base shared by assignment and scoring variants: a named,
// prioritized, conditionally-activated unit of business logic. Conditions
// are logically AND-ed; a rule fires only if all conditions match.
type Rule struct {
	ID         RuleID      `json:"id"`
	Name       string      `json:"name"`
	Priority   int         `json:"priority"` // lower value = higher precedence
	IsActive   bool        `json:"isActive"`
	Conditions []Condition `json:"conditions"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// TargetKind distinguishes user and team assignment targets.
type TargetKind string

const (
	TargetUser TargetKind = "user"
	TargetTeam TargetKind = "team"
)

// AssignmentAction maps a fired rule to an assignee, with an optional
// fallback used when the primary target is at capacity.
type AssignmentAction struct {
	Kind     TargetKind `json:"type"`
	Target   string     `json:"target"`
	Fallback string     `json:"fallback,omitempty"`
}

// AssignmentRule routes a matching record to a user or team.
// First matching rule wins; see the assignment resolver.
type AssignmentRule struct {
	Rule
	Action AssignmentAction `json:"action"`
}

// Base returns the embedded base rule.
func (r AssignmentRule) Base() Rule { return r.Rule }

// WithBase returns a copy with the base rule replaced.
func (r AssignmentRule) WithBase(b Rule) AssignmentRule {
	r.Rule = b
	return r
}

// Validate checks the assignment-specific invariants. Base rule structure is
// validated separately at compilation.
func (r AssignmentRule) Validate() error {
	switch r.Action.Kind {
	case TargetUser, TargetTeam:
	default:
		return fmt.Errorf("%w: action type must be user or team", ErrInvalidRule)
	}
	if r.Action.Target == "" {
		return ErrEmptyTarget
	}
	return nil
}

// ScoreCategory groups scoring rules into the qualification dimensions
// surfaced in the lead score breakdown.
type ScoreCategory string

const (
	CategoryDemographic ScoreCategory = "demographic"
	CategoryCompany     ScoreCategory = "company"
	CategoryEngagement  ScoreCategory = "engagement"
	CategoryCustom      ScoreCategory = "custom"
)

// Valid reports whether the category is in the known set.
func (c ScoreCategory) Valid() bool {
	switch c {
	case CategoryDemographic, CategoryCompany, CategoryEngagement, CategoryCustom:
		return true
	default:
		return false
	}
}

// ScoringRule contributes a weighted score to a matching record's total.
// All matching scoring rules accumulate; see the qualification scorer.
type ScoringRule struct {
	Rule
	Category ScoreCategory `json:"category"`
	Score    int           `json:"score"` // 0-100 inclusive
}

// Base returns the embedded base rule.
func (r ScoringRule) Base() Rule { return r.Rule }

// WithBase returns a copy with the base rule replaced.
func (r ScoringRule) WithBase(b Rule) ScoringRule {
	r.Rule = b
	return r
}

// Validate checks the scoring-specific invariants. Base rule structure is
// validated separately at compilation.
func (r ScoringRule) Validate() error {
	if !r.Category.Valid() {
		return ErrUnknownCategory
	}
	if r.Score < MinRuleScore || r.Score > MaxRuleScore {
		return ErrScoreOutOfBounds
	}
	return nil
}
