// internal/rules/compile.go
package rules

import (
	"fmt"
	"sort"

	"github.com/kylasweb/inline-crm-rules/internal/types"
)

/*
 * Rule compilation and validation.
 *
 * Compiles a types.Rule into a CompiledRule with parsed field paths,
 * comparison values coerced once to their declared field type, and
 * conditions ordered by ascending cost.
 *
 * Compilation workflow:
 *   1. Validate structure (condition count, priority bounds)
 *   2. Per condition: validate operator/field-type pairing, parse the field
 *      path, coerce Value (and SecondaryValue for between) to typed form
 *   3. Order conditions by ascending cost (stable sort for determinism)
 *
 * Compile-time validation moves error detection to rule authoring time:
 * every structural problem a rule can have surfaces as an ErrInvalidRule
 * variant here, and evaluation afterwards never errors.
 */

// CompiledCondition is a pre-processed condition ready for evaluation.
type CompiledCondition struct {
	Field     string // original dotted expression, kept for diagnostics
	Path      []PathSegment
	Operator  types.Operator
	FieldType types.FieldType // normalized, never empty
	Target    any             // coerced comparison value
	Upper     any             // coerced between upper bound (nil otherwise)
	Cost      int
}

// CompiledRule is fully validated and ready for matching. Seq is the
// registration order assigned by the rule store and breaks priority ties.
type CompiledRule struct {
	ID         types.RuleID
	Name       string
	Priority   int
	Active     bool
	Seq        uint64
	Conditions []CompiledCondition // ordered by ascending cost
}

// Compile validates and pre-processes a base rule for evaluation.
// Returns an ErrInvalidRule variant for every structural violation.
func Compile(rule types.Rule) (*CompiledRule, error) {
	if len(rule.Conditions) == 0 {
		return nil, types.ErrNoConditions
	}
	if len(rule.Conditions) > types.MaxConditionsPerRule {
		return nil, types.ErrTooManyConditions
	}
	if rule.Priority < types.MinRulePriority || rule.Priority > types.MaxRulePriority {
		return nil, types.ErrPriorityOutOfBounds
	}

	compiled := &CompiledRule{
		ID:         rule.ID,
		Name:       rule.Name,
		Priority:   rule.Priority,
		Active:     rule.IsActive,
		Conditions: make([]CompiledCondition, 0, len(rule.Conditions)),
	}

	for i, cond := range rule.Conditions {
		cc, err := compileCondition(cond)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		compiled.Conditions = append(compiled.Conditions, cc)
	}

	// Stable sort: equal-cost conditions maintain authored order
	sort.SliceStable(compiled.Conditions, func(i, j int) bool {
		return compiled.Conditions[i].Cost < compiled.Conditions[j].Cost
	})

	return compiled, nil
}

// compileCondition validates and pre-processes a single condition.
// Field paths are parsed and comparison values coerced exactly once here so
// evaluation only resolves record values.
func compileCondition(cond types.Condition) (CompiledCondition, error) {
	if !cond.Operator.Valid() {
		return CompiledCondition{}, types.ErrUnknownOperator
	}
	if !cond.FieldType.Valid() {
		return CompiledCondition{}, types.ErrUnknownFieldType
	}

	ft := normalizeFieldType(cond.Operator, cond.FieldType)
	if err := checkOperatorType(cond.Operator, ft); err != nil {
		return CompiledCondition{}, err
	}

	path, err := ParseFieldPath(cond.Field)
	if err != nil {
		return CompiledCondition{}, err
	}

	target, err := coerceComparison(cond.Value, ft)
	if err != nil {
		return CompiledCondition{}, err
	}

	var upper any
	if cond.Operator == types.OpBetween {
		if cond.SecondaryValue == "" {
			return CompiledCondition{}, types.ErrMissingUpperBound
		}
		upper, err = coerceComparison(cond.SecondaryValue, ft)
		if err != nil {
			return CompiledCondition{}, err
		}
		if cmp, ok := compareOrdered(target, upper); !ok || cmp > 0 {
			return CompiledCondition{}, types.ErrInvertedRange
		}
	}

	return CompiledCondition{
		Field:     cond.Field,
		Path:      path,
		Operator:  cond.Operator,
		FieldType: ft,
		Target:    target,
		Upper:     upper,
		Cost:      conditionCost(path, cond.Operator, ft),
	}, nil
}

// normalizeFieldType defaults an unspecified field type per operator:
// ordered operators imply number, everything else implies string.
func normalizeFieldType(op types.Operator, ft types.FieldType) types.FieldType {
	if ft != "" {
		return ft
	}
	switch op {
	case types.OpGreaterThan, types.OpLessThan, types.OpBetween:
		return types.FieldTypeNumber
	default:
		return types.FieldTypeString
	}
}

// checkOperatorType rejects operator/field-type pairings that can never
// match: contains needs a string field, ordered operators need an orderable
// field.
func checkOperatorType(op types.Operator, ft types.FieldType) error {
	switch op {
	case types.OpContains:
		if ft != types.FieldTypeString {
			return fmt.Errorf("%w: contains requires a string field", types.ErrInvalidRule)
		}
	case types.OpGreaterThan, types.OpLessThan, types.OpBetween:
		if ft != types.FieldTypeNumber && ft != types.FieldTypeDate {
			return fmt.Errorf("%w: %s requires a number or date field", types.ErrInvalidRule, op)
		}
	}
	return nil
}

// coerceComparison coerces an authored comparison value to its typed form.
func coerceComparison(value string, ft types.FieldType) (any, error) {
	res, err := Coerce(value, ft)
	if err != nil || res.IsNull {
		return nil, types.ErrBadComparisonValue
	}
	return res.Value, nil
}
