// internal/rules/cost.go
package rules

import "github.com/kylasweb/inline-crm-rules/internal/types"

/*
 * Cost model for condition evaluation order.
 *
 * Conditions within a rule are AND-ed, so evaluating cheaper conditions
 * first maximizes the short-circuit benefit on non-matching records without
 * changing the outcome. Costs are computed once at compilation and drive a
 * stable sort of the compiled conditions.
 *
 * cost = lookup_cost + (operator_cost * field_type_multiplier)
 */

const (
	// Operator base costs
	CostEquals      = 5
	CostNotEquals   = 5
	CostGreaterThan = 7
	CostLessThan    = 7
	CostBetween     = 9
	CostContains    = 10

	// Field lookup cost per path segment
	CostLookupPerSegment = 16

	// Field type multipliers: string comparison (lowercasing, scanning) is
	// noticeably more expensive than numeric or timestamp comparison.
	MultiplierNumber = 1
	MultiplierDate   = 2
	MultiplierString = 8
)

// conditionCost computes the evaluation cost for a single condition.
func conditionCost(path []PathSegment, op types.Operator, fieldType types.FieldType) int {
	lookupCost := len(path) * CostLookupPerSegment
	return lookupCost + operatorCost(op)*typeMultiplier(fieldType)
}

// operatorCost returns the base cost for operator execution.
func operatorCost(op types.Operator) int {
	switch op {
	case types.OpEquals, types.OpNotEquals:
		return CostEquals
	case types.OpGreaterThan, types.OpLessThan:
		return CostGreaterThan
	case types.OpBetween:
		return CostBetween
	case types.OpContains:
		return CostContains
	default:
		return CostEquals
	}
}

// typeMultiplier returns the cost multiplier for the field type.
func typeMultiplier(ft types.FieldType) int {
	switch ft {
	case types.FieldTypeNumber:
		return MultiplierNumber
	case types.FieldTypeDate:
		return MultiplierDate
	case types.FieldTypeString:
		return MultiplierString
	default:
		return MultiplierString
	}
}
