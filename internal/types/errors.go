package types

import (
	"errors"
	"fmt"
)

// Error taxonomy for rule engine operations. All errors are recoverable by
// the caller; none are fatal to the process. Rule definitions are validated
// strictly at registration time, while records under evaluation never cause
// errors (missing or mis-typed fields degrade conditions to non-matching).
var (
	// ErrInvalidRule indicates a malformed rule at create/update time.
	// Specific violations below wrap this sentinel so callers can test with
	// errors.Is at either granularity.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrRuleNotFound indicates an operation referenced an unknown rule id.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrDuplicateRuleID indicates an id collision on create.
	ErrDuplicateRuleID = errors.New("duplicate rule id")
)

// Specific invalid-rule violations, each wrapping ErrInvalidRule.
var (
	// ErrNoConditions indicates a rule with an empty condition list.
	// A rule with zero conditions can never fire; rejected at registration.
	ErrNoConditions = fmt.Errorf("%w: rule has no conditions", ErrInvalidRule)

	// ErrTooManyConditions indicates a rule exceeding MaxConditionsPerRule.
	ErrTooManyConditions = fmt.Errorf("%w: too many conditions", ErrInvalidRule)

	// ErrUnknownOperator indicates an operator outside the supported set.
	ErrUnknownOperator = fmt.Errorf("%w: unknown operator", ErrInvalidRule)

	// ErrUnknownFieldType indicates a field type outside the supported set.
	ErrUnknownFieldType = fmt.Errorf("%w: unknown field type", ErrInvalidRule)

	// ErrMissingUpperBound indicates a between condition without a
	// secondary value. Validated once at registration, not at evaluation.
	ErrMissingUpperBound = fmt.Errorf("%w: between condition missing upper bound", ErrInvalidRule)

	// ErrInvertedRange indicates a between condition whose lower bound
	// exceeds its upper bound.
	ErrInvertedRange = fmt.Errorf("%w: between bounds inverted", ErrInvalidRule)

	// ErrBadComparisonValue indicates a comparison value that cannot be
	// coerced to the condition's declared field type.
	ErrBadComparisonValue = fmt.Errorf("%w: comparison value does not match field type", ErrInvalidRule)

	// ErrPathTooDeep indicates a field path exceeding MaxFieldPathDepth.
	ErrPathTooDeep = fmt.Errorf("%w: field path exceeds maximum depth", ErrInvalidRule)

	// ErrEmptyField indicates a condition without a field name.
	ErrEmptyField = fmt.Errorf("%w: condition field is empty", ErrInvalidRule)

	// ErrScoreOutOfBounds indicates a scoring rule score outside [0, 100].
	ErrScoreOutOfBounds = fmt.Errorf("%w: score out of bounds", ErrInvalidRule)

	// ErrPriorityOutOfBounds indicates a priority outside the declared range.
	ErrPriorityOutOfBounds = fmt.Errorf("%w: priority out of bounds", ErrInvalidRule)

	// ErrEmptyTarget indicates an assignment rule without a target.
	ErrEmptyTarget = fmt.Errorf("%w: assignment target is empty", ErrInvalidRule)

	// ErrUnknownCategory indicates a scoring category outside the known set.
	ErrUnknownCategory = fmt.Errorf("%w: unknown scoring category", ErrInvalidRule)
)

// Evaluation-internal sentinels. Never surfaced to callers as evaluation
// failures; they signal non-matching conditions inside the matcher.
var (
	// ErrFieldNotFound indicates a field path could not be resolved in the
	// record under evaluation.
	ErrFieldNotFound = errors.New("field not found")

	// ErrCoercionFailed indicates a record value could not be coerced to the
	// condition's field type.
	ErrCoercionFailed = errors.New("type coercion failed")
)
