package rules

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kylasweb/inline-crm-rules/internal/types"
)

func validRule() types.Rule {
	return types.Rule{
		ID:       "rule-1",
		Name:     "enterprise leads",
		Priority: 10,
		IsActive: true,
		Conditions: []types.Condition{
			{Field: "company.size", Operator: types.OpGreaterThan, FieldType: types.FieldTypeNumber, Value: "500"},
		},
	}
}

func TestCompile_Valid(t *testing.T) {
	compiled, err := Compile(validRule())
	if err != nil {
		t.Fatalf("Compile() unexpected error: %v", err)
	}
	if compiled.ID != "rule-1" {
		t.Errorf("ID = %q, want rule-1", compiled.ID)
	}
	if len(compiled.Conditions) != 1 {
		t.Fatalf("Conditions = %d, want 1", len(compiled.Conditions))
	}
	if compiled.Conditions[0].Target != 500.0 {
		t.Errorf("Target = %v, want 500.0", compiled.Conditions[0].Target)
	}
}

func TestCompile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.Rule)
		wantErr error
	}{
		{
			name:    "no conditions",
			mutate:  func(r *types.Rule) { r.Conditions = nil },
			wantErr: types.ErrNoConditions,
		},
		{
			name: "too many conditions",
			mutate: func(r *types.Rule) {
				for i := 0; i <= types.MaxConditionsPerRule; i++ {
					r.Conditions = append(r.Conditions, types.Condition{
						Field: fmt.Sprintf("f%d", i), Operator: types.OpEquals, Value: "x",
					})
				}
			},
			wantErr: types.ErrTooManyConditions,
		},
		{
			name:    "unknown operator",
			mutate:  func(r *types.Rule) { r.Conditions[0].Operator = "matches" },
			wantErr: types.ErrUnknownOperator,
		},
		{
			name:    "unknown field type",
			mutate:  func(r *types.Rule) { r.Conditions[0].FieldType = "decimal" },
			wantErr: types.ErrUnknownFieldType,
		},
		{
			name:    "priority below bounds",
			mutate:  func(r *types.Rule) { r.Priority = -1 },
			wantErr: types.ErrPriorityOutOfBounds,
		},
		{
			name:    "priority above bounds",
			mutate:  func(r *types.Rule) { r.Priority = types.MaxRulePriority + 1 },
			wantErr: types.ErrPriorityOutOfBounds,
		},
		{
			name:    "empty field",
			mutate:  func(r *types.Rule) { r.Conditions[0].Field = "" },
			wantErr: types.ErrEmptyField,
		},
		{
			name:    "bad comparison value",
			mutate:  func(r *types.Rule) { r.Conditions[0].Value = "lots" },
			wantErr: types.ErrBadComparisonValue,
		},
		{
			name: "contains on number",
			mutate: func(r *types.Rule) {
				r.Conditions[0].Operator = types.OpContains
			},
			wantErr: types.ErrInvalidRule,
		},
		{
			name: "ordered operator on string",
			mutate: func(r *types.Rule) {
				r.Conditions[0].FieldType = types.FieldTypeString
			},
			wantErr: types.ErrInvalidRule,
		},
		{
			name: "between without upper bound",
			mutate: func(r *types.Rule) {
				r.Conditions[0].Operator = types.OpBetween
				r.Conditions[0].SecondaryValue = ""
			},
			wantErr: types.ErrMissingUpperBound,
		},
		{
			name: "between inverted range",
			mutate: func(r *types.Rule) {
				r.Conditions[0].Operator = types.OpBetween
				r.Conditions[0].Value = "100"
				r.Conditions[0].SecondaryValue = "50"
			},
			wantErr: types.ErrInvertedRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validRule()
			tt.mutate(&rule)

			_, err := Compile(rule)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Compile() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, types.ErrInvalidRule) {
				t.Errorf("Compile() error %v does not wrap ErrInvalidRule", err)
			}
		})
	}
}

func TestCompile_FieldTypeDefaults(t *testing.T) {
	tests := []struct {
		name     string
		operator types.Operator
		value    string
		want     types.FieldType
	}{
		{name: "equals defaults to string", operator: types.OpEquals, value: "acme", want: types.FieldTypeString},
		{name: "contains defaults to string", operator: types.OpContains, value: "acme", want: types.FieldTypeString},
		{name: "greaterThan defaults to number", operator: types.OpGreaterThan, value: "5", want: types.FieldTypeNumber},
		{name: "lessThan defaults to number", operator: types.OpLessThan, value: "5", want: types.FieldTypeNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validRule()
			rule.Conditions = []types.Condition{
				{Field: "f", Operator: tt.operator, Value: tt.value},
			}

			compiled, err := Compile(rule)
			if err != nil {
				t.Fatalf("Compile() unexpected error: %v", err)
			}
			if compiled.Conditions[0].FieldType != tt.want {
				t.Errorf("FieldType = %q, want %q", compiled.Conditions[0].FieldType, tt.want)
			}
		})
	}
}

// Cheap conditions run first so short-circuit evaluation skips expensive
// comparisons on non-matching records.
func TestCompile_ConditionOrdering(t *testing.T) {
	rule := validRule()
	rule.Conditions = []types.Condition{
		{Field: "a.b.c.d", Operator: types.OpContains, FieldType: types.FieldTypeString, Value: "x"},
		{Field: "a", Operator: types.OpEquals, FieldType: types.FieldTypeNumber, Value: "1"},
	}

	compiled, err := Compile(rule)
	if err != nil {
		t.Fatalf("Compile() unexpected error: %v", err)
	}
	if compiled.Conditions[0].Field != "a" {
		t.Errorf("expected cheap equality condition first, got %q", compiled.Conditions[0].Field)
	}
	if compiled.Conditions[0].Cost >= compiled.Conditions[1].Cost {
		t.Errorf("conditions not sorted by cost: %d then %d", compiled.Conditions[0].Cost, compiled.Conditions[1].Cost)
	}
}
