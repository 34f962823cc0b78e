package api

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/kylasweb/inline-crm-rules/internal/types"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterStructValidation(conditionStructLevel, conditionRequest{})
	}
}

// conditionStructLevel enforces cross-field constraints binding tags cannot
// express: between needs both bounds, the other operators take none.
func conditionStructLevel(sl validator.StructLevel) {
	c := sl.Current().Interface().(conditionRequest)
	if c.Operator == "between" && c.SecondaryValue == "" {
		sl.ReportError(c.SecondaryValue, "secondaryValue", "SecondaryValue", "required_with_between", "")
	}
	if c.Operator != "between" && c.SecondaryValue != "" {
		sl.ReportError(c.SecondaryValue, "secondaryValue", "SecondaryValue", "excluded_without_between", "")
	}
}

// Request DTOs carry gin binding tags for structural validation; semantic
// validation (operator/type pairing, value coercion, range sanity) happens
// at rule compilation and is reported through the same 400 path.

type conditionRequest struct {
	Field          string `json:"field" binding:"required"`
	Operator       string `json:"operator" binding:"required,oneof=equals notEquals contains greaterThan lessThan between"`
	FieldType      string `json:"fieldType" binding:"omitempty,oneof=string number date"`
	Value          string `json:"value"`
	SecondaryValue string `json:"secondaryValue"`
}

type actionRequest struct {
	Kind     string `json:"type" binding:"required,oneof=user team"`
	Target   string `json:"target" binding:"required"`
	Fallback string `json:"fallback"`
}

type assignmentRuleRequest struct {
	Name       string             `json:"name" binding:"required,max=200"`
	Priority   int                `json:"priority" binding:"min=0,max=10000"`
	IsActive   *bool              `json:"isActive"`
	Conditions []conditionRequest `json:"conditions" binding:"required,min=1,max=32,dive"`
	Action     actionRequest      `json:"action" binding:"required"`
}

type scoringRuleRequest struct {
	Name       string             `json:"name" binding:"required,max=200"`
	Priority   int                `json:"priority" binding:"min=0,max=10000"`
	IsActive   *bool              `json:"isActive"`
	Conditions []conditionRequest `json:"conditions" binding:"required,min=1,max=32,dive"`
	Category   string             `json:"category" binding:"required,oneof=demographic company engagement custom"`
	Score      int                `json:"score" binding:"min=0,max=100"`
}

type evaluateLeadRequest struct {
	LeadID string       `json:"leadId" binding:"required"`
	Record types.Record `json:"record" binding:"required"`
}

func (r assignmentRuleRequest) toRule() types.AssignmentRule {
	return types.AssignmentRule{
		Rule: types.Rule{
			Name:       r.Name,
			Priority:   r.Priority,
			IsActive:   active(r.IsActive),
			Conditions: conditions(r.Conditions),
		},
		Action: types.AssignmentAction{
			Kind:     types.TargetKind(r.Action.Kind),
			Target:   r.Action.Target,
			Fallback: r.Action.Fallback,
		},
	}
}

func (r scoringRuleRequest) toRule() types.ScoringRule {
	return types.ScoringRule{
		Rule: types.Rule{
			Name:       r.Name,
			Priority:   r.Priority,
			IsActive:   active(r.IsActive),
			Conditions: conditions(r.Conditions),
		},
		Category: types.ScoreCategory(r.Category),
		Score:    r.Score,
	}
}

// active defaults omitted isActive to true: newly authored rules go live
// unless explicitly created disabled.
func active(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}

func conditions(reqs []conditionRequest) []types.Condition {
	out := make([]types.Condition, len(reqs))
	for i, c := range reqs {
		out[i] = types.Condition{
			Field:          c.Field,
			Operator:       types.Operator(c.Operator),
			FieldType:      types.FieldType(c.FieldType),
			Value:          c.Value,
			SecondaryValue: c.SecondaryValue,
		}
	}
	return out
}
