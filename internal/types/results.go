package types

import "time"

// QualificationStatus is the coarse classification of a lead's total score
// against the fixed thresholds.
type QualificationStatus string

const (
	StatusUnqualified        QualificationStatus = "UNQUALIFIED"
	StatusInProgress         QualificationStatus = "IN_PROGRESS"
	StatusMarketingQualified QualificationStatus = "MARKETING_QUALIFIED"
	StatusSalesQualified     QualificationStatus = "SALES_QUALIFIED"
)

// Qualified reports whether the status counts as a qualified state for the
// purpose of the qualifiedAt transition.
func (s QualificationStatus) Qualified() bool {
	return s == StatusMarketingQualified || s == StatusSalesQualified
}

// StatusForScore classifies a total score against the fixed thresholds:
// >= 80 SALES_QUALIFIED, >= 50 MARKETING_QUALIFIED, > 0 IN_PROGRESS,
// 0 UNQUALIFIED.
func StatusForScore(total int) QualificationStatus {
	switch {
	case total >= SalesQualifiedThreshold:
		return StatusSalesQualified
	case total >= MarketingQualifiedThreshold:
		return StatusMarketingQualified
	case total > 0:
		return StatusInProgress
	default:
		return StatusUnqualified
	}
}

// AssignmentPath records which resolution path produced an assignment.
type AssignmentPath string

const (
	// PathPrimary: the rule's primary target accepted the assignment.
	PathPrimary AssignmentPath = "primary"
	// PathFallback: the primary target was at capacity and the rule's
	// fallback target was used instead.
	PathFallback AssignmentPath = "fallback"
	// PathUnassigned: no rule matched, or the matched rule had no viable
	// target. Terminal, explicitly representable; never a default rule.
	PathUnassigned AssignmentPath = "unassigned"
)

// AssignmentOutcome is the result of routing one record through the
// assignment rules. Immutable snapshot once returned.
type AssignmentOutcome struct {
	LeadID      LeadID         `json:"leadId"`
	RuleID      RuleID         `json:"ruleId,omitempty"` // empty when unassigned
	RuleName    string         `json:"ruleName,omitempty"`
	TargetKind  TargetKind     `json:"targetKind,omitempty"`
	Assignee    string         `json:"assignee,omitempty"` // empty when unassigned
	Path        AssignmentPath `json:"path"`
	EvaluatedAt time.Time      `json:"evaluatedAt"`
}

// Assigned reports whether the outcome carries a definite assignee.
func (o AssignmentOutcome) Assigned() bool {
	return o.Path != PathUnassigned
}

// AppliedRule identifies one scoring rule that contributed to a
// qualification result, in evaluation order.
type AppliedRule struct {
	RuleID   RuleID        `json:"ruleId"`
	Name     string        `json:"name"`
	Category ScoreCategory `json:"category"`
	Score    int           `json:"score"`
}

// ScoreComponents holds the per-category subtotals, each capped at
// MaxCategoryScore.
type ScoreComponents map[ScoreCategory]int

// QualificationResult is the outcome of scoring one record against the
// active scoring rule set. Created fresh on each evaluation and never
// mutated after return; toggling or deleting rules does not affect results
// already computed.
type QualificationResult struct {
	LeadID       LeadID              `json:"leadId"`
	TotalScore   int                 `json:"totalScore"`
	Components   ScoreComponents     `json:"scoreComponents"`
	Status       QualificationStatus `json:"status"`
	AppliedRules []AppliedRule       `json:"appliedRules"`
	EvaluatedAt  time.Time           `json:"evaluatedAt"`
	// QualifiedAt is set the first time status transitions into a qualified
	// state and carried forward unchanged on subsequent evaluations.
	QualifiedAt *time.Time `json:"qualifiedAt,omitempty"`
}
