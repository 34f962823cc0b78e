// Package qualification scores leads against the active scoring rules and
// classifies the total into a qualification status.
//
// Unlike assignment, scoring accumulates: every active matching rule
// contributes its score to its category, each category subtotal is capped,
// and the total is the sum of the capped subtotals.
package qualification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kylasweb/inline-crm-rules/internal/history"
	"github.com/kylasweb/inline-crm-rules/internal/rules"
	"github.com/kylasweb/inline-crm-rules/internal/store"
	"github.com/kylasweb/inline-crm-rules/internal/types"
)

// Scorer evaluates scoring rules against lead records.
type Scorer struct {
	store    *store.Store[types.ScoringRule]
	recorder history.Recorder
	log      *slog.Logger
	now      func() time.Time
}

// NewScorer wires the scorer. A nil recorder disables history.
func NewScorer(st *store.Store[types.ScoringRule], rec history.Recorder, log *slog.Logger) *Scorer {
	if rec == nil {
		rec = history.Discard{}
	}
	return &Scorer{
		store:    st,
		recorder: rec,
		log:      log,
		now:      time.Now,
	}
}

// Score evaluates a lead record against the active scoring rules. prev is
// the lead's previous result, if any; its QualifiedAt is carried forward so
// the first-qualification timestamp survives re-evaluation. Record-shape
// problems make conditions evaluate false and never fail the call.
func (s *Scorer) Score(ctx context.Context, leadID types.LeadID, record types.Record, prev *types.QualificationResult) (types.QualificationResult, error) {
	doc, err := rules.DecodeRecord(record)
	if err != nil {
		return types.QualificationResult{}, fmt.Errorf("decode lead record: %w", err)
	}

	snap := s.store.ListActive()
	matched := rules.Accumulate(doc, snap.Compiled())

	components := make(types.ScoreComponents)
	applied := make([]types.AppliedRule, 0, len(matched))

	for _, m := range matched {
		rule, ok := snap.Lookup(m.ID)
		if !ok {
			return types.QualificationResult{}, fmt.Errorf("rule %s missing from snapshot", m.ID)
		}

		components[rule.Category] += rule.Score
		if components[rule.Category] > types.MaxCategoryScore {
			components[rule.Category] = types.MaxCategoryScore
		}

		applied = append(applied, types.AppliedRule{
			RuleID:   rule.ID,
			Name:     rule.Name,
			Category: rule.Category,
			Score:    rule.Score,
		})
	}

	total := 0
	for _, sub := range components {
		total += sub
	}

	result := types.QualificationResult{
		LeadID:       leadID,
		TotalScore:   total,
		Components:   components,
		Status:       types.StatusForScore(total),
		AppliedRules: applied,
		EvaluatedAt:  s.now().UTC(),
	}

	// QualifiedAt is write-once: set on the first transition into a
	// qualified status, then carried forward even if the score later drops.
	switch {
	case prev != nil && prev.QualifiedAt != nil:
		result.QualifiedAt = prev.QualifiedAt
	case result.Status.Qualified():
		t := result.EvaluatedAt
		result.QualifiedAt = &t
	}

	s.log.Info("lead scored",
		"lead_id", leadID,
		"total", total,
		"status", result.Status,
		"applied_rules", len(applied),
	)
	s.record(ctx, result)
	return result, nil
}

func (s *Scorer) record(ctx context.Context, result types.QualificationResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.recorder.Record(ctx, history.Entry{
		LeadID:      result.LeadID,
		Kind:        history.KindQualification,
		Outcome:     raw,
		EvaluatedAt: result.EvaluatedAt,
	}); err != nil {
		s.log.Warn("qualification history record failed", "lead_id", result.LeadID, "error", err)
	}
}
