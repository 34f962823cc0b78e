// Package assignment decides which salesperson or team owns a lead.
//
// Resolution evaluates the active assignment rules against a point-in-time
// snapshot, picks the single highest-precedence matching rule, and then
// routes around a saturated target via the rule's fallback. A lead that no
// rule claims, or whose target chain is exhausted, resolves to an explicit
// unassigned outcome rather than an error.
package assignment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kylasweb/inline-crm-rules/internal/capacity"
	"github.com/kylasweb/inline-crm-rules/internal/history"
	"github.com/kylasweb/inline-crm-rules/internal/rules"
	"github.com/kylasweb/inline-crm-rules/internal/store"
	"github.com/kylasweb/inline-crm-rules/internal/types"
)

// Resolver evaluates assignment rules against lead records.
type Resolver struct {
	store    *store.Store[types.AssignmentRule]
	capacity capacity.Provider
	recorder history.Recorder
	log      *slog.Logger
	now      func() time.Time
}

// NewResolver wires the resolver. A nil provider disables capacity checks
// and a nil recorder disables history.
func NewResolver(st *store.Store[types.AssignmentRule], prov capacity.Provider, rec history.Recorder, log *slog.Logger) *Resolver {
	if prov == nil {
		prov = capacity.Unlimited{}
	}
	if rec == nil {
		rec = history.Discard{}
	}
	return &Resolver{
		store:    st,
		capacity: prov,
		recorder: rec,
		log:      log,
		now:      time.Now,
	}
}

// Resolve assigns a lead record. Record-shape problems (missing fields,
// type mismatches) make conditions evaluate false; they never fail the
// call. An error is returned only for malformed record JSON or an
// unreachable capacity source.
func (r *Resolver) Resolve(ctx context.Context, leadID types.LeadID, record types.Record) (types.AssignmentOutcome, error) {
	doc, err := rules.DecodeRecord(record)
	if err != nil {
		return types.AssignmentOutcome{}, fmt.Errorf("decode lead record: %w", err)
	}

	snap := r.store.ListActive()
	matched := rules.FirstMatch(doc, snap.Compiled())

	outcome := types.AssignmentOutcome{
		LeadID:      leadID,
		Path:        types.PathUnassigned,
		EvaluatedAt: r.now().UTC(),
	}

	if matched == nil {
		r.log.Debug("no assignment rule matched", "lead_id", leadID, "rules", snap.Len())
		r.record(ctx, outcome)
		return outcome, nil
	}

	rule, ok := snap.Lookup(matched.ID)
	if !ok {
		// Snapshot is internally consistent; a compiled rule always has
		// its definition alongside.
		return types.AssignmentOutcome{}, fmt.Errorf("rule %s missing from snapshot", matched.ID)
	}

	outcome.RuleID = rule.ID
	outcome.RuleName = rule.Name
	outcome.TargetKind = rule.Action.Kind

	assignee, path, err := r.pickTarget(ctx, rule.Action)
	if err != nil {
		return types.AssignmentOutcome{}, err
	}
	outcome.Assignee = assignee
	outcome.Path = path

	if assignee != "" {
		if rec, ok := r.capacity.(capacity.Recorder); ok {
			rec.Record(rule.Action.Kind, assignee)
		}
	}

	r.log.Info("lead assigned",
		"lead_id", leadID,
		"rule_id", rule.ID,
		"rule_name", rule.Name,
		"assignee", assignee,
		"path", path,
	)
	r.record(ctx, outcome)
	return outcome, nil
}

// pickTarget applies the capacity check to the rule's primary target and
// falls back when it is saturated. The fallback is taken as-is: a rule
// author names a fallback precisely because it absorbs overflow.
func (r *Resolver) pickTarget(ctx context.Context, action types.AssignmentAction) (string, types.AssignmentPath, error) {
	load, err := r.capacity.GetCapacity(ctx, action.Kind, action.Target)
	if err != nil {
		return "", types.PathUnassigned, fmt.Errorf("capacity check for %s %q: %w", action.Kind, action.Target, err)
	}

	if !load.AtLimit() {
		return action.Target, types.PathPrimary, nil
	}

	if action.Fallback == "" {
		r.log.Warn("target at capacity with no fallback",
			"kind", action.Kind, "target", action.Target,
			"current", load.Current, "max", load.Max,
		)
		return "", types.PathUnassigned, nil
	}

	return action.Fallback, types.PathFallback, nil
}

func (r *Resolver) record(ctx context.Context, outcome types.AssignmentOutcome) {
	raw, err := json.Marshal(outcome)
	if err != nil {
		return
	}
	if err := r.recorder.Record(ctx, history.Entry{
		LeadID:      outcome.LeadID,
		Kind:        history.KindAssignment,
		Outcome:     raw,
		EvaluatedAt: outcome.EvaluatedAt,
	}); err != nil {
		r.log.Warn("assignment history record failed", "lead_id", outcome.LeadID, "error", err)
	}
}
