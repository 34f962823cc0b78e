// Package store provides the rule store consumed by the assignment and
// qualification engines.
//
// One generic implementation manages both rule kinds. Mutations
// (create/update/delete/toggle) are serialized under a mutex to preserve the
// id-uniqueness and ordering invariants; reads go through an immutable
// copy-on-write snapshot rebuilt after every mutation, so an in-flight
// evaluation observes a consistent rule set regardless of concurrent
// mutations that begin after it.
//
// Rules are compiled at registration: every structural invariant is checked
// on Create/Update and the snapshot carries pre-compiled rules, so the
// evaluation path never validates or coerces comparison values again.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kylasweb/inline-crm-rules/internal/rules"
	"github.com/kylasweb/inline-crm-rules/internal/types"
)

// Rule kinds persisted by the SQL repository.
const (
	KindAssignment = "assignment"
	KindScoring    = "scoring"
)

// Definition is satisfied by the two rule kinds managed by a Store.
type Definition[R any] interface {
	Base() types.Rule
	WithBase(types.Rule) R
	Validate() error
}

// Persisted pairs a stored rule with its registration sequence so the
// priority tie-break survives restarts.
type Persisted[R any] struct {
	Rule R
	Seq  uint64
}

// Repository durably persists rule mutations. The store applies a mutation
// in memory only after the repository accepted it; implementations are
// supplied by the caller (see SQLRepository).
type Repository[R any] interface {
	Save(ctx context.Context, rule R, seq uint64) error
	Delete(ctx context.Context, id types.RuleID) error
	LoadAll(ctx context.Context) ([]Persisted[R], error)
}

// Active pairs a rule definition with its compiled form inside a snapshot.
type Active[R any] struct {
	Rule     R
	Compiled *rules.CompiledRule
}

// Snapshot is an immutable view of the active rule set in stable
// priority-then-registration order. Safe for concurrent use; never mutated
// after publication.
type Snapshot[R any] struct {
	active []Active[R]
}

// Len returns the number of active rules in the snapshot.
func (s *Snapshot[R]) Len() int { return len(s.active) }

// Rules returns the active rule definitions in snapshot order.
func (s *Snapshot[R]) Rules() []R {
	out := make([]R, len(s.active))
	for i, a := range s.active {
		out[i] = a.Rule
	}
	return out
}

// Compiled returns the compiled active rules in snapshot order.
func (s *Snapshot[R]) Compiled() []*rules.CompiledRule {
	out := make([]*rules.CompiledRule, len(s.active))
	for i, a := range s.active {
		out[i] = a.Compiled
	}
	return out
}

// Lookup returns the definition for a compiled rule id in this snapshot.
func (s *Snapshot[R]) Lookup(id types.RuleID) (R, bool) {
	for _, a := range s.active {
		if a.Compiled.ID == id {
			return a.Rule, true
		}
	}
	var zero R
	return zero, false
}

type entry[R any] struct {
	rule     R
	compiled *rules.CompiledRule
	seq      uint64
}

// Store holds one kind of rule set. The zero value is not usable; construct
// with New.
type Store[R Definition[R]] struct {
	mu      sync.Mutex // serializes mutations
	entries map[types.RuleID]*entry[R]
	nextSeq uint64
	snap    atomic.Pointer[Snapshot[R]]
	repo    Repository[R] // nil for pure in-memory operation
}

// New creates an empty store. repo may be nil, in which case rules live in
// memory only.
func New[R Definition[R]](repo Repository[R]) *Store[R] {
	s := &Store[R]{
		entries: make(map[types.RuleID]*entry[R]),
		repo:    repo,
	}
	s.snap.Store(&Snapshot[R]{})
	return s
}

// Load seeds the store from the repository, preserving persisted
// registration order. Replaces any in-memory state.
func (s *Store[R]) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	persisted, err := s.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[types.RuleID]*entry[R], len(persisted))
	s.nextSeq = 0
	for _, p := range persisted {
		e, err := s.compileEntry(p.Rule, p.Seq)
		if err != nil {
			return fmt.Errorf("rule %s: %w", p.Rule.Base().ID, err)
		}
		s.entries[p.Rule.Base().ID] = e
		if p.Seq >= s.nextSeq {
			s.nextSeq = p.Seq + 1
		}
	}
	s.rebuildSnapshot()
	return nil
}

// Create registers a new rule. Assigns a UUIDv7 id when none is provided;
// fails with ErrDuplicateRuleID on collision and with an ErrInvalidRule
// variant when the definition violates any registration invariant.
func (s *Store[R]) Create(ctx context.Context, rule R) (R, error) {
	var zero R

	base := rule.Base()
	if base.ID == "" {
		base.ID = types.NewRuleID()
	}
	now := time.Now().UTC()
	base.CreatedAt = now
	base.UpdatedAt = now
	rule = rule.WithBase(base)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[base.ID]; exists {
		return zero, fmt.Errorf("%w: %s", types.ErrDuplicateRuleID, base.ID)
	}

	e, err := s.compileEntry(rule, s.nextSeq)
	if err != nil {
		return zero, err
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, rule, e.seq); err != nil {
			return zero, fmt.Errorf("persist rule: %w", err)
		}
	}

	s.entries[base.ID] = e
	s.nextSeq++
	s.rebuildSnapshot()
	return rule, nil
}

// Update replaces the definition of an existing rule, re-validating the
// merged rule against the same invariants as Create. Id, creation time, and
// registration order are immutable.
func (s *Store[R]) Update(ctx context.Context, id types.RuleID, rule R) (R, error) {
	var zero R

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[id]
	if !ok {
		return zero, fmt.Errorf("%w: %s", types.ErrRuleNotFound, id)
	}

	base := rule.Base()
	prev := existing.rule.Base()
	base.ID = prev.ID
	base.CreatedAt = prev.CreatedAt
	base.UpdatedAt = time.Now().UTC()
	rule = rule.WithBase(base)

	e, err := s.compileEntry(rule, existing.seq)
	if err != nil {
		return zero, err
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, rule, e.seq); err != nil {
			return zero, fmt.Errorf("persist rule: %w", err)
		}
	}

	s.entries[id] = e
	s.rebuildSnapshot()
	return rule, nil
}

// Toggle flips the active flag. A pure flag flip: no other field changes,
// and results computed from earlier snapshots are unaffected.
func (s *Store[R]) Toggle(ctx context.Context, id types.RuleID, active bool) (R, error) {
	var zero R

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[id]
	if !ok {
		return zero, fmt.Errorf("%w: %s", types.ErrRuleNotFound, id)
	}

	base := existing.rule.Base()
	base.IsActive = active
	base.UpdatedAt = time.Now().UTC()
	rule := existing.rule.WithBase(base)

	e, err := s.compileEntry(rule, existing.seq)
	if err != nil {
		return zero, err
	}

	if s.repo != nil {
		if err := s.repo.Save(ctx, rule, e.seq); err != nil {
			return zero, fmt.Errorf("persist rule: %w", err)
		}
	}

	s.entries[id] = e
	s.rebuildSnapshot()
	return rule, nil
}

// Delete removes a rule. Terminal: the id is released but historical
// evaluation results are immutable snapshots and are never cascaded.
func (s *Store[R]) Delete(ctx context.Context, id types.RuleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("%w: %s", types.ErrRuleNotFound, id)
	}

	if s.repo != nil {
		if err := s.repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete rule: %w", err)
		}
	}

	delete(s.entries, id)
	s.rebuildSnapshot()
	return nil
}

// Get returns a rule by id.
func (s *Store[R]) Get(id types.RuleID) (R, error) {
	var zero R

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return zero, fmt.Errorf("%w: %s", types.ErrRuleNotFound, id)
	}
	return e.rule, nil
}

// List returns all rules, active and inactive, in priority-then-registration
// order.
func (s *Store[R]) List() []R {
	s.mu.Lock()
	defer s.mu.Unlock()

	ordered := make([]*entry[R], 0, len(s.entries))
	for _, e := range s.entries {
		ordered = append(ordered, e)
	}
	sortEntries(ordered)

	out := make([]R, len(ordered))
	for i, e := range ordered {
		out[i] = e.rule
	}
	return out
}

// ListActive returns the current snapshot of active rules. The snapshot is
// immutable: callers evaluating against it are isolated from mutations that
// begin afterwards.
func (s *Store[R]) ListActive() *Snapshot[R] {
	return s.snap.Load()
}

// compileEntry validates the full definition (base structure via Compile,
// kind invariants via Validate) and produces a store entry.
func (s *Store[R]) compileEntry(rule R, seq uint64) (*entry[R], error) {
	compiled, err := rules.Compile(rule.Base())
	if err != nil {
		return nil, err
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	compiled.Seq = seq
	return &entry[R]{rule: rule, compiled: compiled, seq: seq}, nil
}

// rebuildSnapshot publishes a fresh active-rule snapshot. Caller holds mu.
func (s *Store[R]) rebuildSnapshot() {
	ordered := make([]*entry[R], 0, len(s.entries))
	for _, e := range s.entries {
		if e.rule.Base().IsActive {
			ordered = append(ordered, e)
		}
	}
	sortEntries(ordered)

	snap := &Snapshot[R]{active: make([]Active[R], len(ordered))}
	for i, e := range ordered {
		snap.active[i] = Active[R]{Rule: e.rule, Compiled: e.compiled}
	}
	s.snap.Store(snap)
}

// sortEntries orders entries by priority ascending, then registration order.
func sortEntries[R any](entries []*entry[R]) {
	sort.SliceStable(entries, func(i, j int) bool {
		pi, pj := entries[i].compiled.Priority, entries[j].compiled.Priority
		if pi != pj {
			return pi < pj
		}
		return entries[i].seq < entries[j].seq
	})
}
