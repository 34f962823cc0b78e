package store

import (
	"context"
	"errors"
	"testing"

	"github.com/kylasweb/inline-crm-rules/internal/types"
)

func assignmentRule(name string, priority int) types.AssignmentRule {
	return types.AssignmentRule{
		Rule: types.Rule{
			Name:     name,
			Priority: priority,
			IsActive: true,
			Conditions: []types.Condition{
				{Field: "industry", Operator: types.OpEquals, Value: "software"},
			},
		},
		Action: types.AssignmentAction{Kind: types.TargetUser, Target: "alice"},
	}
}

func TestStore_CreateAssignsID(t *testing.T) {
	s := New[types.AssignmentRule](nil)

	created, err := s.Create(context.Background(), assignmentRule("r1", 10))
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create() did not assign an id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("Create() did not stamp timestamps")
	}

	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if got.Name != "r1" {
		t.Errorf("Get() name = %q, want r1", got.Name)
	}
}

func TestStore_CreateRejectsInvalid(t *testing.T) {
	s := New[types.AssignmentRule](nil)

	bad := assignmentRule("bad", 10)
	bad.Conditions = nil

	if _, err := s.Create(context.Background(), bad); !errors.Is(err, types.ErrInvalidRule) {
		t.Fatalf("Create() error = %v, want ErrInvalidRule", err)
	}

	noTarget := assignmentRule("no target", 10)
	noTarget.Action.Target = ""
	if _, err := s.Create(context.Background(), noTarget); !errors.Is(err, types.ErrEmptyTarget) {
		t.Fatalf("Create() error = %v, want ErrEmptyTarget", err)
	}
}

func TestStore_CreateDuplicateID(t *testing.T) {
	s := New[types.AssignmentRule](nil)

	r := assignmentRule("r1", 10)
	r.ID = "fixed-id"
	if _, err := s.Create(context.Background(), r); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if _, err := s.Create(context.Background(), r); !errors.Is(err, types.ErrDuplicateRuleID) {
		t.Fatalf("Create() error = %v, want ErrDuplicateRuleID", err)
	}
}

func TestStore_UpdatePreservesIdentity(t *testing.T) {
	s := New[types.AssignmentRule](nil)
	ctx := context.Background()

	created, err := s.Create(ctx, assignmentRule("before", 10))
	if err != nil {
		t.Fatal(err)
	}

	replacement := assignmentRule("after", 20)
	replacement.ID = "ignored"
	updated, err := s.Update(ctx, created.ID, replacement)
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}

	if updated.ID != created.ID {
		t.Errorf("Update() changed id: %s -> %s", created.ID, updated.ID)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("Update() changed CreatedAt")
	}
	if updated.Name != "after" || updated.Priority != 20 {
		t.Errorf("Update() did not apply new definition: %+v", updated)
	}

	if _, err := s.Update(ctx, "nope", replacement); !errors.Is(err, types.ErrRuleNotFound) {
		t.Fatalf("Update() error = %v, want ErrRuleNotFound", err)
	}
}

func TestStore_ToggleIsAPureFlagFlip(t *testing.T) {
	s := New[types.AssignmentRule](nil)
	ctx := context.Background()

	created, err := s.Create(ctx, assignmentRule("r1", 10))
	if err != nil {
		t.Fatal(err)
	}

	toggled, err := s.Toggle(ctx, created.ID, false)
	if err != nil {
		t.Fatalf("Toggle() unexpected error: %v", err)
	}
	if toggled.IsActive {
		t.Error("Toggle(false) left rule active")
	}
	if toggled.Name != created.Name || toggled.Priority != created.Priority {
		t.Error("Toggle() modified fields other than the active flag")
	}

	if s.ListActive().Len() != 0 {
		t.Error("deactivated rule still present in active snapshot")
	}

	if _, err := s.Toggle(ctx, created.ID, true); err != nil {
		t.Fatal(err)
	}
	if s.ListActive().Len() != 1 {
		t.Error("reactivated rule missing from active snapshot")
	}
}

func TestStore_Delete(t *testing.T) {
	s := New[types.AssignmentRule](nil)
	ctx := context.Background()

	created, err := s.Create(ctx, assignmentRule("r1", 10))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if _, err := s.Get(created.ID); !errors.Is(err, types.ErrRuleNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrRuleNotFound", err)
	}
	if err := s.Delete(ctx, created.ID); !errors.Is(err, types.ErrRuleNotFound) {
		t.Fatalf("Delete() twice error = %v, want ErrRuleNotFound", err)
	}
}

func TestStore_ListOrder(t *testing.T) {
	s := New[types.AssignmentRule](nil)
	ctx := context.Background()

	// Same priority: registration order breaks the tie.
	first, _ := s.Create(ctx, assignmentRule("first", 10))
	second, _ := s.Create(ctx, assignmentRule("second", 10))
	urgent, _ := s.Create(ctx, assignmentRule("urgent", 1))

	list := s.List()
	want := []types.RuleID{urgent.ID, first.ID, second.ID}
	for i, r := range list {
		if r.ID != want[i] {
			t.Fatalf("List()[%d] = %s, want %s", i, r.ID, want[i])
		}
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := New[types.AssignmentRule](nil)
	ctx := context.Background()

	created, err := s.Create(ctx, assignmentRule("r1", 10))
	if err != nil {
		t.Fatal(err)
	}

	snap := s.ListActive()
	if snap.Len() != 1 {
		t.Fatalf("snapshot Len() = %d, want 1", snap.Len())
	}

	// Mutations after the snapshot was taken must not leak into it.
	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if snap.Len() != 1 {
		t.Error("snapshot changed after delete")
	}
	if _, ok := snap.Lookup(created.ID); !ok {
		t.Error("snapshot lost rule after delete")
	}
	if s.ListActive().Len() != 0 {
		t.Error("fresh snapshot still contains deleted rule")
	}
}

// failingRepo rejects every save, letting tests assert that the store never
// applies a mutation the repository refused.
type failingRepo struct{}

var errRepoDown = errors.New("repository unavailable")

func (failingRepo) Save(context.Context, types.AssignmentRule, uint64) error { return errRepoDown }
func (failingRepo) Delete(context.Context, types.RuleID) error               { return errRepoDown }
func (failingRepo) LoadAll(context.Context) ([]Persisted[types.AssignmentRule], error) {
	return nil, nil
}

func TestStore_DurabilityBeforeVisibility(t *testing.T) {
	s := New[types.AssignmentRule](failingRepo{})

	if _, err := s.Create(context.Background(), assignmentRule("r1", 10)); !errors.Is(err, errRepoDown) {
		t.Fatalf("Create() error = %v, want repo error", err)
	}
	if len(s.List()) != 0 {
		t.Error("failed create left rule visible in store")
	}
}

// memoryRepo records saves so Load round-trips can be tested without a
// database.
type memoryRepo struct {
	saved map[types.RuleID]Persisted[types.AssignmentRule]
}

func (m *memoryRepo) Save(_ context.Context, rule types.AssignmentRule, seq uint64) error {
	m.saved[rule.ID] = Persisted[types.AssignmentRule]{Rule: rule, Seq: seq}
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id types.RuleID) error {
	delete(m.saved, id)
	return nil
}

func (m *memoryRepo) LoadAll(context.Context) ([]Persisted[types.AssignmentRule], error) {
	out := make([]Persisted[types.AssignmentRule], 0, len(m.saved))
	for _, p := range m.saved {
		out = append(out, p)
	}
	return out, nil
}

func TestStore_LoadPreservesRegistrationOrder(t *testing.T) {
	repo := &memoryRepo{saved: make(map[types.RuleID]Persisted[types.AssignmentRule])}
	ctx := context.Background()

	s := New[types.AssignmentRule](repo)
	first, _ := s.Create(ctx, assignmentRule("first", 10))
	second, _ := s.Create(ctx, assignmentRule("second", 10))

	// Fresh store seeded from the repository: the tie-break must survive.
	reloaded := New[types.AssignmentRule](repo)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	list := reloaded.List()
	if len(list) != 2 {
		t.Fatalf("List() = %d rules, want 2", len(list))
	}
	if list[0].ID != first.ID || list[1].ID != second.ID {
		t.Error("Load() lost registration order for equal priorities")
	}

	// New creations after reload must not collide with persisted sequences.
	third, err := reloaded.Create(ctx, assignmentRule("third", 10))
	if err != nil {
		t.Fatal(err)
	}
	list = reloaded.List()
	if list[2].ID != third.ID {
		t.Error("rule created after reload did not sort last among equal priorities")
	}
}
