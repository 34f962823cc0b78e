package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kylasweb/inline-crm-rules/internal/core/db"
	"github.com/kylasweb/inline-crm-rules/internal/types"
)

func testQueries(t *testing.T) *db.Queries {
	t.Helper()

	database, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "rules.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.MigrateUp(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		t.Fatalf("load queries: %v", err)
	}
	return queries
}

func TestSQLRepository_RoundTrip(t *testing.T) {
	queries := testQueries(t)
	ctx := context.Background()

	repo := NewSQLRepository[types.AssignmentRule](queries, KindAssignment)
	s := New[types.AssignmentRule](repo)

	created, err := s.Create(ctx, assignmentRule("persisted", 10))
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	reloaded := New[types.AssignmentRule](NewSQLRepository[types.AssignmentRule](queries, KindAssignment))
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	got, err := reloaded.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() after reload: %v", err)
	}
	if got.Name != "persisted" || got.Action.Target != "alice" {
		t.Errorf("reloaded rule = %+v, want original definition", got)
	}
	if len(got.Conditions) != 1 || got.Conditions[0].Field != "industry" {
		t.Errorf("reloaded conditions = %+v", got.Conditions)
	}
}

func TestSQLRepository_KindsAreIsolated(t *testing.T) {
	queries := testQueries(t)
	ctx := context.Background()

	assignments := New[types.AssignmentRule](NewSQLRepository[types.AssignmentRule](queries, KindAssignment))
	if _, err := assignments.Create(ctx, assignmentRule("route", 10)); err != nil {
		t.Fatal(err)
	}

	scorings := New[types.ScoringRule](NewSQLRepository[types.ScoringRule](queries, KindScoring))
	if err := scorings.Load(ctx); err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(scorings.List()) != 0 {
		t.Error("scoring store loaded assignment rules")
	}
}

func TestSQLRepository_DeleteRemovesRow(t *testing.T) {
	queries := testQueries(t)
	ctx := context.Background()

	repo := NewSQLRepository[types.AssignmentRule](queries, KindAssignment)
	s := New[types.AssignmentRule](repo)

	created, err := s.Create(ctx, assignmentRule("ephemeral", 10))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatal(err)
	}

	reloaded := New[types.AssignmentRule](NewSQLRepository[types.AssignmentRule](queries, KindAssignment))
	if err := reloaded.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if len(reloaded.List()) != 0 {
		t.Error("deleted rule survived reload")
	}
}
