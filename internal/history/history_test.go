package history

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kylasweb/inline-crm-rules/internal/core/db"
	"github.com/kylasweb/inline-crm-rules/internal/types"
)

func TestJSONLRecorder_AppendsPerDayFiles(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewJSONLRecorder(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}

	day := time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC)
	entries := []Entry{
		{LeadID: "lead-1", Kind: KindAssignment, Outcome: json.RawMessage(`{"path":"primary"}`), EvaluatedAt: day},
		{LeadID: "lead-2", Kind: KindQualification, Outcome: json.RawMessage(`{"totalScore":60}`), EvaluatedAt: day.Add(time.Hour)},
		{LeadID: "lead-3", Kind: KindAssignment, Outcome: json.RawMessage(`{"path":"fallback"}`), EvaluatedAt: day.AddDate(0, 0, 1)},
	}

	for _, e := range entries {
		if err := rec.Record(context.Background(), e); err != nil {
			t.Fatalf("Record() unexpected error: %v", err)
		}
	}

	assertLines := func(file string, want int) {
		t.Helper()
		f, err := os.Open(filepath.Join(dir, "evaluations", file))
		if err != nil {
			t.Fatalf("open %s: %v", file, err)
		}
		defer f.Close()

		lines := 0
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var entry Entry
			if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
				t.Fatalf("line %d of %s is not valid JSON: %v", lines+1, file, err)
			}
			lines++
		}
		if lines != want {
			t.Errorf("%s has %d lines, want %d", file, lines, want)
		}
	}

	assertLines("2026-08-20.jsonl", 2)
	assertLines("2026-08-21.jsonl", 1)
}

func TestJSONLRecorder_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewJSONLRecorder(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}

	at := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	in := Entry{LeadID: "lead-1", Kind: KindQualification, Outcome: json.RawMessage(`{"status":"SALES_QUALIFIED"}`), EvaluatedAt: at}
	if err := rec.Record(context.Background(), in); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "evaluations", "2026-08-20.jsonl"))
	if err != nil {
		t.Fatal(err)
	}

	var out Entry
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	if out.LeadID != types.LeadID("lead-1") || out.Kind != KindQualification {
		t.Errorf("round-tripped entry = %+v", out)
	}
	if !out.EvaluatedAt.Equal(at) {
		t.Errorf("EvaluatedAt = %v, want %v", out.EvaluatedAt, at)
	}
}

func TestMulti_AttemptsAllRecorders(t *testing.T) {
	var calls int
	counting := recorderFunc(func(context.Context, Entry) error {
		calls++
		return nil
	})
	failing := recorderFunc(func(context.Context, Entry) error {
		calls++
		return os.ErrPermission
	})

	m := Multi{failing, counting}
	err := m.Record(context.Background(), Entry{LeadID: "lead-1", Kind: KindAssignment, EvaluatedAt: time.Now()})

	if err == nil {
		t.Error("Multi must surface the first error")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (all recorders attempted)", calls)
	}
}

type recorderFunc func(context.Context, Entry) error

func (f recorderFunc) Record(ctx context.Context, e Entry) error { return f(ctx, e) }

func TestSQLRecorder_RoundTrip(t *testing.T) {
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

	rec := NewSQLRecorder(queries)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	for i, outcome := range []string{`{"path":"primary"}`, `{"path":"fallback"}`, `{"totalScore":80}`} {
		kind := KindAssignment
		if i == 2 {
			kind = KindQualification
		}
		entry := Entry{
			LeadID:      "lead-1",
			Kind:        kind,
			Outcome:     json.RawMessage(outcome),
			EvaluatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := rec.Record(ctx, entry); err != nil {
			t.Fatalf("Record() unexpected error: %v", err)
		}
	}
	other := Entry{LeadID: "lead-2", Kind: KindAssignment, Outcome: json.RawMessage(`{}`), EvaluatedAt: base}
	if err := rec.Record(ctx, other); err != nil {
		t.Fatal(err)
	}

	entries, err := rec.ListByLead(ctx, "lead-1", 10)
	if err != nil {
		t.Fatalf("ListByLead() unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	// Newest first.
	if entries[0].Kind != KindQualification {
		t.Errorf("entries[0].Kind = %q, want %q", entries[0].Kind, KindQualification)
	}
	if !entries[0].EvaluatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("entries[0].EvaluatedAt = %v", entries[0].EvaluatedAt)
	}
	if string(entries[2].Outcome) != `{"path":"primary"}` {
		t.Errorf("entries[2].Outcome = %s", entries[2].Outcome)
	}

	limited, err := rec.ListByLead(ctx, "lead-1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("len(limited) = %d, want 1", len(limited))
	}
}
