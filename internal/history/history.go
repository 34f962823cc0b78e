// Package history records evaluation outcomes for audit. History is a
// best-effort side channel: a failed write is logged, never surfaced to
// the caller whose evaluation already succeeded.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kylasweb/inline-crm-rules/internal/core/db"
	"github.com/kylasweb/inline-crm-rules/internal/types"
)

// Evaluation kinds recorded in history.
const (
	KindAssignment    = "assignment"
	KindQualification = "qualification"
)

// Entry is a single recorded evaluation.
type Entry struct {
	LeadID      types.LeadID    `json:"leadId"`
	Kind        string          `json:"kind"`
	Outcome     json.RawMessage `json:"outcome"`
	EvaluatedAt time.Time       `json:"evaluatedAt"`
}

// Recorder persists evaluation outcomes.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Lister reads back recorded evaluations, newest first.
type Lister interface {
	ListByLead(ctx context.Context, leadID types.LeadID, limit int) ([]Entry, error)
}

// Discard is a Recorder that drops everything.
type Discard struct{}

func (Discard) Record(context.Context, Entry) error { return nil }

// JSONLRecorder appends entries to per-day JSONL files under
// <dataDir>/evaluations. A per-file mutex serializes concurrent appends;
// the mutex map grows by one entry per day.
type JSONLRecorder struct {
	dir     string
	log     *slog.Logger
	mutexes map[string]*sync.Mutex
	mu      sync.Mutex
}

// NewJSONLRecorder creates the evaluations directory if needed.
func NewJSONLRecorder(dataDir string, log *slog.Logger) (*JSONLRecorder, error) {
	dir := filepath.Join(dataDir, "evaluations")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &JSONLRecorder{
		dir:     dir,
		log:     log,
		mutexes: make(map[string]*sync.Mutex),
	}, nil
}

func (r *JSONLRecorder) Record(_ context.Context, entry Entry) error {
	filename := filepath.Join(r.dir, entry.EvaluatedAt.UTC().Format("2006-01-02")+".jsonl")
	mu := r.fileMutex(filename)

	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		r.log.Warn("history append failed", "file", filename, "error", err)
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(entry)
}

func (r *JSONLRecorder) fileMutex(filename string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.mutexes[filename]; !ok {
		r.mutexes[filename] = &sync.Mutex{}
	}
	return r.mutexes[filename]
}

// SQLRecorder writes entries to the evaluations table.
type SQLRecorder struct {
	q *db.Queries
}

func NewSQLRecorder(q *db.Queries) *SQLRecorder {
	return &SQLRecorder{q: q}
}

func (r *SQLRecorder) Record(ctx context.Context, entry Entry) error {
	_, err := r.q.ExecContext(ctx, "insert-evaluation",
		uuid.Must(uuid.NewV7()).String(),
		string(entry.LeadID),
		entry.Kind,
		string(entry.Outcome),
		entry.EvaluatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// evaluationRow maps a row of the evaluations table. evaluated_at is TEXT
// on sqlite and TIMESTAMP on postgres, so it scans through scanTime.
type evaluationRow struct {
	EvaluationID string   `db:"evaluation_id"`
	LeadID       string   `db:"lead_id"`
	Kind         string   `db:"kind"`
	Outcome      string   `db:"outcome"`
	EvaluatedAt  scanTime `db:"evaluated_at"`
}

type scanTime struct{ time.Time }

func (t *scanTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	case []byte:
		parsed, err := time.Parse(time.RFC3339, string(v))
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
}

// ListByLead returns up to limit recorded evaluations for a lead, newest
// first. A non-positive limit falls back to 50.
func (r *SQLRecorder) ListByLead(ctx context.Context, leadID types.LeadID, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []evaluationRow
	if err := r.q.SelectContext(ctx, "list-evaluations", &rows, string(leadID), limit); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			LeadID:      types.LeadID(row.LeadID),
			Kind:        row.Kind,
			Outcome:     json.RawMessage(row.Outcome),
			EvaluatedAt: row.EvaluatedAt.Time,
		})
	}
	return entries, nil
}

// Multi fans out to several recorders; the first error wins but all
// recorders are attempted.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, entry Entry) error {
	var first error
	for _, r := range m {
		if err := r.Record(ctx, entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}
