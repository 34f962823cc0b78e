package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kylasweb/inline-crm-rules/internal/core/db"
	"github.com/kylasweb/inline-crm-rules/internal/types"
)

// SQLRepository persists one rule kind to the rules table through named
// dotsql queries. The full definition is stored as JSON alongside the
// indexed columns (priority, active flag, sequence) used for listing; the
// JSON column is the source of truth when loading.
type SQLRepository[R Definition[R]] struct {
	q    *db.Queries
	kind string
}

// NewSQLRepository creates a repository scoped to one rule kind
// (KindAssignment or KindScoring).
func NewSQLRepository[R Definition[R]](q *db.Queries, kind string) *SQLRepository[R] {
	return &SQLRepository[R]{q: q, kind: kind}
}

// Save upserts a rule definition.
func (r *SQLRepository[R]) Save(ctx context.Context, rule R, seq uint64) error {
	definition, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("marshal rule: %w", err)
	}

	base := rule.Base()
	_, err = r.q.ExecContext(ctx, "upsert-rule",
		string(base.ID),
		r.kind,
		int64(seq),
		base.Name,
		base.Priority,
		base.IsActive,
		string(definition),
		base.CreatedAt.UTC().Format(time.RFC3339),
		base.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert rule %s: %w", base.ID, err)
	}
	return nil
}

// Delete removes a rule row. Historical evaluation rows are untouched.
func (r *SQLRepository[R]) Delete(ctx context.Context, id types.RuleID) error {
	_, err := r.q.ExecContext(ctx, "delete-rule", string(id), r.kind)
	if err != nil {
		return fmt.Errorf("delete rule %s: %w", id, err)
	}
	return nil
}

// LoadAll returns every persisted rule of this kind in registration order.
func (r *SQLRepository[R]) LoadAll(ctx context.Context) ([]Persisted[R], error) {
	var rows []struct {
		RuleID     string `db:"rule_id"`
		Seq        int64  `db:"seq"`
		Definition string `db:"definition"`
	}
	if err := r.q.SelectContext(ctx, "list-rules", &rows, r.kind); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}

	out := make([]Persisted[R], 0, len(rows))
	for _, row := range rows {
		var rule R
		if err := json.Unmarshal([]byte(row.Definition), &rule); err != nil {
			return nil, fmt.Errorf("decode rule %s: %w", row.RuleID, err)
		}
		out = append(out, Persisted[R]{Rule: rule, Seq: uint64(row.Seq)})
	}
	return out, nil
}
