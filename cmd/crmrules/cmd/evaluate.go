package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kylasweb/inline-crm-rules/internal/assignment"
	"github.com/kylasweb/inline-crm-rules/internal/capacity"
	"github.com/kylasweb/inline-crm-rules/internal/core/db"
	"github.com/kylasweb/inline-crm-rules/internal/history"
	"github.com/kylasweb/inline-crm-rules/internal/logger"
	"github.com/kylasweb/inline-crm-rules/internal/qualification"
	"github.com/kylasweb/inline-crm-rules/internal/store"
	"github.com/kylasweb/inline-crm-rules/internal/types"
	"github.com/spf13/cobra"
)

// evaluateCmd runs a lead record through the stored rules without starting
// the server: dry-run tooling for rule authors.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate [record.json]",
	Short: "Evaluate a lead record against the stored rules",
	Long:  `Reads a lead record (JSON object) from a file or stdin and prints the assignment outcome and qualification result. Capacity checks are skipped.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEvaluate,
}

var evaluateLeadID string

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateLeadID, "lead-id", "", "lead identifier (generated if omitted)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	record, err := readRecord(args)
	if err != nil {
		return err
	}

	url, err := migrateDatabaseURL()
	if err != nil {
		return err
	}

	database, err := db.Open(url)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	assignmentRules := store.New(store.NewSQLRepository[types.AssignmentRule](queries, store.KindAssignment))
	if err := assignmentRules.Load(ctx); err != nil {
		return fmt.Errorf("failed to load assignment rules: %w", err)
	}
	scoringRules := store.New(store.NewSQLRepository[types.ScoringRule](queries, store.KindScoring))
	if err := scoringRules.Load(ctx); err != nil {
		return fmt.Errorf("failed to load scoring rules: %w", err)
	}

	log := logger.New("text", "warn")
	resolver := assignment.NewResolver(assignmentRules, capacity.Unlimited{}, history.Discard{}, log)
	scorer := qualification.NewScorer(scoringRules, history.Discard{}, log)

	leadID := types.NewLeadID()
	if evaluateLeadID != "" {
		leadID, err = types.ParseLeadID(evaluateLeadID)
		if err != nil {
			return fmt.Errorf("invalid lead id %q: %w", evaluateLeadID, err)
		}
	}

	outcome, err := resolver.Resolve(ctx, leadID, record)
	if err != nil {
		return err
	}
	result, err := scorer.Score(ctx, leadID, record, nil)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"assignment":    outcome,
		"qualification": result,
	})
}

func readRecord(args []string) (types.Record, error) {
	var raw []byte
	var err error

	if len(args) == 1 && args[0] != "-" {
		raw, err = os.ReadFile(args[0])
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("record is not valid JSON")
	}
	return types.Record(raw), nil
}
