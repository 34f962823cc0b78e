package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/kylasweb/inline-crm-rules/internal/api"
	"github.com/kylasweb/inline-crm-rules/internal/assignment"
	"github.com/kylasweb/inline-crm-rules/internal/capacity"
	"github.com/kylasweb/inline-crm-rules/internal/core/config"
	"github.com/kylasweb/inline-crm-rules/internal/core/db"
	"github.com/kylasweb/inline-crm-rules/internal/core/server"
	"github.com/kylasweb/inline-crm-rules/internal/history"
	"github.com/kylasweb/inline-crm-rules/internal/logger"
	"github.com/kylasweb/inline-crm-rules/internal/qualification"
	"github.com/kylasweb/inline-crm-rules/internal/store"
	"github.com/kylasweb/inline-crm-rules/internal/types"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

const maxRequestBytes = 1 << 20 // 1 MiB

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the rules HTTP API service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "HTTP server host")
	serveCmd.Flags().Int("port", 8080, "HTTP server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := serverConfig(cmd)
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogFormat, cfg.LogLevel)

	apiKeys, err := config.APIKeys()
	if err != nil {
		return fmt.Errorf("failed to load API keys: %w", err)
	}
	if len(apiKeys) == 0 {
		return fmt.Errorf("no API keys configured (set CRM_API_KEY environment variable)")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := db.MigrateUp(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

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

	jsonl, err := history.NewJSONLRecorder(cfg.DataDir, log)
	if err != nil {
		return fmt.Errorf("failed to init history dir: %w", err)
	}
	sqlHistory := history.NewSQLRecorder(queries)
	recorder := history.Multi{sqlHistory, jsonl}

	provider := capacity.NewStaticProvider(cfg.CapacityLimits)
	resolver := assignment.NewResolver(assignmentRules, provider, recorder, log)
	scorer := qualification.NewScorer(scoringRules, recorder, log)

	// Readiness goes through a real query so /healthz notices a lost
	// database, not just a live process.
	readiness := func(ctx context.Context) error {
		var n int
		return queries.GetContext(ctx, "count-rules", &n, store.KindAssignment)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestSizeLimit(maxRequestBytes))
	api.SetupRoutes(router, api.NewAPI(assignmentRules, scoringRules, resolver, scorer, sqlHistory, readiness, log), apiKeys)

	httpServer, err := server.NewHTTPServer(cfg, router)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info("starting rules API", "version", Version, "host", cfg.Host, "port", cfg.Port)
	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		log.Info("shutting down gracefully")
		return httpServer.Shutdown(ctx)
	}
}

// serverConfig loads file/env config and applies flag overrides.
func serverConfig(cmd *cobra.Command) (*config.ServerConfig, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}

	return cfg, nil
}
