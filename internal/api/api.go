// Package api exposes the rule management and lead evaluation endpoints
// over HTTP. Handlers are a thin layer: binding and validation here,
// semantics in the store, assignment, and qualification packages.
package api

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/kylasweb/inline-crm-rules/internal/assignment"
	"github.com/kylasweb/inline-crm-rules/internal/history"
	"github.com/kylasweb/inline-crm-rules/internal/qualification"
	"github.com/kylasweb/inline-crm-rules/internal/store"
	"github.com/kylasweb/inline-crm-rules/internal/types"
)

// ReadinessCheck probes a backing dependency for /healthz.
type ReadinessCheck func(ctx context.Context) error

// API holds the handler dependencies.
type API struct {
	assignmentRules *store.Store[types.AssignmentRule]
	scoringRules    *store.Store[types.ScoringRule]
	resolver        *assignment.Resolver
	scorer          *qualification.Scorer
	evaluations     history.Lister
	ready           ReadinessCheck
	log             *slog.Logger
}

// NewAPI creates the handler set. evaluations may be nil when no queryable
// history backend is configured; the history endpoint then returns 503. A
// nil ready check makes /healthz a pure liveness probe.
func NewAPI(
	assignmentRules *store.Store[types.AssignmentRule],
	scoringRules *store.Store[types.ScoringRule],
	resolver *assignment.Resolver,
	scorer *qualification.Scorer,
	evaluations history.Lister,
	ready ReadinessCheck,
	log *slog.Logger,
) *API {
	return &API{
		assignmentRules: assignmentRules,
		scoringRules:    scoringRules,
		resolver:        resolver,
		scorer:          scorer,
		evaluations:     evaluations,
		ready:           ready,
		log:             log,
	}
}

// SetupRoutes registers all routes. apiKeys guards everything under /v1;
// /healthz stays open for probes.
func SetupRoutes(router *gin.Engine, a *API, apiKeys []string) {
	router.GET("/healthz", a.HealthzHandler)

	v1 := router.Group("/v1")
	v1.Use(APIKeyAuth(apiKeys))

	assignmentRoutes := v1.Group("/assignment-rules")
	{
		assignmentRoutes.POST("", a.CreateAssignmentRuleHandler)
		assignmentRoutes.GET("", a.ListAssignmentRulesHandler)
		assignmentRoutes.GET("/:ruleId", a.GetAssignmentRuleHandler)
		assignmentRoutes.PUT("/:ruleId", a.UpdateAssignmentRuleHandler)
		assignmentRoutes.DELETE("/:ruleId", a.DeleteAssignmentRuleHandler)
		assignmentRoutes.POST("/:ruleId/toggle", a.ToggleAssignmentRuleHandler)
	}

	scoringRoutes := v1.Group("/scoring-rules")
	{
		scoringRoutes.POST("", a.CreateScoringRuleHandler)
		scoringRoutes.GET("", a.ListScoringRulesHandler)
		scoringRoutes.GET("/:ruleId", a.GetScoringRuleHandler)
		scoringRoutes.PUT("/:ruleId", a.UpdateScoringRuleHandler)
		scoringRoutes.DELETE("/:ruleId", a.DeleteScoringRuleHandler)
		scoringRoutes.POST("/:ruleId/toggle", a.ToggleScoringRuleHandler)
	}

	leadRoutes := v1.Group("/leads")
	{
		leadRoutes.POST("/assign", a.AssignLeadHandler)
		leadRoutes.POST("/qualify", a.QualifyLeadHandler)
		leadRoutes.GET("/:leadId/evaluations", a.ListLeadEvaluationsHandler)
	}
}
