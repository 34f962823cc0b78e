package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kylasweb/inline-crm-rules/internal/types"
)

// AssignLeadHandler routes a lead record through the assignment rules and
// returns the outcome, including the explicit unassigned case.
func (a *API) AssignLeadHandler(c *gin.Context) {
	var req evaluateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	lead, ok := leadID(c, req.LeadID)
	if !ok {
		return
	}

	outcome, err := a.resolver.Resolve(c.Request.Context(), lead, req.Record)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// QualifyLeadHandler scores a lead record against the scoring rules.
// An optional previous result preserves the first-qualification timestamp.
func (a *API) QualifyLeadHandler(c *gin.Context) {
	var req struct {
		evaluateLeadRequest
		Previous *types.QualificationResult `json:"previous"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	lead, ok := leadID(c, req.LeadID)
	if !ok {
		return
	}

	result, err := a.scorer.Score(c.Request.Context(), lead, req.Record, req.Previous)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListLeadEvaluationsHandler returns recorded evaluations for a lead,
// newest first. The limit query parameter caps the page size (default 50,
// max 500).
func (a *API) ListLeadEvaluationsHandler(c *gin.Context) {
	if a.evaluations == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "evaluation history not available"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > 500 {
		limit = 500
	}

	lead, ok := leadID(c, c.Param("leadId"))
	if !ok {
		return
	}

	entries, err := a.evaluations.ListByLead(c.Request.Context(), lead, limit)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// HealthzHandler reports liveness and, when a readiness check is wired,
// whether the backing database still answers.
func (a *API) HealthzHandler(c *gin.Context) {
	if a.ready != nil {
		if err := a.ready(c.Request.Context()); err != nil {
			a.log.Error("readiness check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
