package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Assignment rule CRUD.

func (a *API) CreateAssignmentRuleHandler(c *gin.Context) {
	var req assignmentRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	created, err := a.assignmentRules.Create(c.Request.Context(), req.toRule())
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *API) ListAssignmentRulesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": a.assignmentRules.List()})
}

func (a *API) GetAssignmentRuleHandler(c *gin.Context) {
	id, ok := ruleID(c)
	if !ok {
		return
	}
	rule, err := a.assignmentRules.Get(id)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (a *API) UpdateAssignmentRuleHandler(c *gin.Context) {
	id, ok := ruleID(c)
	if !ok {
		return
	}
	var req assignmentRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	updated, err := a.assignmentRules.Update(c.Request.Context(), id, req.toRule())
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *API) DeleteAssignmentRuleHandler(c *gin.Context) {
	id, ok := ruleID(c)
	if !ok {
		return
	}
	if err := a.assignmentRules.Delete(c.Request.Context(), id); err != nil {
		a.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) ToggleAssignmentRuleHandler(c *gin.Context) {
	id, ok := ruleID(c)
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"isActive" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	toggled, err := a.assignmentRules.Toggle(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toggled)
}

// Scoring rule CRUD.

func (a *API) CreateScoringRuleHandler(c *gin.Context) {
	var req scoringRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	created, err := a.scoringRules.Create(c.Request.Context(), req.toRule())
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *API) ListScoringRulesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": a.scoringRules.List()})
}

func (a *API) GetScoringRuleHandler(c *gin.Context) {
	id, ok := ruleID(c)
	if !ok {
		return
	}
	rule, err := a.scoringRules.Get(id)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (a *API) UpdateScoringRuleHandler(c *gin.Context) {
	id, ok := ruleID(c)
	if !ok {
		return
	}
	var req scoringRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	updated, err := a.scoringRules.Update(c.Request.Context(), id, req.toRule())
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *API) DeleteScoringRuleHandler(c *gin.Context) {
	id, ok := ruleID(c)
	if !ok {
		return
	}
	if err := a.scoringRules.Delete(c.Request.Context(), id); err != nil {
		a.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) ToggleScoringRuleHandler(c *gin.Context) {
	id, ok := ruleID(c)
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"isActive" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	toggled, err := a.scoringRules.Toggle(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toggled)
}
