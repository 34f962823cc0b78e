package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kylasweb/inline-crm-rules/internal/types"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP status codes: invalid rules are
// the caller's fault (400), missing rules 404, duplicate ids 409, anything
// else is a dependency failure (503). Internal error detail is logged, not
// leaked.
func (a *API) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrInvalidRule):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, types.ErrRuleNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, types.ErrDuplicateRuleID):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		a.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "service unavailable"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

// ruleID validates the ruleId path parameter. Rule ids are
// engine-generated UUIDs, so anything else is a malformed request, not a
// miss.
func ruleID(c *gin.Context) (types.RuleID, bool) {
	id, err := types.ParseRuleID(c.Param("ruleId"))
	if err != nil {
		badRequest(c, "invalid rule id: "+c.Param("ruleId"))
		return "", false
	}
	return id, true
}

// leadID validates a caller-supplied lead identifier.
func leadID(c *gin.Context, raw string) (types.LeadID, bool) {
	id, err := types.ParseLeadID(raw)
	if err != nil {
		badRequest(c, "invalid lead id: "+raw)
		return "", false
	}
	return id, true
}
