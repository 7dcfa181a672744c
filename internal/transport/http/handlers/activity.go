package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luiso2/sleep-admin-service/internal/transport/http/middleware"
	"github.com/luiso2/sleep-admin-service/internal/usecase"
)

// ActivityHandler serves the append-only audit trail.
type ActivityHandler struct {
	activity *usecase.ActivityQueryService
	resolver *usecase.PermissionResolver
}

// NewActivityHandler builds an activity handler.
func NewActivityHandler(activity *usecase.ActivityQueryService, resolver *usecase.PermissionResolver) *ActivityHandler {
	return &ActivityHandler{activity: activity, resolver: resolver}
}

// RegisterRoutes wires the activity endpoints into the group.
func (h *ActivityHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.GET("/:resource/:id", h.ResourceHistory)
}

// List returns audit entries, newest first, narrowed by query filters.
func (h *ActivityHandler) List(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	if decision := h.resolver.Evaluate(c.Request.Context(), session, "activityLogs", "list"); !decision.Allowed {
		c.JSON(http.StatusForbidden, NewErrorResponse(c, decision.Reason))
		return
	}

	filter := usecase.ActivityFilter{
		UserID:   c.Query("userId"),
		Resource: c.Query("resource"),
		Action:   c.Query("action"),
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid limit"))
			return
		}
		filter.Limit = limit
	}

	if raw := c.Query("startDate"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid startDate"))
			return
		}
		filter.StartDate = start
	}

	if raw := c.Query("endDate"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid endDate"))
			return
		}
		filter.EndDate = end
	}

	entries, err := h.activity.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list activity"))
		return
	}

	logs := make([]ActivityLogPayload, 0, len(entries))
	for _, entry := range entries {
		logs = append(logs, newActivityLogPayload(entry))
	}

	c.JSON(http.StatusOK, ActivityListResponse{Logs: logs, Total: len(logs)})
}

// ResourceHistory returns the audit history of a single record.
func (h *ActivityHandler) ResourceHistory(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	if decision := h.resolver.Evaluate(c.Request.Context(), session, "activityLogs", "show"); !decision.Allowed {
		c.JSON(http.StatusForbidden, NewErrorResponse(c, decision.Reason))
		return
	}

	entries, err := h.activity.ResourceHistory(c.Request.Context(), c.Param("resource"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load history"))
		return
	}

	logs := make([]ActivityLogPayload, 0, len(entries))
	for _, entry := range entries {
		logs = append(logs, newActivityLogPayload(entry))
	}

	c.JSON(http.StatusOK, ActivityListResponse{Logs: logs, Total: len(logs)})
}
