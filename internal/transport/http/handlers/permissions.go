package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/luiso2/sleep-admin-service/internal/transport/http/middleware"
	"github.com/luiso2/sleep-admin-service/internal/usecase"
)

// PermissionHandler answers access questions for the authenticated session.
type PermissionHandler struct {
	resolver *usecase.PermissionResolver
}

// NewPermissionHandler builds a permission handler over the resolver.
func NewPermissionHandler(resolver *usecase.PermissionResolver) *PermissionHandler {
	return &PermissionHandler{resolver: resolver}
}

// RegisterRoutes wires the permission endpoints into the group.
func (h *PermissionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/check", h.Check)
	r.POST("/check-any", h.CheckAny)
	r.GET("/resolve", h.Resolve)
}

// Check evaluates a single (resource, action) pair for the session.
func (h *PermissionHandler) Check(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req PermissionCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid check payload"))
		return
	}

	decision := h.resolver.Evaluate(c.Request.Context(), session, strings.TrimSpace(req.Resource), strings.TrimSpace(req.Action))

	c.JSON(http.StatusOK, PermissionCheckResponse{
		Can:    decision.Allowed,
		Reason: decision.Reason,
	})
}

// CheckAny reports whether any of the listed actions is allowed.
func (h *PermissionHandler) CheckAny(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req PermissionCheckAnyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid check payload"))
		return
	}

	actions := make([]string, 0, len(req.Actions))
	for _, action := range req.Actions {
		if trimmed := strings.TrimSpace(action); trimmed != "" {
			actions = append(actions, trimmed)
		}
	}

	can := h.resolver.CanAny(c.Request.Context(), session, strings.TrimSpace(req.Resource), actions)

	c.JSON(http.StatusOK, PermissionCheckResponse{Can: can})
}

// Resolve returns the full grant set over the resource registry.
func (h *PermissionHandler) Resolve(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	grants := h.resolver.ResolveAll(c.Request.Context(), session)

	c.JSON(http.StatusOK, PermissionResolveResponse{
		Role:        session.Role,
		Permissions: grants,
	})
}
