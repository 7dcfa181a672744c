package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/transport/http/middleware"
	"github.com/luiso2/sleep-admin-service/internal/usecase"
)

// RoleAdminHandler manages roles, their rules and per-user overrides.
type RoleAdminHandler struct {
	admin *usecase.RoleAdminService
}

// NewRoleAdminHandler builds the role administration handler.
func NewRoleAdminHandler(admin *usecase.RoleAdminService) *RoleAdminHandler {
	return &RoleAdminHandler{admin: admin}
}

// RegisterRoutes wires role endpoints into the group.
func (h *RoleAdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.ListRoles)
	r.POST("", h.CreateRole)
	r.DELETE("/:id", h.DeleteRole)
	r.PUT("/:id/permissions", h.SetRules)
}

// RegisterOverrideRoutes wires override endpoints into the group.
func (h *RoleAdminHandler) RegisterOverrideRoutes(r *gin.RouterGroup) {
	r.GET("/:userId", h.GetOverride)
	r.PUT("/:userId", h.SetOverride)
	r.DELETE("/:userId", h.ClearOverride)
}

// ListRoles returns all roles.
func (h *RoleAdminHandler) ListRoles(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	roles, err := h.admin.ListRoles(c.Request.Context(), session)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
		}, http.StatusInternalServerError, "failed to list roles")
		return
	}

	payloads := make([]RolePayload, 0, len(roles))
	for _, role := range roles {
		payloads = append(payloads, newRolePayload(role))
	}

	c.JSON(http.StatusOK, RoleListResponse{Roles: payloads})
}

// CreateRole provisions a custom role.
func (h *RoleAdminHandler) CreateRole(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req RoleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid role payload"))
		return
	}

	input := usecase.CreateRoleInput{
		Name:        strings.TrimSpace(req.Name),
		DisplayName: strings.TrimSpace(req.DisplayName),
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		if trimmed != "" {
			input.Description = &trimmed
		}
	}

	role, err := h.admin.CreateRole(c.Request.Context(), session, input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrRoleExists, Status: http.StatusConflict, Message: "role already exists"},
			{Err: usecase.ErrInvalidRoleName, Status: http.StatusBadRequest, Message: "invalid role name"},
		}, http.StatusInternalServerError, "failed to create role")
		return
	}

	c.JSON(http.StatusCreated, newRolePayload(*role))
}

// DeleteRole removes a custom role and its rules.
func (h *RoleAdminHandler) DeleteRole(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	if err := h.admin.DeleteRole(c.Request.Context(), session, c.Param("id")); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrRoleNotFound, Status: http.StatusNotFound, Message: "role not found"},
			{Err: usecase.ErrSystemRole, Status: http.StatusConflict, Message: "system roles cannot be deleted"},
		}, http.StatusInternalServerError, "failed to delete role")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "role deleted"})
}

// SetRules upserts allow/deny rules on a role.
func (h *RoleAdminHandler) SetRules(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req RulesWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid rules payload"))
		return
	}

	roleID := c.Param("id")
	for _, rule := range req.Rules {
		input := usecase.SetRuleInput{
			RoleID:   roleID,
			Resource: strings.TrimSpace(rule.Resource),
			Action:   strings.TrimSpace(rule.Action),
			Allowed:  rule.Allowed,
		}
		if err := h.admin.SetRule(c.Request.Context(), session, input); err != nil {
			RespondWithMappedError(c, err, []ErrorCase{
				{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
				{Err: usecase.ErrRoleNotFound, Status: http.StatusNotFound, Message: "role not found"},
			}, http.StatusInternalServerError, "failed to set permission rule")
			return
		}
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "permissions updated"})
}

// GetOverride returns the override bundle for a user.
func (h *RoleAdminHandler) GetOverride(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	override, err := h.admin.GetOverride(c.Request.Context(), session, c.Param("userId"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrOverrideNotFound, Status: http.StatusNotFound, Message: "override not found"},
		}, http.StatusInternalServerError, "failed to load override")
		return
	}

	c.JSON(http.StatusOK, newOverridePayload(*override))
}

// SetOverride replaces the override bundle for a user.
func (h *RoleAdminHandler) SetOverride(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req OverrideWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid override payload"))
		return
	}

	entries := make([]domain.OverrideEntry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		entries = append(entries, domain.OverrideEntry{
			Resource: strings.TrimSpace(entry.Resource),
			Action:   strings.TrimSpace(entry.Action),
			Allowed:  entry.Allowed,
		})
	}

	input := usecase.SetOverrideInput{
		UserID:  c.Param("userId"),
		Reason:  strings.TrimSpace(req.Reason),
		Entries: entries,
	}

	override, err := h.admin.SetOverride(c.Request.Context(), session, input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrInvalidOverride, Status: http.StatusBadRequest, Message: "invalid override payload"},
		}, http.StatusInternalServerError, "failed to set override")
		return
	}

	c.JSON(http.StatusOK, newOverridePayload(*override))
}

// ClearOverride removes the override bundle for a user.
func (h *RoleAdminHandler) ClearOverride(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	if err := h.admin.ClearOverride(c.Request.Context(), session, c.Param("userId")); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrOverrideNotFound, Status: http.StatusNotFound, Message: "override not found"},
		}, http.StatusInternalServerError, "failed to clear override")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "override cleared"})
}
