package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luiso2/sleep-admin-service/internal/transport/http/middleware"
	"github.com/luiso2/sleep-admin-service/internal/usecase"
)

// MenuHandler serves the permission-gated navigation tree.
type MenuHandler struct {
	gate *usecase.MenuGate
}

// NewMenuHandler builds a handler over the menu gate.
func NewMenuHandler(gate *usecase.MenuGate) *MenuHandler {
	return &MenuHandler{gate: gate}
}

// RegisterRoutes wires the menu endpoints into the group.
func (h *MenuHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.Menu)
	r.GET("/route/:resource/:action", h.RouteAccess)
}

// Menu returns the navigation groups visible to the session.
func (h *MenuHandler) Menu(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	groups := h.gate.BuildMenu(c.Request.Context(), session)
	if groups == nil {
		groups = []usecase.MenuGroup{}
	}

	c.JSON(http.StatusOK, MenuResponse{Groups: groups})
}

// RouteAccess re-checks a single route against the same resolver that
// built the menu.
func (h *MenuHandler) RouteAccess(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	decision := h.gate.CanRoute(c.Request.Context(), session, c.Param("resource"), c.Param("action"))

	c.JSON(http.StatusOK, PermissionCheckResponse{
		Can:    decision.Allowed,
		Reason: decision.Reason,
	})
}
