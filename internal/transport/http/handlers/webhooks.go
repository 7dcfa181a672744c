package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
	"github.com/luiso2/sleep-admin-service/internal/transport/http/middleware"
	"github.com/luiso2/sleep-admin-service/internal/usecase"
)

// WebhookAdminHandler exposes delivery inspection and retry to operators.
type WebhookAdminHandler struct {
	tracker  *usecase.WebhookTracker
	resolver *usecase.PermissionResolver
	recorder *usecase.ActivityRecorder
}

// NewWebhookAdminHandler builds the admin-side webhook handler.
func NewWebhookAdminHandler(tracker *usecase.WebhookTracker, resolver *usecase.PermissionResolver, recorder *usecase.ActivityRecorder) *WebhookAdminHandler {
	return &WebhookAdminHandler{tracker: tracker, resolver: resolver, recorder: recorder}
}

// RegisterRoutes wires the webhook admin endpoints into the group.
func (h *WebhookAdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.POST("/:id/retry", h.Retry)
	r.PATCH("/:id/status", h.UpdateStatus)
}

// List returns deliveries newest first, narrowed by query filters.
func (h *WebhookAdminHandler) List(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	if decision := h.resolver.Evaluate(c.Request.Context(), session, "webhooks", "list"); !decision.Allowed {
		c.JSON(http.StatusForbidden, NewErrorResponse(c, decision.Reason))
		return
	}

	filter := port.WebhookFilter{
		Source: c.Query("source"),
		Event:  c.Query("event"),
		Status: domain.DeliveryStatus(c.Query("status")),
	}

	if filter.Status != "" && !domain.ValidDeliveryStatus(filter.Status) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid status filter"))
		return
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid limit"))
			return
		}
		filter.Limit = limit
	}

	deliveries, err := h.tracker.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list webhooks"))
		return
	}

	payloads := make([]WebhookDeliveryPayload, 0, len(deliveries))
	for _, delivery := range deliveries {
		payloads = append(payloads, newDeliveryPayload(delivery))
	}

	c.JSON(http.StatusOK, WebhookListResponse{Webhooks: payloads, Total: len(payloads)})
}

// Get returns a single delivery by id.
func (h *WebhookAdminHandler) Get(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	if decision := h.resolver.Evaluate(c.Request.Context(), session, "webhooks", "show"); !decision.Allowed {
		c.JSON(http.StatusForbidden, NewErrorResponse(c, decision.Reason))
		return
	}

	delivery, err := h.tracker.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrWebhookNotFound, Status: http.StatusNotFound, Message: "webhook not found"},
		}, http.StatusInternalServerError, "failed to load webhook")
		return
	}

	c.JSON(http.StatusOK, newDeliveryPayload(*delivery))
}

// Retry re-queues a failed delivery, subject to the attempt cap.
func (h *WebhookAdminHandler) Retry(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	if decision := h.resolver.Evaluate(c.Request.Context(), session, "webhooks", "edit"); !decision.Allowed {
		c.JSON(http.StatusForbidden, NewErrorResponse(c, decision.Reason))
		return
	}

	id := c.Param("id")
	if err := h.tracker.Retry(c.Request.Context(), id); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrWebhookNotFound, Status: http.StatusNotFound, Message: "webhook not found"},
			{Err: usecase.ErrRetryNotAllowed, Status: http.StatusConflict, Message: "only failed deliveries can be retried"},
			{Err: usecase.ErrRetryExhausted, Status: http.StatusConflict, Message: "retry attempts exhausted"},
		}, http.StatusInternalServerError, "failed to retry webhook")
		return
	}

	if h.recorder != nil {
		h.recorder.LogStatusChange(session, "webhooks", id, string(domain.DeliveryFailed), string(domain.DeliveryRetrying))
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "webhook queued for retry"})
}

// UpdateStatus records a processing outcome reported for a delivery.
func (h *WebhookAdminHandler) UpdateStatus(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	if decision := h.resolver.Evaluate(c.Request.Context(), session, "webhooks", "edit"); !decision.Allowed {
		c.JSON(http.StatusForbidden, NewErrorResponse(c, decision.Reason))
		return
	}

	var req WebhookStatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid status payload"))
		return
	}

	status := domain.DeliveryStatus(req.Status)
	var whErr *domain.WebhookError
	if req.Error != nil {
		whErr = &domain.WebhookError{
			Code:      req.Error.Code,
			Message:   req.Error.Message,
			Timestamp: time.Now().UTC(),
		}
	}

	if err := h.tracker.UpdateStatus(c.Request.Context(), c.Param("id"), status, req.Response, whErr); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrWebhookNotFound, Status: http.StatusNotFound, Message: "webhook not found"},
			{Err: usecase.ErrInvalidStatus, Status: http.StatusBadRequest, Message: "invalid delivery status"},
		}, http.StatusInternalServerError, "failed to update webhook status")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "webhook status updated"})
}
