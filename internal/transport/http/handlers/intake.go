package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luiso2/sleep-admin-service/internal/usecase"
)

// IntakeHandler receives webhooks from external systems. Unlike the rest
// of the API it is unauthenticated and returns 5xx on store failure so
// senders re-deliver.
type IntakeHandler struct {
	tracker *usecase.WebhookTracker
	logger  *zap.Logger
}

// NewIntakeHandler builds the public intake handler.
func NewIntakeHandler(tracker *usecase.WebhookTracker, logger *zap.Logger) *IntakeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntakeHandler{tracker: tracker, logger: logger}
}

// RegisterRoutes wires the intake endpoint into the group.
func (h *IntakeHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/:source/:event", h.Receive)
}

// Receive stores an inbound delivery as pending.
func (h *IntakeHandler) Receive(c *gin.Context) {
	source := strings.TrimSpace(c.Param("source"))
	event := strings.TrimSpace(c.Param("event"))
	if source == "" || event == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "missing source or event"))
		return
	}

	payload := map[string]any{}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unreadable payload"))
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid JSON payload"))
			return
		}
	}

	headers := make(map[string]any, len(c.Request.Header))
	for name, values := range c.Request.Header {
		if strings.EqualFold(name, "Authorization") || strings.EqualFold(name, "Cookie") {
			continue
		}
		if len(values) == 1 {
			headers[name] = values[0]
		} else {
			headers[name] = values
		}
	}

	delivery, err := h.tracker.Register(c.Request.Context(), source, event, headers, payload)
	if err != nil {
		h.logger.Warn("webhook intake rejected",
			zap.String("source", source),
			zap.String("event", event),
			zap.Error(err),
		)
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrEventNotAccepted, Status: http.StatusNotFound, Message: "event type not accepted"},
			{Err: usecase.ErrEventDisabled, Status: http.StatusForbidden, Message: "event type disabled"},
		}, http.StatusInternalServerError, "failed to store webhook")
		return
	}

	c.JSON(http.StatusAccepted, IntakeAcceptedResponse{
		ID:     delivery.ID,
		Status: string(delivery.Status),
	})
}
