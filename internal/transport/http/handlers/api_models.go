package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/usecase"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// PermissionCheckRequest asks whether the session may perform one action.
type PermissionCheckRequest struct {
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

// PermissionCheckResponse carries a single access decision.
type PermissionCheckResponse struct {
	Can    bool   `json:"can"`
	Reason string `json:"reason,omitempty"`
}

// PermissionCheckAnyRequest asks whether any of the listed actions is allowed.
type PermissionCheckAnyRequest struct {
	Resource string   `json:"resource" binding:"required"`
	Actions  []string `json:"actions" binding:"required,min=1"`
}

// PermissionResolveResponse is the batch resolution over the full registry.
type PermissionResolveResponse struct {
	Role        string                      `json:"role"`
	Permissions []domain.ResolvedPermission `json:"permissions"`
}

// MenuResponse wraps the gated navigation tree.
type MenuResponse struct {
	Groups []usecase.MenuGroup `json:"groups"`
}

// RoleCreateRequest defines the payload for creating a role.
type RoleCreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	DisplayName string  `json:"displayName"`
	Description *string `json:"description,omitempty"`
}

// RolePayload summarizes a role entity.
type RolePayload struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	Description *string `json:"description,omitempty"`
	IsSystem    bool    `json:"isSystem"`
}

// RoleListResponse wraps multiple roles.
type RoleListResponse struct {
	Roles []RolePayload `json:"roles"`
}

// RuleWriteRequest sets one allow/deny rule on a role.
type RuleWriteRequest struct {
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
	Allowed  bool   `json:"allowed"`
}

// RulesWriteRequest replaces or upserts a batch of rules on a role.
type RulesWriteRequest struct {
	Rules []RuleWriteRequest `json:"rules" binding:"required,min=1"`
}

// OverrideEntryPayload is one per-user exception in override payloads.
type OverrideEntryPayload struct {
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
	Allowed  bool   `json:"allowed"`
}

// OverrideWriteRequest replaces the override bundle for a user.
type OverrideWriteRequest struct {
	Reason  string                 `json:"reason"`
	Entries []OverrideEntryPayload `json:"entries" binding:"required"`
}

// OverridePayload returns an override bundle.
type OverridePayload struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	Reason    string                 `json:"reason,omitempty"`
	Entries   []OverrideEntryPayload `json:"entries"`
	CreatedAt time.Time              `json:"createdAt"`
	CreatedBy string                 `json:"createdBy,omitempty"`
}

// ActivityLogPayload is one audit record in API responses.
type ActivityLogPayload struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	UserEmail  string         `json:"userEmail,omitempty"`
	UserName   string         `json:"userName,omitempty"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID *string        `json:"resourceId,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// ActivityListResponse wraps audit query results.
type ActivityListResponse struct {
	Logs  []ActivityLogPayload `json:"logs"`
	Total int                  `json:"total"`
}

// WebhookErrorPayload carries the failure recorded on a delivery.
type WebhookErrorPayload struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// WebhookDeliveryPayload is one inbound delivery in API responses.
type WebhookDeliveryPayload struct {
	ID          string               `json:"id"`
	Source      string               `json:"source"`
	Event       string               `json:"event"`
	Status      string               `json:"status"`
	ReceivedAt  time.Time            `json:"receivedAt"`
	ProcessedAt *time.Time           `json:"processedAt,omitempty"`
	Attempts    int                  `json:"attempts"`
	Headers     map[string]any       `json:"headers,omitempty"`
	Payload     map[string]any       `json:"payload,omitempty"`
	Response    map[string]any       `json:"response,omitempty"`
	Error       *WebhookErrorPayload `json:"error,omitempty"`
}

// WebhookListResponse wraps delivery listings.
type WebhookListResponse struct {
	Webhooks []WebhookDeliveryPayload `json:"webhooks"`
	Total    int                      `json:"total"`
}

// WebhookStatusUpdateRequest reports a processing outcome for a delivery.
type WebhookStatusUpdateRequest struct {
	Status   string         `json:"status" binding:"required"`
	Response map[string]any `json:"response,omitempty"`
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// IntakeAcceptedResponse acknowledges a received webhook.
type IntakeAcceptedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func newRolePayload(role domain.Role) RolePayload {
	return RolePayload{
		ID:          role.ID,
		Name:        role.Name,
		DisplayName: role.DisplayName,
		Description: role.Description,
		IsSystem:    role.IsSystem,
	}
}

func newOverridePayload(override domain.PermissionOverride) OverridePayload {
	entries := make([]OverrideEntryPayload, 0, len(override.Entries))
	for _, entry := range override.Entries {
		entries = append(entries, OverrideEntryPayload{
			Resource: entry.Resource,
			Action:   entry.Action,
			Allowed:  entry.Allowed,
		})
	}

	return OverridePayload{
		ID:        override.ID,
		UserID:    override.UserID,
		Reason:    override.Reason,
		Entries:   entries,
		CreatedAt: override.CreatedAt,
		CreatedBy: override.CreatedBy,
	}
}

func newActivityLogPayload(entry domain.ActivityLog) ActivityLogPayload {
	return ActivityLogPayload{
		ID:         entry.ID,
		UserID:     entry.UserID,
		UserEmail:  entry.UserEmail,
		UserName:   entry.UserName,
		Action:     string(entry.Action),
		Resource:   entry.Resource,
		ResourceID: entry.ResourceID,
		Details:    entry.Details,
		Metadata:   entry.Metadata,
		Timestamp:  entry.Timestamp,
	}
}

func newDeliveryPayload(delivery domain.WebhookDelivery) WebhookDeliveryPayload {
	payload := WebhookDeliveryPayload{
		ID:          delivery.ID,
		Source:      delivery.Source,
		Event:       delivery.Event,
		Status:      string(delivery.Status),
		ReceivedAt:  delivery.ReceivedAt,
		ProcessedAt: delivery.ProcessedAt,
		Attempts:    delivery.Attempts,
		Headers:     delivery.Headers,
		Payload:     delivery.Payload,
		Response:    delivery.Response,
	}

	if delivery.Error != nil {
		payload.Error = &WebhookErrorPayload{
			Code:      delivery.Error.Code,
			Message:   delivery.Error.Message,
			Timestamp: delivery.Error.Timestamp,
		}
	}

	return payload
}
