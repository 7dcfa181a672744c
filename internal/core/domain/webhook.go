package domain

import "time"

// DeliveryStatus tracks an inbound webhook through its lifecycle.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryProcessed DeliveryStatus = "processed"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryRetrying  DeliveryStatus = "retrying"
)

// ValidDeliveryStatus reports whether s is a known status value.
func ValidDeliveryStatus(s DeliveryStatus) bool {
	switch s {
	case DeliveryPending, DeliveryProcessed, DeliveryFailed, DeliveryRetrying:
		return true
	}
	return false
}

// WebhookError captures the failure recorded on a delivery attempt.
type WebhookError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// WebhookDelivery is one received webhook payload and its processing state.
// pending -> processed is terminal; pending -> failed may be retried
// (failed -> retrying -> processed|failed) until the attempt cap.
type WebhookDelivery struct {
	ID          string
	Source      string
	Event       string
	Status      DeliveryStatus
	ReceivedAt  time.Time
	ProcessedAt *time.Time
	Attempts    int
	Headers     map[string]any
	Payload     map[string]any
	Response    map[string]any
	Error       *WebhookError
}

// RetryPolicy bounds re-processing of failed deliveries for an event type.
type RetryPolicy struct {
	MaxAttempts       int     `json:"maxAttempts"`
	BackoffMultiplier float64 `json:"backoffMultiplier"`
	InitialDelay      int     `json:"initialDelay"`
}

// WebhookEventConfig declares which inbound event types are accepted and
// where they route. Admin-edited configuration consulted by the intake.
type WebhookEventConfig struct {
	ID          string
	Source      string
	Event       string
	Enabled     bool
	Endpoint    string
	Description string
	RetryPolicy RetryPolicy
}
