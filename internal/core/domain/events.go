package domain

import "time"

// ActivityRecordedEvent mirrors an audit record onto the event bus.
type ActivityRecordedEvent struct {
	EventID    string
	LogID      string
	UserID     string
	Action     ActionType
	Resource   string
	ResourceID *string
	RecordedAt time.Time
	Metadata   map[string]any
}

// WebhookReceivedEvent announces an accepted inbound webhook.
type WebhookReceivedEvent struct {
	EventID    string
	DeliveryID string
	Source     string
	Event      string
	ReceivedAt time.Time
}

// WebhookStatusChangedEvent announces a delivery status transition.
type WebhookStatusChangedEvent struct {
	EventID    string
	DeliveryID string
	Source     string
	Event      string
	Status     DeliveryStatus
	Attempts   int
	ChangedAt  time.Time
}
