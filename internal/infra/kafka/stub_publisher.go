package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no
// brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishActivityRecorded logs admin.activity.recorded events.
func (p *StubPublisher) PublishActivityRecorded(_ context.Context, event domain.ActivityRecordedEvent) error {
	p.logEvent("admin.activity.recorded", event.RecordedAt, map[string]any{
		"log_id":      event.LogID,
		"user_id":     event.UserID,
		"action":      event.Action,
		"resource":    event.Resource,
		"resource_id": event.ResourceID,
	})
	return nil
}

// PublishWebhookReceived logs admin.webhook.received events.
func (p *StubPublisher) PublishWebhookReceived(_ context.Context, event domain.WebhookReceivedEvent) error {
	p.logEvent("admin.webhook.received", event.ReceivedAt, map[string]any{
		"delivery_id": event.DeliveryID,
		"source":      event.Source,
		"event":       event.Event,
	})
	return nil
}

// PublishWebhookStatusChanged logs admin.webhook.status_changed events.
func (p *StubPublisher) PublishWebhookStatusChanged(_ context.Context, event domain.WebhookStatusChangedEvent) error {
	p.logEvent("admin.webhook.status_changed", event.ChangedAt, map[string]any{
		"delivery_id": event.DeliveryID,
		"status":      event.Status,
		"attempts":    event.Attempts,
	})
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
