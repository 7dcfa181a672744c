package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
	"github.com/luiso2/sleep-admin-service/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishActivityRecorded publishes admin.activity.recorded events.
func (p *EventPublisher) PublishActivityRecorded(ctx context.Context, event domain.ActivityRecordedEvent) error {
	payload := struct {
		LogID      string         `json:"log_id"`
		UserID     string         `json:"user_id"`
		Action     string         `json:"action"`
		Resource   string         `json:"resource"`
		ResourceID *string        `json:"resource_id,omitempty"`
		RecordedAt time.Time      `json:"recorded_at"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}{
		LogID:      event.LogID,
		UserID:     event.UserID,
		Action:     string(event.Action),
		Resource:   event.Resource,
		ResourceID: event.ResourceID,
		RecordedAt: event.RecordedAt.UTC(),
		Metadata:   event.Metadata,
	}

	return p.publish(ctx, event.EventID, "admin.activity.recorded", event.RecordedAt, payload)
}

// PublishWebhookReceived publishes admin.webhook.received events.
func (p *EventPublisher) PublishWebhookReceived(ctx context.Context, event domain.WebhookReceivedEvent) error {
	payload := struct {
		DeliveryID string    `json:"delivery_id"`
		Source     string    `json:"source"`
		Event      string    `json:"event"`
		ReceivedAt time.Time `json:"received_at"`
	}{
		DeliveryID: event.DeliveryID,
		Source:     event.Source,
		Event:      event.Event,
		ReceivedAt: event.ReceivedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "admin.webhook.received", event.ReceivedAt, payload)
}

// PublishWebhookStatusChanged publishes admin.webhook.status_changed events.
func (p *EventPublisher) PublishWebhookStatusChanged(ctx context.Context, event domain.WebhookStatusChangedEvent) error {
	payload := struct {
		DeliveryID string    `json:"delivery_id"`
		Source     string    `json:"source"`
		Event      string    `json:"event"`
		Status     string    `json:"status"`
		Attempts   int       `json:"attempts"`
		ChangedAt  time.Time `json:"changed_at"`
	}{
		DeliveryID: event.DeliveryID,
		Source:     event.Source,
		Event:      event.Event,
		Status:     string(event.Status),
		Attempts:   event.Attempts,
		ChangedAt:  event.ChangedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "admin.webhook.status_changed", event.ChangedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
