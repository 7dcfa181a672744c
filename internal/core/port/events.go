package port

import (
	"context"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus. Publishing is
// best-effort: callers treat failures as log-and-continue.
type EventPublisher interface {
	PublishActivityRecorded(ctx context.Context, event domain.ActivityRecordedEvent) error
	PublishWebhookReceived(ctx context.Context, event domain.WebhookReceivedEvent) error
	PublishWebhookStatusChanged(ctx context.Context, event domain.WebhookStatusChangedEvent) error
}
