package port

import (
	"context"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
)

// WebhookFilter narrows delivery listings. Zero values mean "any".
type WebhookFilter struct {
	Source string
	Event  string
	Status domain.DeliveryStatus
	Limit  int
}

// WebhookRepository persists inbound webhook deliveries.
type WebhookRepository interface {
	Create(ctx context.Context, delivery domain.WebhookDelivery) error
	GetByID(ctx context.Context, id string) (*domain.WebhookDelivery, error)
	// Update replaces the full delivery record (no partial update semantics).
	Update(ctx context.Context, delivery domain.WebhookDelivery) error
	// List returns deliveries newest first.
	List(ctx context.Context, filter WebhookFilter) ([]domain.WebhookDelivery, error)
}

// WebhookConfigRepository reads the admin-edited event acceptance config.
type WebhookConfigRepository interface {
	// GetBySourceEvent returns the config row for (source, event), or
	// repository.ErrNotFound when the event type is not declared.
	GetBySourceEvent(ctx context.Context, source, event string) (*domain.WebhookEventConfig, error)
	List(ctx context.Context) ([]domain.WebhookEventConfig, error)
}
