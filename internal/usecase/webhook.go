package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
	"github.com/luiso2/sleep-admin-service/internal/repository"
)

var (
	// ErrWebhookNotFound indicates the delivery id does not exist.
	ErrWebhookNotFound = errors.New("webhook delivery not found")
	// ErrEventNotAccepted indicates no configuration declares the event.
	ErrEventNotAccepted = errors.New("event type not accepted")
	// ErrEventDisabled indicates the event type is declared but switched off.
	ErrEventDisabled = errors.New("event type disabled")
	// ErrInvalidStatus indicates an unknown status value was supplied.
	ErrInvalidStatus = errors.New("invalid delivery status")
	// ErrRetryNotAllowed indicates retry was requested on a non-failed delivery.
	ErrRetryNotAllowed = errors.New("only failed deliveries can be retried")
	// ErrRetryExhausted indicates the delivery hit its attempt cap.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// WebhookTracker tracks inbound webhook deliveries through their
// lifecycle. It only tracks status; actual re-processing is external.
// Unlike the audit sink, store failures here propagate: losing an inbound
// payload is worse than failing loud, and a 5xx makes the sender retry.
type WebhookTracker struct {
	deliveries  port.WebhookRepository
	configs     port.WebhookConfigRepository
	publisher   port.EventPublisher
	logger      *zap.Logger
	maxAttempts int
}

// NewWebhookTracker constructs a tracker. defaultMaxAttempts caps retries
// for event types whose config does not set its own policy.
func NewWebhookTracker(deliveries port.WebhookRepository, configs port.WebhookConfigRepository, publisher port.EventPublisher, logger *zap.Logger, defaultMaxAttempts int) *WebhookTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultMaxAttempts <= 0 {
		defaultMaxAttempts = 3
	}
	return &WebhookTracker{
		deliveries:  deliveries,
		configs:     configs,
		publisher:   publisher,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
	}
}

// Register persists a freshly received payload in pending status.
func (t *WebhookTracker) Register(ctx context.Context, source, event string, headers, payload map[string]any) (*domain.WebhookDelivery, error) {
	cfg, err := t.configs.GetBySourceEvent(ctx, source, event)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotAccepted
		}
		return nil, fmt.Errorf("lookup webhook config: %w", err)
	}
	if !cfg.Enabled {
		return nil, ErrEventDisabled
	}

	delivery := domain.WebhookDelivery{
		ID:         uuid.NewString(),
		Source:     source,
		Event:      event,
		Status:     domain.DeliveryPending,
		ReceivedAt: time.Now().UTC(),
		Attempts:   0,
		Headers:    headers,
		Payload:    payload,
	}

	if err := t.deliveries.Create(ctx, delivery); err != nil {
		return nil, fmt.Errorf("persist delivery: %w", err)
	}

	t.publishReceived(ctx, delivery)

	return &delivery, nil
}

// UpdateStatus records the outcome of a processing attempt. Every call
// increments the attempt counter and stamps ProcessedAt, including failed
// attempts.
func (t *WebhookTracker) UpdateStatus(ctx context.Context, id string, status domain.DeliveryStatus, response map[string]any, whErr *domain.WebhookError) error {
	if !domain.ValidDeliveryStatus(status) {
		return ErrInvalidStatus
	}

	delivery, err := t.deliveries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWebhookNotFound
		}
		return fmt.Errorf("load delivery: %w", err)
	}

	now := time.Now().UTC()
	delivery.Status = status
	delivery.Attempts++
	delivery.ProcessedAt = &now
	if response != nil {
		delivery.Response = response
	}
	if whErr != nil {
		delivery.Error = whErr
	}

	if err := t.deliveries.Update(ctx, *delivery); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWebhookNotFound
		}
		return fmt.Errorf("update delivery: %w", err)
	}

	t.publishStatusChanged(ctx, *delivery)

	return nil
}

// Retry transitions a failed delivery to retrying. The attempt cap is
// enforced here, not just in the UI.
func (t *WebhookTracker) Retry(ctx context.Context, id string) error {
	delivery, err := t.deliveries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWebhookNotFound
		}
		return fmt.Errorf("load delivery: %w", err)
	}

	if delivery.Status != domain.DeliveryFailed {
		return ErrRetryNotAllowed
	}
	if delivery.Attempts >= t.retryCap(ctx, delivery.Source, delivery.Event) {
		return ErrRetryExhausted
	}

	delivery.Status = domain.DeliveryRetrying

	if err := t.deliveries.Update(ctx, *delivery); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWebhookNotFound
		}
		return fmt.Errorf("update delivery: %w", err)
	}

	t.publishStatusChanged(ctx, *delivery)

	return nil
}

// Get returns one delivery.
func (t *WebhookTracker) Get(ctx context.Context, id string) (*domain.WebhookDelivery, error) {
	delivery, err := t.deliveries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWebhookNotFound
		}
		return nil, fmt.Errorf("load delivery: %w", err)
	}
	return delivery, nil
}

// List returns deliveries newest first.
func (t *WebhookTracker) List(ctx context.Context, filter port.WebhookFilter) ([]domain.WebhookDelivery, error) {
	deliveries, err := t.deliveries.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	return deliveries, nil
}

func (t *WebhookTracker) retryCap(ctx context.Context, source, event string) int {
	cfg, err := t.configs.GetBySourceEvent(ctx, source, event)
	if err != nil || cfg.RetryPolicy.MaxAttempts <= 0 {
		return t.maxAttempts
	}
	return cfg.RetryPolicy.MaxAttempts
}

func (t *WebhookTracker) publishReceived(ctx context.Context, delivery domain.WebhookDelivery) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.PublishWebhookReceived(ctx, domain.WebhookReceivedEvent{
		DeliveryID: delivery.ID,
		Source:     delivery.Source,
		Event:      delivery.Event,
		ReceivedAt: delivery.ReceivedAt,
	}); err != nil {
		t.logger.Warn("webhook received event publish failed", zap.Error(err))
	}
}

func (t *WebhookTracker) publishStatusChanged(ctx context.Context, delivery domain.WebhookDelivery) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.PublishWebhookStatusChanged(ctx, domain.WebhookStatusChangedEvent{
		DeliveryID: delivery.ID,
		Source:     delivery.Source,
		Event:      delivery.Event,
		Status:     delivery.Status,
		Attempts:   delivery.Attempts,
		ChangedAt:  time.Now().UTC(),
	}); err != nil {
		t.logger.Warn("webhook status event publish failed", zap.Error(err))
	}
}
