package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
	"github.com/luiso2/sleep-admin-service/internal/repository"
)

// WebhookRepository implements port.WebhookRepository over PostgreSQL.
type WebhookRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewWebhookRepository constructs a webhook repository instance.
func NewWebhookRepository(exec pgExecutor) *WebhookRepository {
	return &WebhookRepository{exec: exec, builder: newBuilder()}
}

const webhookColumns = "id, source, event, status, received_at, processed_at, attempts, headers, payload, response, last_error"

// Create inserts a freshly received delivery.
func (r *WebhookRepository) Create(ctx context.Context, delivery domain.WebhookDelivery) error {
	headers, payload, response, lastError, err := marshalDeliveryJSON(delivery)
	if err != nil {
		return err
	}

	stmt, args, err := r.builder.Insert("admin.webhook_deliveries").
		Columns("id", "source", "event", "status", "received_at", "processed_at", "attempts", "headers", "payload", "response", "last_error").
		Values(delivery.ID, delivery.Source, delivery.Event, string(delivery.Status), delivery.ReceivedAt, delivery.ProcessedAt, delivery.Attempts, headers, payload, response, lastError).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert delivery sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}

	return nil
}

// GetByID retrieves a delivery by identifier.
func (r *WebhookRepository) GetByID(ctx context.Context, id string) (*domain.WebhookDelivery, error) {
	stmt, args, err := r.builder.Select(webhookColumns).
		From("admin.webhook_deliveries").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select delivery sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)
	delivery, err := scanDelivery(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan delivery: %w", err)
	}

	return delivery, nil
}

// Update replaces the full delivery row.
func (r *WebhookRepository) Update(ctx context.Context, delivery domain.WebhookDelivery) error {
	headers, payload, response, lastError, err := marshalDeliveryJSON(delivery)
	if err != nil {
		return err
	}

	stmt, args, err := r.builder.Update("admin.webhook_deliveries").
		Set("status", string(delivery.Status)).
		Set("processed_at", delivery.ProcessedAt).
		Set("attempts", delivery.Attempts).
		Set("headers", headers).
		Set("payload", payload).
		Set("response", response).
		Set("last_error", lastError).
		Where(squirrel.Eq{"id": delivery.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update delivery sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns deliveries newest first, applying the equality filters.
func (r *WebhookRepository) List(ctx context.Context, filter port.WebhookFilter) ([]domain.WebhookDelivery, error) {
	q := r.builder.Select(webhookColumns).
		From("admin.webhook_deliveries").
		OrderBy("received_at DESC")

	if filter.Source != "" {
		q = q.Where(squirrel.Eq{"source": filter.Source})
	}
	if filter.Event != "" {
		q = q.Where(squirrel.Eq{"event": filter.Event})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	stmt, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list deliveries sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []domain.WebhookDelivery
	for rows.Next() {
		delivery, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		deliveries = append(deliveries, *delivery)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}

	return deliveries, nil
}

func marshalDeliveryJSON(delivery domain.WebhookDelivery) (headers, payload, response, lastError []byte, err error) {
	if headers, err = json.Marshal(delivery.Headers); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal headers: %w", err)
	}
	if payload, err = json.Marshal(delivery.Payload); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal payload: %w", err)
	}
	if delivery.Response != nil {
		if response, err = json.Marshal(delivery.Response); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal response: %w", err)
		}
	}
	if delivery.Error != nil {
		if lastError, err = json.Marshal(delivery.Error); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal error: %w", err)
		}
	}
	return headers, payload, response, lastError, nil
}

func scanDelivery(row pgx.Row) (*domain.WebhookDelivery, error) {
	var (
		delivery    domain.WebhookDelivery
		status      string
		processedAt *time.Time
		headers     []byte
		payload     []byte
		response    []byte
		lastError   []byte
	)

	if err := row.Scan(&delivery.ID, &delivery.Source, &delivery.Event, &status, &delivery.ReceivedAt, &processedAt, &delivery.Attempts, &headers, &payload, &response, &lastError); err != nil {
		return nil, err
	}

	delivery.Status = domain.DeliveryStatus(status)
	delivery.ProcessedAt = processedAt

	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &delivery.Headers); err != nil {
			return nil, fmt.Errorf("unmarshal headers: %w", err)
		}
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &delivery.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	if len(response) > 0 {
		if err := json.Unmarshal(response, &delivery.Response); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
	}
	if len(lastError) > 0 {
		var whErr domain.WebhookError
		if err := json.Unmarshal(lastError, &whErr); err != nil {
			return nil, fmt.Errorf("unmarshal error: %w", err)
		}
		delivery.Error = &whErr
	}

	return &delivery, nil
}

var _ port.WebhookRepository = (*WebhookRepository)(nil)
