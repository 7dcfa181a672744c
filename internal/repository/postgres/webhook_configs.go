package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
	"github.com/luiso2/sleep-admin-service/internal/repository"
)

// WebhookConfigRepository implements port.WebhookConfigRepository over
// PostgreSQL.
type WebhookConfigRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewWebhookConfigRepository constructs a config repository instance.
func NewWebhookConfigRepository(exec pgExecutor) *WebhookConfigRepository {
	return &WebhookConfigRepository{exec: exec, builder: newBuilder()}
}

// GetBySourceEvent returns the config row declaring (source, event).
func (r *WebhookConfigRepository) GetBySourceEvent(ctx context.Context, source, event string) (*domain.WebhookEventConfig, error) {
	stmt, args, err := r.builder.Select("id", "source", "event", "enabled", "endpoint", "description", "retry_policy").
		From("admin.webhook_events").
		Where(squirrel.Eq{"source": source, "event": event}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select webhook config sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	cfg, err := scanWebhookConfig(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan webhook config: %w", err)
	}

	return cfg, nil
}

// List returns every declared event configuration.
func (r *WebhookConfigRepository) List(ctx context.Context) ([]domain.WebhookEventConfig, error) {
	stmt, args, err := r.builder.Select("id", "source", "event", "enabled", "endpoint", "description", "retry_policy").
		From("admin.webhook_events").
		OrderBy("source ASC", "event ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list webhook configs sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query webhook configs: %w", err)
	}
	defer rows.Close()

	var configs []domain.WebhookEventConfig
	for rows.Next() {
		cfg, err := scanWebhookConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook config: %w", err)
		}
		configs = append(configs, *cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook configs: %w", err)
	}

	return configs, nil
}

func scanWebhookConfig(row pgx.Row) (*domain.WebhookEventConfig, error) {
	var (
		cfg    domain.WebhookEventConfig
		policy []byte
	)

	if err := row.Scan(&cfg.ID, &cfg.Source, &cfg.Event, &cfg.Enabled, &cfg.Endpoint, &cfg.Description, &policy); err != nil {
		return nil, err
	}

	if len(policy) > 0 {
		if err := json.Unmarshal(policy, &cfg.RetryPolicy); err != nil {
			return nil, fmt.Errorf("unmarshal retry policy: %w", err)
		}
	}

	return &cfg, nil
}

var _ port.WebhookConfigRepository = (*WebhookConfigRepository)(nil)
