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

// OverrideRepository implements port.OverrideRepository over PostgreSQL.
// user_id carries a unique index: the replace-on-write contract keeps a
// single bundle per user.
type OverrideRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewOverrideRepository constructs an override repository instance.
func NewOverrideRepository(exec pgExecutor) *OverrideRepository {
	return &OverrideRepository{exec: exec, builder: newBuilder()}
}

// Replace writes the user's bundle, discarding any previous one.
func (r *OverrideRepository) Replace(ctx context.Context, override domain.PermissionOverride) error {
	entries, err := json.Marshal(override.Entries)
	if err != nil {
		return fmt.Errorf("marshal override entries: %w", err)
	}

	stmt, args, err := r.builder.Insert("admin.permission_overrides").
		Columns("id", "user_id", "reason", "entries", "created_at", "created_by").
		Values(override.ID, override.UserID, override.Reason, entries, override.CreatedAt, override.CreatedBy).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET id = EXCLUDED.id, reason = EXCLUDED.reason, entries = EXCLUDED.entries, created_at = EXCLUDED.created_at, created_by = EXCLUDED.created_by").
		ToSql()
	if err != nil {
		return fmt.Errorf("build replace override sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("replace override: %w", err)
	}

	return nil
}

// GetByUser returns the user's override bundle.
func (r *OverrideRepository) GetByUser(ctx context.Context, userID string) (*domain.PermissionOverride, error) {
	stmt, args, err := r.builder.Select("id", "user_id", "reason", "entries", "created_at", "created_by").
		From("admin.permission_overrides").
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select override sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var (
		override domain.PermissionOverride
		entries  []byte
	)

	if err := row.Scan(&override.ID, &override.UserID, &override.Reason, &entries, &override.CreatedAt, &override.CreatedBy); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan override: %w", err)
	}

	if len(entries) > 0 {
		if err := json.Unmarshal(entries, &override.Entries); err != nil {
			return nil, fmt.Errorf("unmarshal override entries: %w", err)
		}
	}

	return &override, nil
}

// DeleteByUser removes the user's override bundle.
func (r *OverrideRepository) DeleteByUser(ctx context.Context, userID string) error {
	stmt, args, err := r.builder.Delete("admin.permission_overrides").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete override sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.OverrideRepository = (*OverrideRepository)(nil)
