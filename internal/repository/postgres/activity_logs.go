package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
)

// ActivityLogRepository implements port.ActivityLogRepository over
// PostgreSQL. Inserts only; the table has no update or delete path.
type ActivityLogRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewActivityLogRepository constructs an activity log repository instance.
func NewActivityLogRepository(exec pgExecutor) *ActivityLogRepository {
	return &ActivityLogRepository{exec: exec, builder: newBuilder()}
}

// Insert appends one audit record.
func (r *ActivityLogRepository) Insert(ctx context.Context, entry domain.ActivityLog) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	stmt, args, err := r.builder.Insert("admin.activity_logs").
		Columns("id", "user_id", "user_email", "user_name", "action", "resource", "resource_id", "details", "metadata", "ts").
		Values(entry.ID, entry.UserID, entry.UserEmail, entry.UserName, string(entry.Action), entry.Resource, entry.ResourceID, details, metadata, entry.Timestamp).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert activity log sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}

	return nil
}

// List returns audit records newest first, applying the equality filters.
func (r *ActivityLogRepository) List(ctx context.Context, filter port.ActivityLogFilter) ([]domain.ActivityLog, error) {
	q := r.builder.Select("id", "user_id", "user_email", "user_name", "action", "resource", "resource_id", "details", "metadata", "ts").
		From("admin.activity_logs").
		OrderBy("ts DESC")

	if filter.UserID != "" {
		q = q.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.Resource != "" {
		q = q.Where(squirrel.Eq{"resource": filter.Resource})
	}
	if filter.Action != "" {
		q = q.Where(squirrel.Eq{"action": filter.Action})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	stmt, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list activity logs sql: %w", err)
	}

	return r.queryLogs(ctx, stmt, args)
}

// ListByResource returns one record's history, newest first.
func (r *ActivityLogRepository) ListByResource(ctx context.Context, resource, resourceID string) ([]domain.ActivityLog, error) {
	stmt, args, err := r.builder.Select("id", "user_id", "user_email", "user_name", "action", "resource", "resource_id", "details", "metadata", "ts").
		From("admin.activity_logs").
		Where(squirrel.Eq{"resource": resource, "resource_id": resourceID}).
		OrderBy("ts DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build resource history sql: %w", err)
	}

	return r.queryLogs(ctx, stmt, args)
}

func (r *ActivityLogRepository) queryLogs(ctx context.Context, stmt string, args []any) ([]domain.ActivityLog, error) {
	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.ActivityLog
	for rows.Next() {
		var (
			entry      domain.ActivityLog
			action     string
			resourceID sql.NullString
			details    []byte
			metadata   []byte
		)

		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.UserEmail, &entry.UserName, &action, &entry.Resource, &resourceID, &details, &metadata, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}

		entry.Action = domain.ActionType(action)
		if resourceID.Valid {
			entry.ResourceID = &resourceID.String
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details: %w", err)
			}
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity logs: %w", err)
	}

	return entries, nil
}

var _ port.ActivityLogRepository = (*ActivityLogRepository)(nil)
