package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
	"github.com/luiso2/sleep-admin-service/internal/repository"
)

// PermissionRuleRepository implements port.PermissionRuleRepository over
// PostgreSQL. A unique index on (role_id, resource, action) backs the
// one-rule-per-triple invariant; Upsert rides on it.
type PermissionRuleRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPermissionRuleRepository constructs a rule repository instance.
func NewPermissionRuleRepository(exec pgExecutor) *PermissionRuleRepository {
	return &PermissionRuleRepository{exec: exec, builder: newBuilder()}
}

// Upsert inserts the rule or flips the allowed flag of the existing row.
func (r *PermissionRuleRepository) Upsert(ctx context.Context, rule domain.PermissionRule) error {
	stmt, args, err := r.builder.Insert("admin.permission_rules").
		Columns("id", "role_id", "resource", "action", "allowed").
		Values(rule.ID, rule.RoleID, rule.Resource, rule.Action, rule.Allowed).
		Suffix("ON CONFLICT (role_id, resource, action) DO UPDATE SET allowed = EXCLUDED.allowed").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert rule sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("upsert rule: %w", err)
	}

	return nil
}

// Find returns the rule for the exact (roleID, resource, action) triple.
func (r *PermissionRuleRepository) Find(ctx context.Context, roleID, resource, action string) (*domain.PermissionRule, error) {
	stmt, args, err := r.builder.Select("id", "role_id", "resource", "action", "allowed").
		From("admin.permission_rules").
		Where(squirrel.Eq{"role_id": roleID, "resource": resource, "action": action}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select rule sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var rule domain.PermissionRule
	if err := row.Scan(&rule.ID, &rule.RoleID, &rule.Resource, &rule.Action, &rule.Allowed); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan rule: %w", err)
	}

	return &rule, nil
}

// ListByRole returns every rule attached to a role.
func (r *PermissionRuleRepository) ListByRole(ctx context.Context, roleID string) ([]domain.PermissionRule, error) {
	stmt, args, err := r.builder.Select("id", "role_id", "resource", "action", "allowed").
		From("admin.permission_rules").
		Where(squirrel.Eq{"role_id": roleID}).
		OrderBy("resource ASC", "action ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build rules by role sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.PermissionRule
	for rows.Next() {
		var rule domain.PermissionRule
		if err := rows.Scan(&rule.ID, &rule.RoleID, &rule.Resource, &rule.Action, &rule.Allowed); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}

	return rules, nil
}

// DeleteByRole removes all rules attached to a role.
func (r *PermissionRuleRepository) DeleteByRole(ctx context.Context, roleID string) error {
	stmt, args, err := r.builder.Delete("admin.permission_rules").
		Where(squirrel.Eq{"role_id": roleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete rules sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete rules: %w", err)
	}

	return nil
}

var _ port.PermissionRuleRepository = (*PermissionRuleRepository)(nil)
