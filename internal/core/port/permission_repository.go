package port

import (
	"context"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
)

// PermissionRuleRepository persists role-level allow/deny rules.
type PermissionRuleRepository interface {
	// Upsert inserts the rule or replaces the existing rule for the same
	// (roleID, resource, action) triple, preserving the uniqueness invariant.
	Upsert(ctx context.Context, rule domain.PermissionRule) error
	// Find returns the rule for the exact triple, or repository.ErrNotFound.
	Find(ctx context.Context, roleID, resource, action string) (*domain.PermissionRule, error)
	ListByRole(ctx context.Context, roleID string) ([]domain.PermissionRule, error)
	DeleteByRole(ctx context.Context, roleID string) error
}

// OverrideRepository persists per-user permission override bundles.
type OverrideRepository interface {
	// Replace writes the bundle for override.UserID, discarding any bundle
	// previously stored for that user.
	Replace(ctx context.Context, override domain.PermissionOverride) error
	// GetByUser returns the user's bundle, or repository.ErrNotFound.
	GetByUser(ctx context.Context, userID string) (*domain.PermissionOverride, error)
	DeleteByUser(ctx context.Context, userID string) error
}
