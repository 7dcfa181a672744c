package port

import (
	"context"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
)

// DecisionCache caches batch resolution results per identity. Invalidation
// is version based: rule or role writes bump a global generation, override
// writes bump the affected user's version, and cached grants stored under
// older versions simply stop being found.
type DecisionCache interface {
	Lookup(ctx context.Context, userID, role string) ([]domain.ResolvedPermission, bool, error)
	Store(ctx context.Context, userID, role string, grants []domain.ResolvedPermission) error
	InvalidateUser(ctx context.Context, userID string) error
	InvalidateAll(ctx context.Context) error
}
