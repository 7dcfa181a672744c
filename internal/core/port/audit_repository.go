package port

import (
	"context"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
)

// ActivityLogFilter narrows audit queries. Zero values mean "any".
// Date-range filtering happens in the usecase layer.
type ActivityLogFilter struct {
	UserID   string
	Resource string
	Action   string
	Limit    int
}

// ActivityLogRepository persists the append-only audit trail. There is no
// update or delete: records are only inserted and read.
type ActivityLogRepository interface {
	Insert(ctx context.Context, entry domain.ActivityLog) error
	// List returns entries newest first.
	List(ctx context.Context, filter ActivityLogFilter) ([]domain.ActivityLog, error)
	// ListByResource returns the history of one record, newest first.
	ListByResource(ctx context.Context, resource, resourceID string) ([]domain.ActivityLog, error)
}
