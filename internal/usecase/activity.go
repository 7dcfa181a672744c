package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
)

// ActivityFilter narrows audit queries. The date range is applied after
// the store fetch, since the store only supports equality filters.
type ActivityFilter struct {
	UserID    string
	Resource  string
	Action    string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}

// ActivityQueryService reads the audit trail.
type ActivityQueryService struct {
	repo port.ActivityLogRepository
}

// NewActivityQueryService constructs a query service over the log store.
func NewActivityQueryService(repo port.ActivityLogRepository) *ActivityQueryService {
	return &ActivityQueryService{repo: repo}
}

// List returns audit entries newest first, date-filtered in memory.
func (s *ActivityQueryService) List(ctx context.Context, filter ActivityFilter) ([]domain.ActivityLog, error) {
	storeLimit := filter.Limit
	if !filter.StartDate.IsZero() || !filter.EndDate.IsZero() {
		// The date range trims after the fetch, so the store limit cannot
		// apply yet without losing in-range entries.
		storeLimit = 0
	}

	entries, err := s.repo.List(ctx, port.ActivityLogFilter{
		UserID:   filter.UserID,
		Resource: filter.Resource,
		Action:   filter.Action,
		Limit:    storeLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}

	filtered := entries[:0:0]
	for _, entry := range entries {
		if !filter.StartDate.IsZero() && entry.Timestamp.Before(filter.StartDate) {
			continue
		}
		if !filter.EndDate.IsZero() && entry.Timestamp.After(filter.EndDate) {
			continue
		}
		filtered = append(filtered, entry)
		if filter.Limit > 0 && len(filtered) >= filter.Limit {
			break
		}
	}

	return filtered, nil
}

// ResourceHistory returns one record's audit trail, newest first.
func (s *ActivityQueryService) ResourceHistory(ctx context.Context, resource, resourceID string) ([]domain.ActivityLog, error) {
	entries, err := s.repo.ListByResource(ctx, resource, resourceID)
	if err != nil {
		return nil, fmt.Errorf("resource history: %w", err)
	}
	return entries, nil
}
