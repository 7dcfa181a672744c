package port

import (
	"context"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
)

// RoleRepository persists roles.
type RoleRepository interface {
	Create(ctx context.Context, role domain.Role) error
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Delete(ctx context.Context, id string) error
}
