package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
	"github.com/luiso2/sleep-admin-service/internal/repository"
)

var (
	// ErrPermissionDenied indicates the acting session lacks the permission.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrRoleExists indicates a role with the provided name already exists.
	ErrRoleExists = errors.New("role already exists")
	// ErrRoleNotFound indicates the role id does not exist.
	ErrRoleNotFound = errors.New("role not found")
	// ErrSystemRole indicates a seeded role cannot be deleted.
	ErrSystemRole = errors.New("system roles cannot be deleted")
	// ErrOverrideNotFound indicates the user has no override bundle.
	ErrOverrideNotFound = errors.New("override not found")
	// ErrInvalidRoleName indicates the role name is empty or malformed.
	ErrInvalidRoleName = errors.New("invalid role name")
	// ErrInvalidOverride indicates the override payload is malformed.
	ErrInvalidOverride = errors.New("invalid override payload")
)

// CreateRoleInput captures the payload for creating a custom role.
type CreateRoleInput struct {
	Name        string
	DisplayName string
	Description *string
}

// SetRuleInput captures a role-level allow/deny write.
type SetRuleInput struct {
	RoleID   string
	Resource string
	Action   string
	Allowed  bool
}

// SetOverrideInput captures a per-user override bundle write.
type SetOverrideInput struct {
	UserID  string
	Reason  string
	Entries []domain.OverrideEntry
}

// RoleAdminService manages roles, permission rules and per-user overrides.
// Every operation is gated through the resolver for the acting session and
// audited through the recorder; rule and override writes invalidate the
// decision cache.
type RoleAdminService struct {
	roles     port.RoleRepository
	rules     port.PermissionRuleRepository
	overrides port.OverrideRepository
	resolver  *PermissionResolver
	recorder  *ActivityRecorder
	cache     port.DecisionCache
	logger    *zap.Logger
}

// NewRoleAdminService constructs the administration service.
func NewRoleAdminService(roles port.RoleRepository, rules port.PermissionRuleRepository, overrides port.OverrideRepository, resolver *PermissionResolver, recorder *ActivityRecorder, logger *zap.Logger) *RoleAdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleAdminService{
		roles:     roles,
		rules:     rules,
		overrides: overrides,
		resolver:  resolver,
		recorder:  recorder,
		logger:    logger,
	}
}

// WithDecisionCache attaches the cache invalidated on permission writes.
func (s *RoleAdminService) WithDecisionCache(cache port.DecisionCache) *RoleAdminService {
	s.cache = cache
	return s
}

// CreateRole provisions a custom role.
func (s *RoleAdminService) CreateRole(ctx context.Context, session domain.Session, input CreateRoleInput) (*domain.Role, error) {
	if decision := s.resolver.Evaluate(ctx, session, "roles", "create"); !decision.Allowed {
		return nil, ErrPermissionDenied
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidRoleName
	}

	if existing, err := s.roles.GetByName(ctx, name); err == nil && existing != nil {
		return nil, ErrRoleExists
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup role by name: %w", err)
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = name
	}

	role := domain.Role{
		ID:          domain.RoleRuleID(name),
		Name:        name,
		DisplayName: displayName,
		IsSystem:    false,
	}

	if input.Description != nil {
		trimmed := strings.TrimSpace(*input.Description)
		if trimmed != "" {
			role.Description = &trimmed
		}
	}

	if err := s.roles.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}

	s.recorder.LogCreate(session, "roles", role.ID, map[string]any{
		"name":        role.Name,
		"displayName": role.DisplayName,
	})

	return &role, nil
}

// DeleteRole removes a custom role and its rules. System roles are
// protected.
func (s *RoleAdminService) DeleteRole(ctx context.Context, session domain.Session, roleID string) error {
	if decision := s.resolver.Evaluate(ctx, session, "roles", "delete"); !decision.Allowed {
		return ErrPermissionDenied
	}

	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("load role: %w", err)
	}
	if role.IsSystem {
		return ErrSystemRole
	}

	if err := s.rules.DeleteByRole(ctx, roleID); err != nil {
		return fmt.Errorf("delete role rules: %w", err)
	}
	if err := s.roles.Delete(ctx, roleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("delete role: %w", err)
	}

	s.invalidateAll(ctx)
	s.recorder.LogDelete(session, "roles", roleID, map[string]any{
		"name":     role.Name,
		"isSystem": role.IsSystem,
	})

	return nil
}

// ListRoles returns every role.
func (s *RoleAdminService) ListRoles(ctx context.Context, session domain.Session) ([]domain.Role, error) {
	if decision := s.resolver.Evaluate(ctx, session, "roles", "list"); !decision.Allowed {
		return nil, ErrPermissionDenied
	}

	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// SetRule upserts one role-level allow/deny fact.
func (s *RoleAdminService) SetRule(ctx context.Context, session domain.Session, input SetRuleInput) error {
	if decision := s.resolver.Evaluate(ctx, session, "permissions", "edit"); !decision.Allowed {
		return ErrPermissionDenied
	}

	if strings.TrimSpace(input.RoleID) == "" || strings.TrimSpace(input.Resource) == "" || strings.TrimSpace(input.Action) == "" {
		return ErrInvalidOverride
	}

	rule := domain.PermissionRule{
		ID:       uuid.NewString(),
		RoleID:   input.RoleID,
		Resource: input.Resource,
		Action:   input.Action,
		Allowed:  input.Allowed,
	}

	if err := s.rules.Upsert(ctx, rule); err != nil {
		return fmt.Errorf("upsert rule: %w", err)
	}

	s.invalidateAll(ctx)
	s.recorder.LogUpdate(session, "permissions", input.RoleID, map[string]any{
		"resource": input.Resource,
		"action":   input.Action,
		"allowed":  input.Allowed,
	}, nil)

	return nil
}

// SetOverride replaces the user's override bundle. Replace-on-write keeps
// a single bundle per user, so the resolver never has to pick between
// competing bundles.
func (s *RoleAdminService) SetOverride(ctx context.Context, session domain.Session, input SetOverrideInput) (*domain.PermissionOverride, error) {
	if decision := s.resolver.Evaluate(ctx, session, "permissions", "edit"); !decision.Allowed {
		return nil, ErrPermissionDenied
	}

	if strings.TrimSpace(input.UserID) == "" || len(input.Entries) == 0 {
		return nil, ErrInvalidOverride
	}
	seen := make(map[string]struct{}, len(input.Entries))
	for _, entry := range input.Entries {
		resource := strings.TrimSpace(entry.Resource)
		action := strings.TrimSpace(entry.Action)
		if resource == "" || action == "" {
			return nil, ErrInvalidOverride
		}
		// A bundle with two entries for the same (resource, action) is
		// self-contradictory: lookup stops at the first match, so the
		// second would never apply. Reject instead of guessing intent.
		key := resource + "/" + action
		if _, dup := seen[key]; dup {
			return nil, ErrInvalidOverride
		}
		seen[key] = struct{}{}
	}

	override := domain.PermissionOverride{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		Reason:    strings.TrimSpace(input.Reason),
		Entries:   input.Entries,
		CreatedAt: time.Now().UTC(),
		CreatedBy: session.UserID,
	}

	if err := s.overrides.Replace(ctx, override); err != nil {
		return nil, fmt.Errorf("replace override: %w", err)
	}

	s.invalidateUser(ctx, input.UserID)
	s.recorder.LogUpdate(session, "permissions", input.UserID, map[string]any{
		"override": input.Entries,
		"reason":   override.Reason,
	}, nil)

	return &override, nil
}

// GetOverride returns the user's override bundle.
func (s *RoleAdminService) GetOverride(ctx context.Context, session domain.Session, userID string) (*domain.PermissionOverride, error) {
	if decision := s.resolver.Evaluate(ctx, session, "permissions", "view"); !decision.Allowed {
		return nil, ErrPermissionDenied
	}

	override, err := s.overrides.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOverrideNotFound
		}
		return nil, fmt.Errorf("load override: %w", err)
	}
	return override, nil
}

// ClearOverride removes the user's override bundle.
func (s *RoleAdminService) ClearOverride(ctx context.Context, session domain.Session, userID string) error {
	if decision := s.resolver.Evaluate(ctx, session, "permissions", "delete"); !decision.Allowed {
		return ErrPermissionDenied
	}

	if err := s.overrides.DeleteByUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOverrideNotFound
		}
		return fmt.Errorf("delete override: %w", err)
	}

	s.invalidateUser(ctx, userID)
	s.recorder.LogDelete(session, "permissions", userID, nil)

	return nil
}

func (s *RoleAdminService) invalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Warn("decision cache invalidation failed", zap.Error(err))
	}
}

func (s *RoleAdminService) invalidateUser(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		s.logger.Warn("decision cache invalidation failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
