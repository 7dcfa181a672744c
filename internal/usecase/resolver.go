package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
	"github.com/luiso2/sleep-admin-service/internal/repository"
)

// PermissionResolver answers allow/deny questions for an identity. The
// decision order is fixed: user override entry, then role rule, then the
// fallback policy table. Store failures degrade to the fallback table so a
// broken backend can never lock administrators out.
type PermissionResolver struct {
	overrides port.OverrideRepository
	rules     port.PermissionRuleRepository
	fallback  domain.FallbackPolicy
	registry  []domain.ResourceDef
	cache     port.DecisionCache
	logger    *zap.Logger
}

// NewPermissionResolver constructs a resolver over the given stores.
func NewPermissionResolver(overrides port.OverrideRepository, rules port.PermissionRuleRepository, fallback domain.FallbackPolicy, logger *zap.Logger) *PermissionResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionResolver{
		overrides: overrides,
		rules:     rules,
		fallback:  fallback,
		registry:  domain.Registry(),
		logger:    logger,
	}
}

// WithDecisionCache enables caching of batch resolutions.
func (r *PermissionResolver) WithDecisionCache(cache port.DecisionCache) *PermissionResolver {
	r.cache = cache
	return r
}

// WithRegistry replaces the resource registry, primarily for tests.
func (r *PermissionResolver) WithRegistry(registry []domain.ResourceDef) *PermissionResolver {
	r.registry = registry
	return r
}

// Registry exposes the resource registry the resolver iterates.
func (r *PermissionResolver) Registry() []domain.ResourceDef {
	return r.registry
}

// Evaluate resolves a single (resource, action) check for the session.
// It never returns an error: degraded stores fall through to the fallback
// table as if no rows existed.
func (r *PermissionResolver) Evaluate(ctx context.Context, session domain.Session, resource, action string) domain.Decision {
	override, err := r.overrides.GetByUser(ctx, session.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		r.logger.Warn("override lookup failed, falling through to role rules",
			zap.String("user_id", session.UserID),
			zap.Error(err),
		)
	}
	if entry, ok := override.Entry(resource, action); ok {
		if entry.Allowed {
			return domain.Allow()
		}
		return domain.Deny(domain.ReasonOverrideDenied)
	}

	rule, err := r.rules.Find(ctx, domain.RoleRuleID(session.Role), resource, action)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		r.logger.Warn("rule lookup failed, falling through to defaults",
			zap.String("role", session.Role),
			zap.String("resource", resource),
			zap.Error(err),
		)
	}
	if rule != nil {
		if rule.Allowed {
			return domain.Allow()
		}
		return domain.Deny(domain.ReasonRuleDenied)
	}

	return r.fallback.Decide(session.Role, resource, action)
}

// ResolveAll evaluates every (resource, action) pair in the registry for
// the session. Results are cached per identity when a cache is attached;
// cache failures are logged and bypassed.
func (r *PermissionResolver) ResolveAll(ctx context.Context, session domain.Session) []domain.ResolvedPermission {
	if r.cache != nil {
		grants, ok, err := r.cache.Lookup(ctx, session.UserID, session.Role)
		if err != nil {
			r.logger.Warn("decision cache lookup failed", zap.Error(err))
		} else if ok {
			return grants
		}
	}

	var grants []domain.ResolvedPermission
	for _, res := range r.registry {
		for _, action := range res.Actions {
			decision := r.Evaluate(ctx, session, res.Name, action)
			grants = append(grants, domain.ResolvedPermission{
				Resource: res.Name,
				Action:   action,
				Allowed:  decision.Allowed,
			})
		}
	}

	if r.cache != nil {
		if err := r.cache.Store(ctx, session.UserID, session.Role, grants); err != nil {
			r.logger.Warn("decision cache store failed", zap.Error(err))
		}
	}

	return grants
}

// CanAny reports whether any of the listed actions on the resource is
// allowed for the session.
func (r *PermissionResolver) CanAny(ctx context.Context, session domain.Session, resource string, actions []string) bool {
	for _, action := range actions {
		if r.Evaluate(ctx, session, resource, action).Allowed {
			return true
		}
	}
	return false
}
