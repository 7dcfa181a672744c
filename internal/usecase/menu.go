package usecase

import (
	"context"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
)

// menuActions are the actions that make a resource navigable: seeing any
// of these grants a menu entry.
var menuActions = []string{"list", "view", "show", "create"}

// MenuEntry is one navigable resource in the admin menu.
type MenuEntry struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// MenuGroup is an ordered group of navigable entries. Groups with no
// visible child are omitted entirely.
type MenuGroup struct {
	Label   string      `json:"label"`
	Entries []MenuEntry `json:"entries"`
}

// MenuGate derives navigation and route access from the permission
// resolver, so menu visibility and route gating can never diverge.
type MenuGate struct {
	resolver *PermissionResolver
}

// NewMenuGate constructs a gate over the resolver.
func NewMenuGate(resolver *PermissionResolver) *MenuGate {
	return &MenuGate{resolver: resolver}
}

// BuildMenu produces the ordered menu tree for the session, driven by the
// resource registry and the batch resolution output.
func (g *MenuGate) BuildMenu(ctx context.Context, session domain.Session) []MenuGroup {
	grants := g.resolver.ResolveAll(ctx, session)

	allowed := make(map[string]map[string]bool)
	for _, grant := range grants {
		if !grant.Allowed {
			continue
		}
		if allowed[grant.Resource] == nil {
			allowed[grant.Resource] = make(map[string]bool)
		}
		allowed[grant.Resource][grant.Action] = true
	}

	var groups []MenuGroup
	groupIndex := make(map[string]int)

	for _, res := range g.resolver.Registry() {
		if !visible(allowed[res.Name]) {
			continue
		}

		entry := MenuEntry{Name: res.Name, Label: res.Label}

		idx, ok := groupIndex[res.Group]
		if !ok {
			groups = append(groups, MenuGroup{Label: res.Group})
			idx = len(groups) - 1
			groupIndex[res.Group] = idx
		}
		groups[idx].Entries = append(groups[idx].Entries, entry)
	}

	return groups
}

// CanRoute re-checks access for a single route using the same resolver
// that built the menu.
func (g *MenuGate) CanRoute(ctx context.Context, session domain.Session, resource, action string) domain.Decision {
	return g.resolver.Evaluate(ctx, session, resource, action)
}

func visible(actions map[string]bool) bool {
	for _, action := range menuActions {
		if actions[action] {
			return true
		}
	}
	return false
}
