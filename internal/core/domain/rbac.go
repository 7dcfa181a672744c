package domain

import "time"

// Role groups default permissions for a user category.
type Role struct {
	ID          string
	Name        string
	DisplayName string
	Description *string
	IsSystem    bool
}

// PermissionRule is a single allow/deny fact for a (role, resource, action)
// triple. At most one rule exists per triple; writes use upsert semantics.
type PermissionRule struct {
	ID       string
	RoleID   string
	Resource string
	Action   string
	Allowed  bool
}

// OverrideEntry is one per-user exception layered on top of role rules.
type OverrideEntry struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Allowed  bool   `json:"allowed"`
}

// PermissionOverride bundles per-user exceptions. A user has at most one
// bundle; writing a new one replaces the previous bundle.
type PermissionOverride struct {
	ID        string
	UserID    string
	Reason    string
	Entries   []OverrideEntry
	CreatedAt time.Time
	CreatedBy string
}

// Entry returns the override entry matching resource and action, if any.
func (o *PermissionOverride) Entry(resource, action string) (OverrideEntry, bool) {
	if o == nil {
		return OverrideEntry{}, false
	}
	for _, e := range o.Entries {
		if e.Resource == resource && e.Action == action {
			return e, true
		}
	}
	return OverrideEntry{}, false
}

// Decision is the outcome of a permission check. It is always a value,
// never an error: a degraded backend produces a fallback decision.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns a positive decision with no reason attached.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a negative decision carrying a human-readable reason.
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// ResolvedPermission is one element of a batch resolution over the
// resource registry.
type ResolvedPermission struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Allowed  bool   `json:"allowed"`
}

// RoleRuleID derives the rule-level role identifier from a role name, the
// convention used by the seeded data ("admin" -> "role-admin").
func RoleRuleID(role string) string {
	return "role-" + role
}
