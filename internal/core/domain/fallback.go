package domain

// Denial reasons shared by the resolver and the fallback policy.
const (
	ReasonOverrideDenied = "Permission denied by user-specific configuration"
	ReasonRuleDenied     = "You don't have permission to perform this action"
	ReasonAdminOnly      = "Only administrators can perform this action"
	ReasonSectionDenied  = "You don't have permission to access this section"
	ReasonUnknownRole    = "Unrecognized role"
)

// RoleDefaults describes the fallback behaviour for one role: a default
// effect plus an exception list that wins over the default.
type RoleDefaults struct {
	Default    bool
	DenyReason string
	Exceptions []OverrideEntry
}

// FallbackPolicy is the data-driven default-permission table consulted when
// neither an override entry nor a role rule matches. Roles absent from the
// table are denied with ReasonUnknownRole.
type FallbackPolicy struct {
	Roles map[string]RoleDefaults
}

// Decide evaluates the fallback table for a (role, resource, action) tuple.
func (p FallbackPolicy) Decide(role, resource, action string) Decision {
	defaults, ok := p.Roles[role]
	if !ok {
		return Deny(ReasonUnknownRole)
	}

	for _, e := range defaults.Exceptions {
		if !matches(e.Resource, resource) || !matches(e.Action, action) {
			continue
		}
		if e.Allowed {
			return Allow()
		}
		return Deny(defaults.DenyReason)
	}

	if defaults.Default {
		return Allow()
	}
	return Deny(defaults.DenyReason)
}

func matches(pattern, value string) bool {
	return pattern == "*" || pattern == value
}

// DefaultFallbackPolicy returns the built-in table for the seeded system
// roles. Administrators are allowed everything; managers are allowed
// everything except administration surfaces; agents get an explicit
// allow-list and are denied otherwise.
func DefaultFallbackPolicy() FallbackPolicy {
	managerDenied := []OverrideEntry{
		{Resource: "stores", Action: "create"},
		{Resource: "stores", Action: "delete"},
		{Resource: "systemSettings", Action: "edit"},
		{Resource: "permissions", Action: "*"},
		{Resource: "roles", Action: "create"},
		{Resource: "roles", Action: "edit"},
		{Resource: "roles", Action: "delete"},
		{Resource: "webhooks", Action: "*"},
		{Resource: "webhookSettings", Action: "*"},
	}

	agentAllowed := []OverrideEntry{
		{Resource: "customers", Action: "list", Allowed: true},
		{Resource: "customers", Action: "show", Allowed: true},
		{Resource: "customers", Action: "view", Allowed: true},
		{Resource: "customers", Action: "create", Allowed: true},
		{Resource: "customers", Action: "edit", Allowed: true},
		{Resource: "subscriptions", Action: "list", Allowed: true},
		{Resource: "subscriptions", Action: "show", Allowed: true},
		{Resource: "subscriptions", Action: "view", Allowed: true},
		{Resource: "sales", Action: "list", Allowed: true},
		{Resource: "sales", Action: "show", Allowed: true},
		{Resource: "sales", Action: "create", Allowed: true},
		{Resource: "calls", Action: "list", Allowed: true},
		{Resource: "calls", Action: "show", Allowed: true},
		{Resource: "calls", Action: "create", Allowed: true},
		{Resource: "calls", Action: "edit", Allowed: true},
		{Resource: "evaluations", Action: "list", Allowed: true},
		{Resource: "evaluations", Action: "show", Allowed: true},
		{Resource: "evaluations", Action: "create", Allowed: true},
		{Resource: "scripts", Action: "list", Allowed: true},
		{Resource: "scripts", Action: "show", Allowed: true},
	}

	return FallbackPolicy{
		Roles: map[string]RoleDefaults{
			"admin": {
				Default: true,
			},
			"manager": {
				Default:    true,
				DenyReason: ReasonAdminOnly,
				Exceptions: managerDenied,
			},
			"agent": {
				Default:    false,
				DenyReason: ReasonSectionDenied,
				Exceptions: agentAllowed,
			},
		},
	}
}
