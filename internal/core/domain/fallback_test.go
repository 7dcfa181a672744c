package domain

import "testing"

func TestFallbackPolicy_Decide(t *testing.T) {
	policy := DefaultFallbackPolicy()

	tests := []struct {
		name     string
		role     string
		resource string
		action   string
		allowed  bool
		reason   string
	}{
		{name: "admin allowed everywhere", role: "admin", resource: "systemSettings", action: "edit", allowed: true},
		{name: "admin allowed on unknown resource", role: "admin", resource: "nonexistent", action: "delete", allowed: true},
		{name: "manager allowed on crm", role: "manager", resource: "customers", action: "edit", allowed: true},
		{name: "manager denied store creation", role: "manager", resource: "stores", action: "create", allowed: false, reason: ReasonAdminOnly},
		{name: "manager denied all permission actions", role: "manager", resource: "permissions", action: "list", allowed: false, reason: ReasonAdminOnly},
		{name: "manager denied webhook wildcard", role: "manager", resource: "webhooks", action: "show", allowed: false, reason: ReasonAdminOnly},
		{name: "manager allowed role listing", role: "manager", resource: "roles", action: "list", allowed: true},
		{name: "agent allowed customer listing", role: "agent", resource: "customers", action: "list", allowed: true},
		{name: "agent allowed call creation", role: "agent", resource: "calls", action: "create", allowed: true},
		{name: "agent denied customer deletion", role: "agent", resource: "customers", action: "delete", allowed: false, reason: ReasonSectionDenied},
		{name: "agent denied stores", role: "agent", resource: "stores", action: "list", allowed: false, reason: ReasonSectionDenied},
		{name: "agent denied system settings", role: "agent", resource: "systemSettings", action: "view", allowed: false, reason: ReasonSectionDenied},
		{name: "unknown role denied", role: "visitor", resource: "customers", action: "list", allowed: false, reason: ReasonUnknownRole},
		{name: "empty role denied", role: "", resource: "customers", action: "list", allowed: false, reason: ReasonUnknownRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := policy.Decide(tt.role, tt.resource, tt.action)
			if decision.Allowed != tt.allowed {
				t.Fatalf("expected allowed=%v, got %v", tt.allowed, decision.Allowed)
			}
			if !tt.allowed && decision.Reason != tt.reason {
				t.Errorf("expected reason %q, got %q", tt.reason, decision.Reason)
			}
			if tt.allowed && decision.Reason != "" {
				t.Errorf("expected empty reason on allow, got %q", decision.Reason)
			}
		})
	}
}

func TestPermissionOverride_Entry(t *testing.T) {
	override := &PermissionOverride{
		UserID: "user-1",
		Entries: []OverrideEntry{
			{Resource: "customers", Action: "delete", Allowed: true},
			{Resource: "sales", Action: "create", Allowed: false},
		},
	}

	entry, ok := override.Entry("customers", "delete")
	if !ok || !entry.Allowed {
		t.Fatalf("expected allowing entry for customers/delete, got %+v ok=%v", entry, ok)
	}

	if _, ok := override.Entry("customers", "edit"); ok {
		t.Error("expected no entry for customers/edit")
	}

	var nilOverride *PermissionOverride
	if _, ok := nilOverride.Entry("customers", "delete"); ok {
		t.Error("expected nil override to match nothing")
	}
}

func TestRegistry_GroupsAndOrder(t *testing.T) {
	registry := Registry()
	if len(registry) == 0 {
		t.Fatal("expected non-empty registry")
	}

	if registry[0].Name != "customers" {
		t.Errorf("expected customers first, got %s", registry[0].Name)
	}

	seen := make(map[string]bool)
	for _, res := range registry {
		if res.Name == "" || res.Label == "" || res.Group == "" {
			t.Errorf("incomplete resource definition: %+v", res)
		}
		if len(res.Actions) == 0 {
			t.Errorf("resource %s has no actions", res.Name)
		}
		if seen[res.Name] {
			t.Errorf("duplicate resource %s", res.Name)
		}
		seen[res.Name] = true
	}

	if !seen["stores"] || !seen["webhooks"] || !seen["activityLogs"] {
		t.Error("expected administration resources in registry")
	}
}
