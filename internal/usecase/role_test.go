package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/repository"
)

type roleRepoMock struct {
	roles     map[string]domain.Role
	createErr error
	deleteErr error
	listErr   error
}

func (m *roleRepoMock) Create(_ context.Context, role domain.Role) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.roles == nil {
		m.roles = make(map[string]domain.Role)
	}
	m.roles[role.ID] = role
	return nil
}

func (m *roleRepoMock) GetByID(_ context.Context, id string) (*domain.Role, error) {
	if role, ok := m.roles[id]; ok {
		return &role, nil
	}
	return nil, repository.ErrNotFound
}

func (m *roleRepoMock) GetByName(_ context.Context, name string) (*domain.Role, error) {
	for _, role := range m.roles {
		if role.Name == name {
			return &role, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *roleRepoMock) List(_ context.Context) ([]domain.Role, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	roles := make([]domain.Role, 0, len(m.roles))
	for _, role := range m.roles {
		roles = append(roles, role)
	}
	return roles, nil
}

func (m *roleRepoMock) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.roles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.roles, id)
	return nil
}

type adminFixture struct {
	service   *RoleAdminService
	roles     *roleRepoMock
	rules     *ruleRepoMock
	overrides *overrideRepoMock
	cache     *decisionCacheMock
	audit     *activityRepoMock
	recorder  *ActivityRecorder
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	roles := &roleRepoMock{}
	rules := &ruleRepoMock{}
	overrides := &overrideRepoMock{}
	cache := &decisionCacheMock{}
	audit := &activityRepoMock{}

	logger := zaptest.NewLogger(t)
	resolver := NewPermissionResolver(overrides, rules, domain.DefaultFallbackPolicy(), logger)
	recorder := NewActivityRecorder(audit, nil, logger, RecorderOptions{QueueSize: 32})

	service := NewRoleAdminService(roles, rules, overrides, resolver, recorder, logger).
		WithDecisionCache(cache)

	return &adminFixture{
		service:   service,
		roles:     roles,
		rules:     rules,
		overrides: overrides,
		cache:     cache,
		audit:     audit,
		recorder:  recorder,
	}
}

func (f *adminFixture) auditEntries(t *testing.T) []domain.ActivityLog {
	t.Helper()
	drainRecorder(t, f.recorder)
	return f.audit.stored()
}

func TestRoleAdminService_CreateRole(t *testing.T) {
	f := newAdminFixture(t)

	role, err := f.service.CreateRole(context.Background(), adminSession(), CreateRoleInput{
		Name:        "supervisor",
		DisplayName: "Supervisor",
	})
	if err != nil {
		t.Fatalf("CreateRole failed: %v", err)
	}

	if role.ID != domain.RoleRuleID("supervisor") {
		t.Errorf("expected derived role id, got %s", role.ID)
	}
	if role.IsSystem {
		t.Error("expected custom roles to be non-system")
	}

	entries := f.auditEntries(t)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one audit entry, got %d", len(entries))
	}
	if entries[0].Action != domain.ActionCreate || entries[0].Resource != "roles" {
		t.Errorf("unexpected audit entry %s/%s", entries[0].Action, entries[0].Resource)
	}
}

func TestRoleAdminService_CreateRole_Denied(t *testing.T) {
	f := newAdminFixture(t)

	_, err := f.service.CreateRole(context.Background(), agentSession(), CreateRoleInput{Name: "supervisor"})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	if len(f.auditEntries(t)) != 0 {
		t.Error("expected no audit entry for a denied operation")
	}
}

func TestRoleAdminService_CreateRole_Duplicate(t *testing.T) {
	f := newAdminFixture(t)
	f.roles.roles = map[string]domain.Role{
		"role-supervisor": {ID: "role-supervisor", Name: "supervisor"},
	}

	_, err := f.service.CreateRole(context.Background(), adminSession(), CreateRoleInput{Name: "supervisor"})
	if !errors.Is(err, ErrRoleExists) {
		t.Fatalf("expected ErrRoleExists, got %v", err)
	}
}

func TestRoleAdminService_DeleteRole_ProtectsSystemRoles(t *testing.T) {
	f := newAdminFixture(t)
	f.roles.roles = map[string]domain.Role{
		"role-admin": {ID: "role-admin", Name: "admin", IsSystem: true},
	}

	err := f.service.DeleteRole(context.Background(), adminSession(), "role-admin")
	if !errors.Is(err, ErrSystemRole) {
		t.Fatalf("expected ErrSystemRole, got %v", err)
	}
	if _, ok := f.roles.roles["role-admin"]; !ok {
		t.Error("expected system role to remain")
	}
}

func TestRoleAdminService_DeleteRole_RemovesRules(t *testing.T) {
	f := newAdminFixture(t)
	f.roles.roles = map[string]domain.Role{
		"role-supervisor": {ID: "role-supervisor", Name: "supervisor"},
	}
	f.rules.rules = map[ruleKey]domain.PermissionRule{
		{"role-supervisor", "customers", "edit"}: {RoleID: "role-supervisor", Resource: "customers", Action: "edit", Allowed: true},
	}

	if err := f.service.DeleteRole(context.Background(), adminSession(), "role-supervisor"); err != nil {
		t.Fatalf("DeleteRole failed: %v", err)
	}

	if len(f.rules.rules) != 0 {
		t.Error("expected role rules removed with the role")
	}
	if f.cache.allInvalidated != 1 {
		t.Errorf("expected one global cache invalidation, got %d", f.cache.allInvalidated)
	}
}

func TestRoleAdminService_SetRule_UpsertsAndInvalidates(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	input := SetRuleInput{RoleID: "role-agent", Resource: "campaigns", Action: "list", Allowed: true}
	if err := f.service.SetRule(ctx, adminSession(), input); err != nil {
		t.Fatalf("SetRule failed: %v", err)
	}

	input.Allowed = false
	if err := f.service.SetRule(ctx, adminSession(), input); err != nil {
		t.Fatalf("SetRule repeat failed: %v", err)
	}

	if len(f.rules.rules) != 1 {
		t.Fatalf("expected one rule after upsert, got %d", len(f.rules.rules))
	}
	rule := f.rules.rules[ruleKey{"role-agent", "campaigns", "list"}]
	if rule.Allowed {
		t.Error("expected second write to replace the rule effect")
	}
	if f.cache.allInvalidated != 2 {
		t.Errorf("expected cache invalidated per write, got %d", f.cache.allInvalidated)
	}

	entries := f.auditEntries(t)
	if len(entries) != 2 {
		t.Errorf("expected one audit entry per write, got %d", len(entries))
	}
}

func TestRoleAdminService_SetOverride_ReplacesBundle(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	first := SetOverrideInput{
		UserID: "user-7",
		Reason: "temporary elevation",
		Entries: []domain.OverrideEntry{
			{Resource: "stores", Action: "list", Allowed: true},
			{Resource: "stores", Action: "show", Allowed: true},
		},
	}
	if _, err := f.service.SetOverride(ctx, adminSession(), first); err != nil {
		t.Fatalf("SetOverride failed: %v", err)
	}

	second := SetOverrideInput{
		UserID: "user-7",
		Entries: []domain.OverrideEntry{
			{Resource: "customers", Action: "delete", Allowed: false},
		},
	}
	if _, err := f.service.SetOverride(ctx, adminSession(), second); err != nil {
		t.Fatalf("SetOverride replace failed: %v", err)
	}

	stored := f.overrides.overrides["user-7"]
	if len(stored.Entries) != 1 || stored.Entries[0].Resource != "customers" {
		t.Errorf("expected second bundle to fully replace the first, got %+v", stored.Entries)
	}
	if len(f.cache.userInvalidated) != 2 {
		t.Errorf("expected per-user invalidation per write, got %v", f.cache.userInvalidated)
	}
}

func TestRoleAdminService_SetOverride_Validation(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	cases := []SetOverrideInput{
		{UserID: "", Entries: []domain.OverrideEntry{{Resource: "customers", Action: "list", Allowed: true}}},
		{UserID: "user-7"},
		{UserID: "user-7", Entries: []domain.OverrideEntry{{Resource: "", Action: "list"}}},
		{UserID: "user-7", Entries: []domain.OverrideEntry{
			{Resource: "stores", Action: "delete", Allowed: true},
			{Resource: "stores", Action: "delete", Allowed: true},
		}},
	}
	for i, input := range cases {
		if _, err := f.service.SetOverride(ctx, adminSession(), input); !errors.Is(err, ErrInvalidOverride) {
			t.Errorf("case %d: expected ErrInvalidOverride, got %v", i, err)
		}
	}
}

func TestRoleAdminService_SetOverride_RejectsConflictingDuplicates(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	_, err := f.service.SetOverride(ctx, adminSession(), SetOverrideInput{
		UserID: "user-7",
		Entries: []domain.OverrideEntry{
			{Resource: "stores", Action: "delete", Allowed: true},
			{Resource: "stores", Action: "delete", Allowed: false},
		},
	})
	if !errors.Is(err, ErrInvalidOverride) {
		t.Fatalf("expected ErrInvalidOverride for conflicting entries, got %v", err)
	}
	if len(f.overrides.replaced) != 0 {
		t.Errorf("expected no override written, got %d writes", len(f.overrides.replaced))
	}

	resolver := NewPermissionResolver(f.overrides, f.rules, domain.DefaultFallbackPolicy(), zaptest.NewLogger(t))
	if decision := resolver.Evaluate(ctx, agentSession(), "stores", "delete"); decision.Allowed {
		t.Error("rejected bundle must not grant the permission")
	}
}

func TestRoleAdminService_GetAndClearOverride(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	f.overrides.overrides = map[string]domain.PermissionOverride{
		"user-7": {ID: "ov-1", UserID: "user-7", Entries: []domain.OverrideEntry{
			{Resource: "stores", Action: "list", Allowed: true},
		}},
	}

	override, err := f.service.GetOverride(ctx, adminSession(), "user-7")
	if err != nil {
		t.Fatalf("GetOverride failed: %v", err)
	}
	if override.ID != "ov-1" {
		t.Errorf("unexpected override %+v", override)
	}

	if err := f.service.ClearOverride(ctx, adminSession(), "user-7"); err != nil {
		t.Fatalf("ClearOverride failed: %v", err)
	}
	if _, err := f.service.GetOverride(ctx, adminSession(), "user-7"); !errors.Is(err, ErrOverrideNotFound) {
		t.Errorf("expected ErrOverrideNotFound after clear, got %v", err)
	}
	if err := f.service.ClearOverride(ctx, adminSession(), "user-7"); !errors.Is(err, ErrOverrideNotFound) {
		t.Errorf("expected ErrOverrideNotFound on repeat clear, got %v", err)
	}
}

func TestRoleAdminService_OverrideChangesResolverOutcome(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	resolver := NewPermissionResolver(f.overrides, f.rules, domain.DefaultFallbackPolicy(), zaptest.NewLogger(t))

	if decision := resolver.Evaluate(ctx, agentSession(), "stores", "list"); decision.Allowed {
		t.Fatal("expected agent denied before override")
	}

	_, err := f.service.SetOverride(ctx, adminSession(), SetOverrideInput{
		UserID:  "user-7",
		Entries: []domain.OverrideEntry{{Resource: "stores", Action: "list", Allowed: true}},
	})
	if err != nil {
		t.Fatalf("SetOverride failed: %v", err)
	}

	if decision := resolver.Evaluate(ctx, agentSession(), "stores", "list"); !decision.Allowed {
		t.Errorf("expected agent allowed after override, got %q", decision.Reason)
	}
}
