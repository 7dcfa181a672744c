package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Roles          *RoleRepository
	Rules          *PermissionRuleRepository
	Overrides      *OverrideRepository
	ActivityLogs   *ActivityLogRepository
	Webhooks       *WebhookRepository
	WebhookConfigs *WebhookConfigRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Roles:          NewRoleRepository(pool),
		Rules:          NewPermissionRuleRepository(pool),
		Overrides:      NewOverrideRepository(pool),
		ActivityLogs:   NewActivityLogRepository(pool),
		Webhooks:       NewWebhookRepository(pool),
		WebhookConfigs: NewWebhookConfigRepository(pool),
	}
}
