package domain

import "time"

// ActionType enumerates the auditable operation kinds.
type ActionType string

const (
	ActionCreate       ActionType = "create"
	ActionUpdate       ActionType = "update"
	ActionDelete       ActionType = "delete"
	ActionView         ActionType = "view"
	ActionLogin        ActionType = "login"
	ActionLogout       ActionType = "logout"
	ActionExport       ActionType = "export"
	ActionImport       ActionType = "import"
	ActionSync         ActionType = "sync"
	ActionStatusChange ActionType = "status_change"
)

// ActivityLog is one append-only audit record: who did what to which
// resource and when. Details and Metadata are deliberately open payloads;
// their shape varies by action kind.
type ActivityLog struct {
	ID         string
	UserID     string
	UserEmail  string
	UserName   string
	Action     ActionType
	Resource   string
	ResourceID *string
	Details    map[string]any
	Metadata   map[string]any
	Timestamp  time.Time
}
