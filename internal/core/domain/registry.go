package domain

// ResourceDef declares a protected resource: its registry name, the label
// shown in navigation, the menu group it belongs to, and the actions it
// supports. The registry drives batch resolution and menu construction.
type ResourceDef struct {
	Name    string
	Label   string
	Group   string
	Actions []string
}

var crudActions = []string{"list", "show", "view", "create", "edit", "delete"}

// Registry returns the static ordered resource registry. Order here is the
// order navigation entries appear in.
func Registry() []ResourceDef {
	return []ResourceDef{
		{Name: "customers", Label: "Customers", Group: "CRM", Actions: crudActions},
		{Name: "subscriptions", Label: "Subscriptions", Group: "CRM", Actions: crudActions},
		{Name: "sales", Label: "Sales", Group: "CRM", Actions: crudActions},
		{Name: "calls", Label: "Calls", Group: "CRM", Actions: crudActions},
		{Name: "campaigns", Label: "Campaigns", Group: "Marketing", Actions: crudActions},
		{Name: "scripts", Label: "Call Scripts", Group: "Marketing", Actions: crudActions},
		{Name: "employees", Label: "Employees", Group: "Workforce", Actions: crudActions},
		{Name: "evaluations", Label: "Evaluations", Group: "Workforce", Actions: crudActions},
		{Name: "commissions", Label: "Commissions", Group: "Workforce", Actions: []string{"list", "show", "view"}},
		{Name: "stores", Label: "Stores", Group: "Administration", Actions: crudActions},
		{Name: "activityLogs", Label: "Activity Logs", Group: "Administration", Actions: []string{"list", "show", "view"}},
		{Name: "webhooks", Label: "Webhooks", Group: "Administration", Actions: []string{"list", "show", "view", "edit"}},
		{Name: "webhookSettings", Label: "Webhook Settings", Group: "Administration", Actions: crudActions},
		{Name: "permissions", Label: "Permissions", Group: "Administration", Actions: []string{"list", "view", "create", "edit", "delete"}},
		{Name: "roles", Label: "Roles", Group: "Administration", Actions: crudActions},
		{Name: "systemSettings", Label: "System Settings", Group: "Administration", Actions: []string{"view", "edit"}},
	}
}
