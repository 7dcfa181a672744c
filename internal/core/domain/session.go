package domain

// Session is the authenticated identity a request acts as. It is passed
// explicitly into the resolver and the activity recorder so tests can run
// multiple simulated identities side by side.
type Session struct {
	UserID string
	Email  string
	Name   string
	Role   string
}
