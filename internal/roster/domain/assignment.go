package domain

// Assignment links an instructor to an activity session. An instructor must be
// assigned before any lifecycle or tracking action on the session succeeds.
type Assignment struct {
	SessionID string
	UserID    string
}
