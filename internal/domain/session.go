package domain

import "time"

// Session represents a conversation thread tracked via a browser cookie.
// The JSON field names match the cookie payload written by the web client,
// so existing cookies keep parsing.
type Session struct {
	SessionID string    `json:"sessionId"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionGroups partitions live sessions by wall-clock age, each bucket
// ordered most-recent-first. Derived on demand, never persisted.
type SessionGroups struct {
	Today     []Session `json:"today"`
	Past7Days []Session `json:"past7Days"`
	Older     []Session `json:"older"`
}

// Status is the request lifecycle state exposed to the UI
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// CookieStore abstracts the browser cookie jar. Implementations must treat
// names as unique keys and drop expired entries on read.
type CookieStore interface {
	Set(name, value string, ttl time.Duration)
	Get(name string) (string, bool)
	Names() []string
	Delete(name string)
}

// Navigator receives navigation intents from the session state machine.
// The state machine never navigates itself; a collaborator turns intents
// into route changes.
type Navigator interface {
	NavigateToSession(sessionID string)
	NavigateHome()
}
