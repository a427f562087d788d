package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mammyai/chat-gateway/internal/domain"
	"github.com/mammyai/chat-gateway/internal/repository/cookie"
	"github.com/mammyai/chat-gateway/internal/service"
)

// NavigationIntent tells the UI where to go after an operation
type NavigationIntent struct {
	Route string `json:"route"`
}

// intentRecorder captures navigation intents emitted by the state machine
// so the handler can return them to the UI. Implements domain.Navigator.
type intentRecorder struct {
	mu     sync.Mutex
	intent *NavigationIntent
}

func (n *intentRecorder) NavigateToSession(sessionID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.intent = &NavigationIntent{Route: "/c/" + sessionID}
}

func (n *intentRecorder) NavigateHome() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.intent = &NavigationIntent{Route: "/"}
}

// Take drains the pending intent
func (n *intentRecorder) Take() *NavigationIntent {
	n.mu.Lock()
	defer n.mu.Unlock()
	intent := n.intent
	n.intent = nil
	return intent
}

// UserState is the per-user slice of server state: the cookie jar mirror,
// the navigation recorder, and the chat state machine.
type UserState struct {
	Jar  *cookie.Jar
	Chat *service.ChatService
	nav  *intentRecorder
}

// Flush writes pending cookie mutations to the response
func (s *UserState) Flush(w http.ResponseWriter) {
	for _, c := range s.Jar.TakePending() {
		http.SetCookie(w, c)
	}
}

// TakeNavigation drains the pending navigation intent
func (s *UserState) TakeNavigation() *NavigationIntent {
	return s.nav.Take()
}

const (
	// userStateIdleTTL bounds how long an idle user's server-side mirror is
	// kept; the browser's cookies rebuild it on the next request.
	userStateIdleTTL = 30 * time.Minute
	sweepInterval    = time.Minute
)

type userEntry struct {
	state    *UserState
	lastSeen time.Time
}

// StateManager hands out one chat state machine per anonymous user
type StateManager struct {
	mu        sync.Mutex
	users     map[string]*userEntry
	transport domain.AgentTransport
	opts      service.Options
	lastSweep time.Time
	now       func() time.Time
}

// NewStateManager creates a manager wiring new state machines to transport
func NewStateManager(transport domain.AgentTransport, opts service.Options) *StateManager {
	if opts.UserCookieName == "" {
		opts.UserCookieName = service.UserCookieName
	}
	if opts.SessionTTLDays <= 0 {
		opts.SessionTTLDays = service.DefaultSessionTTLDays
	}
	return &StateManager{
		users:     make(map[string]*userEntry),
		transport: transport,
		opts:      opts,
		now:       time.Now,
	}
}

// Acquire resolves the request's user state, minting an anonymous identity
// when the user cookie is absent, and syncs the jar with the request's
// cookies. The browser remains the authoritative cookie store.
func (m *StateManager) Acquire(r *http.Request) *UserState {
	userID := ""
	if c, err := r.Cookie(m.opts.UserCookieName); err == nil {
		userID = c.Value
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictIdleLocked()

	if userID == "" {
		userID = uuid.NewString()
	}

	ent, ok := m.users[userID]
	if !ok {
		jar := cookie.NewJar()
		jar.Set(m.opts.UserCookieName, userID, time.Duration(m.opts.SessionTTLDays)*24*time.Hour)

		nav := &intentRecorder{}
		ent = &userEntry{state: &UserState{
			Jar:  jar,
			Chat: service.NewChatService(m.transport, jar, nav, m.opts),
			nav:  nav,
		}}
		m.users[userID] = ent
	}
	ent.lastSeen = m.now()

	ent.state.Jar.ImportRequest(r)
	return ent.state
}

// evictIdleLocked drops user states idle past the TTL, at most once per
// sweep interval. Evicted users lose nothing durable; their cookies mint a
// fresh state on the next request.
func (m *StateManager) evictIdleLocked() {
	now := m.now()
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now

	for id, ent := range m.users {
		if now.Sub(ent.lastSeen) > userStateIdleTTL {
			delete(m.users, id)
		}
	}
}
