package service

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mammyai/chat-gateway/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	// SessionCookiePrefix is shared with the web client; changing it orphans
	// every live session.
	SessionCookiePrefix = "session_"

	// UserCookieName identifies the anonymous user
	UserCookieName = "mammy_user_id"

	// DefaultSessionTTLDays matches the 7-day cookie expiry of the web client
	DefaultSessionTTLDays = 7
)

// SessionRegistry reads and writes per-session cookies and derives the
// age-grouped session list. One cookie per session, named
// "<prefix><sessionId>", value JSON {sessionId, label, createdAt}.
type SessionRegistry struct {
	cookies    domain.CookieStore
	ttlDays    int
	prefix     string
	userCookie string
	now        func() time.Time
}

// NewSessionRegistry creates a registry over the given cookie store.
// Empty prefix and user cookie name fall back to the layout the web
// client shipped with.
func NewSessionRegistry(cookies domain.CookieStore, ttlDays int, prefix, userCookie string) *SessionRegistry {
	if ttlDays <= 0 {
		ttlDays = DefaultSessionTTLDays
	}
	if prefix == "" {
		prefix = SessionCookiePrefix
	}
	if userCookie == "" {
		userCookie = UserCookieName
	}
	return &SessionRegistry{
		cookies:    cookies,
		ttlDays:    ttlDays,
		prefix:     prefix,
		userCookie: userCookie,
		now:        time.Now,
	}
}

// SetSessionCookie writes or overwrites the cookie for a session. A fresh
// createdAt is stamped on every write, as the web client does.
func (r *SessionRegistry) SetSessionCookie(sessionID, label string, ttlDays int) {
	if ttlDays <= 0 {
		ttlDays = r.ttlDays
	}
	value, err := json.Marshal(domain.Session{
		SessionID: sessionID,
		Label:     label,
		CreatedAt: r.now().UTC(),
	})
	if err != nil {
		// a Session of plain strings and a time cannot fail to marshal
		return
	}
	r.cookies.Set(r.prefix+sessionID, string(value), time.Duration(ttlDays)*24*time.Hour)
}

// Session returns the stored session for an id, if its cookie is live and
// parseable.
func (r *SessionRegistry) Session(sessionID string) (domain.Session, bool) {
	raw, ok := r.cookies.Get(r.prefix + sessionID)
	if !ok {
		return domain.Session{}, false
	}
	var s domain.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return domain.Session{}, false
	}
	return s, true
}

// AllSessions scans every live session cookie. Cookies whose value fails to
// parse are skipped; partial corruption never breaks the scan.
func (r *SessionRegistry) AllSessions() []domain.Session {
	var sessions []domain.Session
	for _, name := range r.cookies.Names() {
		if !strings.HasPrefix(name, r.prefix) {
			continue
		}
		raw, ok := r.cookies.Get(name)
		if !ok {
			continue
		}
		var s domain.Session
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			log.Debug().Str("cookie", name).Msg("skipping malformed session cookie")
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions
}

// DeleteSession expires the session cookie immediately
func (r *SessionRegistry) DeleteSession(sessionID string) {
	r.cookies.Delete(r.prefix + sessionID)
}

// SessionGroups derives the grouped view of all live sessions
func (r *SessionRegistry) SessionGroups() domain.SessionGroups {
	return GroupByAge(r.AllSessions(), r.now())
}

// EnsureUserID returns the anonymous user id, minting and storing one when
// the cookie is absent.
func (r *SessionRegistry) EnsureUserID() string {
	if id, ok := r.cookies.Get(r.userCookie); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	r.cookies.Set(r.userCookie, id, time.Duration(r.ttlDays)*24*time.Hour)
	return id
}

// GroupByAge partitions sessions by age at the given instant: under one day
// old into Today, under seven into Past7Days, the rest into Older. Exact
// one-day and seven-day ages land in the older bucket. Buckets are ordered
// most-recent-first.
func GroupByAge(sessions []domain.Session, now time.Time) domain.SessionGroups {
	groups := domain.SessionGroups{
		Today:     []domain.Session{},
		Past7Days: []domain.Session{},
		Older:     []domain.Session{},
	}

	for _, s := range sessions {
		days := now.Sub(s.CreatedAt).Hours() / 24
		switch {
		case days < 1:
			groups.Today = append(groups.Today, s)
		case days < 7:
			groups.Past7Days = append(groups.Past7Days, s)
		default:
			groups.Older = append(groups.Older, s)
		}
	}

	newestFirst := func(b []domain.Session) {
		sort.SliceStable(b, func(i, j int) bool { return b[i].CreatedAt.After(b[j].CreatedAt) })
	}
	newestFirst(groups.Today)
	newestFirst(groups.Past7Days)
	newestFirst(groups.Older)

	return groups
}
