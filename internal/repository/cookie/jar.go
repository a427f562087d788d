package cookie

import (
	"net/http"
	"net/url"
	"sync"
	"time"
)

type entry struct {
	value   string
	expires time.Time // zero means browser-managed, never expired locally
}

// Jar is an in-memory, TTL-aware cookie store. It mirrors the browser's
// cookie jar: request cookies are imported before an operation runs, and
// mutations are collected as pending Set-Cookie headers for the response.
// The browser stays the authoritative store.
type Jar struct {
	mu      sync.Mutex
	entries map[string]entry
	pending []*http.Cookie
	now     func() time.Time
}

// NewJar creates an empty jar
func NewJar() *Jar {
	return &Jar{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Set writes or overwrites a cookie and records the matching Set-Cookie.
// Values go on the wire percent-encoded; JSON payloads carry quotes and
// commas, which are not valid cookie-value bytes.
func (j *Jar) Set(name, value string, ttl time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()

	expires := j.now().Add(ttl)
	j.entries[name] = entry{value: value, expires: expires}
	j.pending = append(j.pending, &http.Cookie{
		Name:    name,
		Value:   url.QueryEscape(value),
		Path:    "/",
		Expires: expires,
	})
}

// Get returns the value of a live cookie
func (j *Jar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	e, ok := j.entries[name]
	if !ok || j.expired(e) {
		return "", false
	}
	return e.value, true
}

// Names returns the names of all live cookies
func (j *Jar) Names() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	names := make([]string, 0, len(j.entries))
	for name, e := range j.entries {
		if !j.expired(e) {
			names = append(names, name)
		}
	}
	return names
}

// Delete expires a cookie immediately and records an epoch-dated Set-Cookie
// so the browser drops its copy too.
func (j *Jar) Delete(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	delete(j.entries, name)
	j.pending = append(j.pending, &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0).UTC(),
	})
}

// ImportRequest loads the cookies carried by an incoming request, reversing
// the percent-encoding applied on write. Imported entries have no local
// expiry; the browser already filtered expired ones.
func (j *Jar) ImportRequest(r *http.Request) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, c := range r.Cookies() {
		value, err := url.QueryUnescape(c.Value)
		if err != nil {
			value = c.Value
		}
		j.entries[c.Name] = entry{value: value}
	}
}

// TakePending drains the Set-Cookie headers accumulated since the last call
func (j *Jar) TakePending() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	pending := j.pending
	j.pending = nil
	return pending
}

func (j *Jar) expired(e entry) bool {
	return !e.expires.IsZero() && !e.expires.After(j.now())
}
