package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJar_SetGetDelete(t *testing.T) {
	jar := NewJar()

	jar.Set("session_abc", `{"sessionId":"abc"}`, 7*24*time.Hour)

	v, ok := jar.Get("session_abc")
	assert.True(t, ok)
	assert.Equal(t, `{"sessionId":"abc"}`, v)

	jar.Delete("session_abc")
	_, ok = jar.Get("session_abc")
	assert.False(t, ok)
}

func TestJar_ExpiredCookieNotReturned(t *testing.T) {
	jar := NewJar()
	now := time.Now()
	jar.now = func() time.Time { return now }

	jar.Set("session_old", "v", time.Hour)

	now = now.Add(2 * time.Hour)

	_, ok := jar.Get("session_old")
	assert.False(t, ok)
	assert.Empty(t, jar.Names())
}

func TestJar_ImportRequest(t *testing.T) {
	jar := NewJar()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session_a", Value: "x"})
	req.AddCookie(&http.Cookie{Name: "mammy_user_id", Value: "u1"})
	jar.ImportRequest(req)

	v, ok := jar.Get("mammy_user_id")
	assert.True(t, ok)
	assert.Equal(t, "u1", v)
	assert.ElementsMatch(t, []string{"session_a", "mammy_user_id"}, jar.Names())
}

func TestJar_JSONValueSurvivesHTTPRoundTrip(t *testing.T) {
	payload := `{"sessionId":"abc-123","label":"hello world","createdAt":"2024-03-01T12:00:00Z"}`

	jar := NewJar()
	jar.Set("session_abc-123", payload, 7*24*time.Hour)

	// flush Set-Cookie headers the way a handler does
	rec := httptest.NewRecorder()
	for _, c := range jar.TakePending() {
		http.SetCookie(rec, c)
	}

	// carry the cookies back on the next request like a browser would
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	next := NewJar()
	next.ImportRequest(req)

	v, ok := next.Get("session_abc-123")
	assert.True(t, ok)
	assert.Equal(t, payload, v)
}

func TestJar_TakePending(t *testing.T) {
	jar := NewJar()

	jar.Set("a", "1", time.Hour)
	jar.Delete("b")

	pending := jar.TakePending()
	assert.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].Name)
	assert.Equal(t, "1", pending[0].Value)
	assert.Equal(t, "b", pending[1].Name)
	assert.Equal(t, time.Unix(0, 0).UTC(), pending[1].Expires)

	// drained
	assert.Empty(t, jar.TakePending())
}
