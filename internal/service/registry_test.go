package service

import (
	"testing"
	"time"

	"github.com/mammyai/chat-gateway/internal/domain"
	"github.com/mammyai/chat-gateway/internal/repository/cookie"
	"github.com/stretchr/testify/assert"
)

func TestSessionRegistry_SetAndGet(t *testing.T) {
	jar := cookie.NewJar()
	registry := NewSessionRegistry(jar, 7, "", "")

	registry.SetSessionCookie("abc-123", "first message", 0)

	s, ok := registry.Session("abc-123")
	assert.True(t, ok)
	assert.Equal(t, "abc-123", s.SessionID)
	assert.Equal(t, "first message", s.Label)
	assert.False(t, s.CreatedAt.IsZero())

	_, ok = registry.Session("missing")
	assert.False(t, ok)
}

func TestSessionRegistry_OverwriteRefreshesCreatedAt(t *testing.T) {
	jar := cookie.NewJar()
	registry := NewSessionRegistry(jar, 7, "", "")

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return base }
	registry.SetSessionCookie("abc-123", "label", 0)

	registry.now = func() time.Time { return base.Add(48 * time.Hour) }
	registry.SetSessionCookie("abc-123", "label", 0)

	s, ok := registry.Session("abc-123")
	assert.True(t, ok)
	assert.Equal(t, base.Add(48*time.Hour), s.CreatedAt)
}

func TestSessionRegistry_AllSessionsSkipsMalformed(t *testing.T) {
	jar := cookie.NewJar()
	registry := NewSessionRegistry(jar, 7, "", "")

	registry.SetSessionCookie("good", "ok", 0)
	jar.Set(SessionCookiePrefix+"bad", "not json", time.Hour)
	jar.Set("unrelated_cookie", "value", time.Hour)

	sessions := registry.AllSessions()
	assert.Len(t, sessions, 1)
	assert.Equal(t, "good", sessions[0].SessionID)
}

func TestSessionRegistry_DeleteSession(t *testing.T) {
	jar := cookie.NewJar()
	registry := NewSessionRegistry(jar, 7, "", "")

	registry.SetSessionCookie("abc-123", "label", 0)
	registry.DeleteSession("abc-123")

	_, ok := registry.Session("abc-123")
	assert.False(t, ok)
	assert.Empty(t, registry.AllSessions())
}

func TestSessionRegistry_EnsureUserID(t *testing.T) {
	jar := cookie.NewJar()
	registry := NewSessionRegistry(jar, 7, "", "")

	id := registry.EnsureUserID()
	assert.NotEmpty(t, id)

	// stable across calls
	assert.Equal(t, id, registry.EnsureUserID())

	stored, ok := jar.Get(UserCookieName)
	assert.True(t, ok)
	assert.Equal(t, id, stored)
}

func TestSessionRegistry_ConfiguredCookieLayout(t *testing.T) {
	jar := cookie.NewJar()
	registry := NewSessionRegistry(jar, 7, "chat_", "gateway_uid")

	registry.SetSessionCookie("abc-123", "label", 0)
	_, ok := jar.Get("chat_abc-123")
	assert.True(t, ok)

	s, ok := registry.Session("abc-123")
	assert.True(t, ok)
	assert.Equal(t, "abc-123", s.SessionID)
	assert.Len(t, registry.AllSessions(), 1)

	id := registry.EnsureUserID()
	stored, ok := jar.Get("gateway_uid")
	assert.True(t, ok)
	assert.Equal(t, id, stored)
}

func TestGroupByAge_Partition(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	sessions := []domain.Session{
		{SessionID: "t1", CreatedAt: now.Add(-2 * time.Hour)},
		{SessionID: "t2", CreatedAt: now.Add(-23 * time.Hour)},
		{SessionID: "w1", CreatedAt: now.Add(-3 * 24 * time.Hour)},
		{SessionID: "o1", CreatedAt: now.Add(-30 * 24 * time.Hour)},
	}

	groups := GroupByAge(sessions, now)

	assert.Len(t, groups.Today, 2)
	assert.Len(t, groups.Past7Days, 1)
	assert.Len(t, groups.Older, 1)
	assert.Equal(t, "w1", groups.Past7Days[0].SessionID)
	assert.Equal(t, "o1", groups.Older[0].SessionID)
}

func TestGroupByAge_BoundariesFallOlder(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	sessions := []domain.Session{
		{SessionID: "day", CreatedAt: now.Add(-24 * time.Hour)},
		{SessionID: "week", CreatedAt: now.Add(-7 * 24 * time.Hour)},
	}

	groups := GroupByAge(sessions, now)

	assert.Empty(t, groups.Today)
	assert.Len(t, groups.Past7Days, 1)
	assert.Equal(t, "day", groups.Past7Days[0].SessionID)
	assert.Len(t, groups.Older, 1)
	assert.Equal(t, "week", groups.Older[0].SessionID)
}

func TestGroupByAge_NewestFirstWithinBucket(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	sessions := []domain.Session{
		{SessionID: "older", CreatedAt: now.Add(-10 * time.Hour)},
		{SessionID: "newest", CreatedAt: now.Add(-1 * time.Hour)},
		{SessionID: "middle", CreatedAt: now.Add(-5 * time.Hour)},
	}

	groups := GroupByAge(sessions, now)

	assert.Equal(t, "newest", groups.Today[0].SessionID)
	assert.Equal(t, "middle", groups.Today[1].SessionID)
	assert.Equal(t, "older", groups.Today[2].SessionID)
}

func TestGroupByAge_EmptyInputYieldsEmptyBuckets(t *testing.T) {
	groups := GroupByAge(nil, time.Now())

	assert.NotNil(t, groups.Today)
	assert.NotNil(t, groups.Past7Days)
	assert.NotNil(t, groups.Older)
	assert.Empty(t, groups.Today)
}
