package middleware

import (
	"net/http"
	"strconv"

	"github.com/mammyai/chat-gateway/internal/api/response"
	"github.com/mammyai/chat-gateway/internal/repository/redis"
	"github.com/mammyai/chat-gateway/internal/service"
	"github.com/rs/zerolog/log"
)

// RateLimitMiddleware throttles message sends per anonymous user
type RateLimitMiddleware struct {
	limiter    *redis.SendLimiter
	cookieName string
}

// NewRateLimitMiddleware creates a new rate limit middleware keyed by the
// given user cookie
func NewRateLimitMiddleware(limiter *redis.SendLimiter, cookieName string) *RateLimitMiddleware {
	if cookieName == "" {
		cookieName = service.UserCookieName
	}
	return &RateLimitMiddleware{limiter: limiter, cookieName: cookieName}
}

// Limit enforces the per-minute send budget. Requests are keyed by the user
// cookie, falling back to the client address; Redis errors fail open.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
			key = c.Value
		}

		allowed, remaining, reset, err := m.limiter.Allow(r.Context(), key)
		if err != nil {
			log.Warn().Err(err).Msg("send limit check failed, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			response.TooManyRequests(w, "send limit exceeded, try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}
