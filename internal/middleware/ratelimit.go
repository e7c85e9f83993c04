package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/HammerMeetNail/odinbook/internal/handlers"
	"github.com/HammerMeetNail/odinbook/internal/logging"
)

// RateLimitStore is the counter backend; database.RedisDB implements it.
type RateLimitStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// KeyFunc identifies the client a request is counted against.
type KeyFunc func(r *http.Request) string

type RateLimiter struct {
	store    RateLimitStore
	limit    int
	window   time.Duration
	prefix   string
	keyFunc  KeyFunc
	failOpen bool
	now      func() time.Time
}

// NewRateLimiter counts requests per key in fixed windows. When failOpen is
// set, requests pass while the store is unavailable.
func NewRateLimiter(store RateLimitStore, limit int, window time.Duration, prefix string, keyFunc KeyFunc, failOpen bool) *RateLimiter {
	if keyFunc == nil {
		keyFunc = GetClientIP
	}
	return &RateLimiter{
		store:    store,
		limit:    limit,
		window:   window,
		prefix:   prefix,
		keyFunc:  keyFunc,
		failOpen: failOpen,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.store == nil {
			rl.unavailable(w, r, next, nil)
			return
		}

		allowed, remaining, resetTime, err := rl.isAllowed(r.Context(), rl.keyFunc(r))
		if err != nil {
			rl.unavailable(w, r, next, err)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime, 10))

		if !allowed {
			retryAfter := resetTime - rl.now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) unavailable(w http.ResponseWriter, r *http.Request, next http.Handler, err error) {
	if err != nil {
		logging.Warn("Rate limit store unavailable", map[string]interface{}{
			"prefix": rl.prefix,
			"error":  err.Error(),
		})
	}
	if rl.failOpen {
		next.ServeHTTP(w, r)
		return
	}
	writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
}

func (rl *RateLimiter) isAllowed(ctx context.Context, clientKey string) (allowed bool, remaining int, resetTime int64, err error) {
	windowStart := rl.now().Truncate(rl.window)
	windowEnd := windowStart.Add(rl.window)
	key := fmt.Sprintf("%s%s:%d", rl.prefix, clientKey, windowStart.Unix())

	count, err := rl.store.Incr(ctx, key)
	if err != nil {
		return false, 0, windowEnd.Unix(), err
	}
	if count == 1 {
		if err := rl.store.Expire(ctx, key, rl.window); err != nil {
			return false, 0, windowEnd.Unix(), err
		}
	}

	remaining = rl.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return int(count) <= rl.limit, remaining, windowEnd.Unix(), nil
}

// GetClientIP returns the first address in X-Forwarded-For, then X-Real-IP,
// then the connection's remote address.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if host, _, err := net.SplitHostPort(first); err == nil {
			return host
		}
		return first
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// AccountOrClientIP keys authenticated requests by account and falls back
// to the client address.
func AccountOrClientIP(r *http.Request) string {
	if account := handlers.GetAccountFromContext(r.Context()); account != nil {
		return "account:" + account.ID.String()
	}
	return "ip:" + GetClientIP(r)
}

// NewFriendRequestRateLimiter limits friend requests per account per hour.
func NewFriendRequestRateLimiter(store RateLimitStore, perHour int) *RateLimiter {
	return NewRateLimiter(store, perHour, time.Hour, "ratelimit:friendships:", AccountOrClientIP, true)
}

// NewLoginRateLimiter limits login attempts per client per minute.
func NewLoginRateLimiter(store RateLimitStore, perMinute int) *RateLimiter {
	return NewRateLimiter(store, perMinute, time.Minute, "ratelimit:auth:", GetClientIP, true)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(handlers.ErrorResponse{Error: message})
}
