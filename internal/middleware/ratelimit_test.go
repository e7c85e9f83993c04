package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/odinbook/internal/handlers"
	"github.com/HammerMeetNail/odinbook/internal/models"
)

type fakeRateLimitStore struct {
	counts   map[string]int64
	expires  map[string]time.Duration
	incrErr  error
	expireEr error
}

func newFakeRateLimitStore() *fakeRateLimitStore {
	return &fakeRateLimitStore{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeRateLimitStore) Incr(ctx context.Context, key string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeRateLimitStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if f.expireEr != nil {
		return f.expireEr
	}
	f.expires[key] = ttl
	return nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_Middleware_NilStore(t *testing.T) {
	limiter := NewRateLimiter(nil, 10, time.Hour, "test:", func(r *http.Request) string {
		return "test-key"
	}, true)

	rr := httptest.NewRecorder()
	limiter.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("expected status OK, got %d", rr.Code)
	}
}

func TestRateLimiter_Middleware_LimitsPerWindow(t *testing.T) {
	store := newFakeRateLimitStore()
	limiter := NewRateLimiter(store, 2, time.Hour, "test:", func(r *http.Request) string { return "k" }, true)
	fixed := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }
	handler := limiter.Middleware(okHandler())

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/friendships", nil))
		if rr.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i+1, want, rr.Code)
		}
		if i == 2 {
			if rr.Header().Get("Retry-After") != "1800" {
				t.Fatalf("expected Retry-After 1800, got %q", rr.Header().Get("Retry-After"))
			}
			if rr.Header().Get("X-RateLimit-Remaining") != "0" {
				t.Fatalf("expected no remaining requests, got %q", rr.Header().Get("X-RateLimit-Remaining"))
			}
		}
	}

	key := "test:k:" + "1714557600"
	if store.expires[key] != time.Hour {
		t.Fatalf("expected window expiry on %s, got %v", key, store.expires)
	}

	// A new window starts a new counter.
	limiter.now = func() time.Time { return fixed.Add(time.Hour) }
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/friendships", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected next window to allow, got %d", rr.Code)
	}
}

func TestRateLimiter_Middleware_StoreErrors(t *testing.T) {
	for _, failOpen := range []bool{true, false} {
		store := newFakeRateLimitStore()
		store.incrErr = errors.New("redis down")
		limiter := NewRateLimiter(store, 1, time.Minute, "test:", nil, failOpen)

		rr := httptest.NewRecorder()
		limiter.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		want := http.StatusServiceUnavailable
		if failOpen {
			want = http.StatusOK
		}
		if rr.Code != want {
			t.Fatalf("failOpen=%t: expected %d, got %d", failOpen, want, rr.Code)
		}
	}
}

func TestAccountOrClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:1234"
	if got := AccountOrClientIP(req); got != "ip:192.168.1.1" {
		t.Fatalf("expected ip key, got %s", got)
	}

	account := &models.Account{ID: uuid.New()}
	req = req.WithContext(handlers.SetAccountInContext(req.Context(), account))
	if got := AccountOrClientIP(req); got != "account:"+account.ID.String() {
		t.Fatalf("expected account key, got %s", got)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{
			name:     "X-Forwarded-For Single",
			headers:  map[string]string{"X-Forwarded-For": "10.0.0.1"},
			remote:   "192.168.1.1:1234",
			expected: "10.0.0.1",
		},
		{
			name:     "X-Forwarded-For Multiple",
			headers:  map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"},
			remote:   "192.168.1.1:1234",
			expected: "10.0.0.1",
		},
		{
			name:     "X-Forwarded-For With Port",
			headers:  map[string]string{"X-Forwarded-For": "10.0.0.1:5555"},
			remote:   "192.168.1.1:1234",
			expected: "10.0.0.1",
		},
		{
			name:     "X-Real-IP",
			headers:  map[string]string{"X-Real-IP": "10.0.0.2"},
			remote:   "192.168.1.1:1234",
			expected: "10.0.0.2",
		},
		{
			name:     "XFF Preference over X-Real-IP",
			headers:  map[string]string{"X-Forwarded-For": "10.0.0.1", "X-Real-IP": "10.0.0.2"},
			remote:   "192.168.1.1:1234",
			expected: "10.0.0.1",
		},
		{
			name:     "No Headers",
			headers:  map[string]string{},
			remote:   "192.168.1.1:1234",
			expected: "192.168.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			req.RemoteAddr = tt.remote

			if ip := GetClientIP(req); ip != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, ip)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusTooManyRequests, "Rate limit exceeded")

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %q", ct)
	}
	if body := rr.Body.String(); body != `{"error":"Rate limit exceeded"}`+"\n" {
		t.Fatalf("unexpected body %q", body)
	}
}
