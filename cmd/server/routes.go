package main

import (
	"net/http"

	"github.com/HammerMeetNail/odinbook/internal/handlers"
	"github.com/HammerMeetNail/odinbook/internal/middleware"
)

type routerDeps struct {
	health          *handlers.HealthHandler
	auth            *handlers.AuthHandler
	friends         *handlers.FriendHandler
	authMiddleware  *middleware.AuthMiddleware
	friendLimiter   *middleware.RateLimiter
	loginLimiter    *middleware.RateLimiter
	securityHeaders *middleware.SecurityHeaders
	compress        *middleware.Compress
	requestLogger   *middleware.RequestLogger
}

func newRouter(d routerDeps) http.Handler {
	requireAuth := func(h http.HandlerFunc) http.Handler {
		return d.authMiddleware.RequireAuth(h)
	}
	sendLimited := d.friendLimiter.Middleware(http.HandlerFunc(d.friends.Create))

	mux := http.NewServeMux()

	// Health endpoints (no auth, no rate limit)
	mux.HandleFunc("GET /health", d.health.Health)
	mux.HandleFunc("GET /ready", d.health.Ready)
	mux.HandleFunc("GET /live", d.health.Live)

	// Accounts and auth
	mux.HandleFunc("POST /api/accounts", d.auth.Register)
	mux.Handle("POST /api/auth/local", d.loginLimiter.Middleware(http.HandlerFunc(d.auth.Login)))
	mux.Handle("GET /api/auth/me", requireAuth(d.auth.Me))

	// Friendships
	mux.Handle("POST /api/friendships", d.authMiddleware.RequireAuth(sendLimited))
	mux.Handle("GET /api/friendships", requireAuth(d.friends.ListFriends))
	mux.Handle("GET /api/friendships/requests", requireAuth(d.friends.ListRequests))
	mux.Handle("GET /api/friendships/sent", requireAuth(d.friends.ListSent))
	mux.Handle("GET /api/friendships/{id}", requireAuth(d.friends.Get))
	mux.Handle("PUT /api/friendships/{id}", requireAuth(d.friends.Accept))
	mux.Handle("DELETE /api/friendships/{id}", requireAuth(d.friends.Remove))
	mux.Handle("GET /api/accounts/{id}/friendship", requireAuth(d.friends.Relationship))

	// Build middleware chain (order matters: outermost first)
	var handler http.Handler = mux
	handler = d.authMiddleware.Authenticate(handler)
	handler = d.compress.Apply(handler)
	handler = d.securityHeaders.Apply(handler)
	handler = d.requestLogger.Apply(handler)
	return handler
}
