package middleware

import (
	"net/http"
	"strings"

	"github.com/HammerMeetNail/odinbook/internal/handlers"
	"github.com/HammerMeetNail/odinbook/internal/services"
)

const bearerPrefix = "Bearer "

type AuthMiddleware struct {
	tokenService   services.TokenServiceInterface
	accountService services.AccountServiceInterface
}

func NewAuthMiddleware(tokenService services.TokenServiceInterface, accountService services.AccountServiceInterface) *AuthMiddleware {
	return &AuthMiddleware{tokenService: tokenService, accountService: accountService}
}

// Authenticate validates the bearer token and adds the account to the
// context if valid. Does not reject unauthenticated requests.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		accountID, err := m.tokenService.Parse(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		// Tokens outlive deleted accounts
		account, err := m.accountService.GetByID(r.Context(), accountID)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		annotateAccount(r.Context(), account.ID)
		ctx := handlers.SetAccountInContext(r.Context(), account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects unauthenticated requests with 401.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handlers.GetAccountFromContext(r.Context()) == nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
