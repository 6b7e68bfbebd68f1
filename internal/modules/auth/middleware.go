package auth

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-backend/internal/modules/user"
)

// Guard turns bearer tokens into request identities and enforces roles.
type Guard struct {
	tokens  Service
	checker *AdminChecker
	logger  *zap.Logger
}

func NewGuard(tokens Service, checker *AdminChecker, logger *zap.Logger) *Guard {
	return &Guard{tokens: tokens, checker: checker, logger: logger}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Optional attaches the user id when a valid token is present and otherwise
// lets the request through anonymously.
func (g *Guard) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := bearerToken(r); tok != "" {
			if id, err := g.tokens.ParseToken(tok); err == nil {
				r = r.WithContext(user.WithID(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests without a valid token with 401.
func (g *Guard) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.tokens.ParseToken(bearerToken(r))
		if err != nil {
			respond(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(user.WithID(r.Context(), id)))
	})
}

// RequireAdmin answers 401 without a valid token, 403 for non-admins and 503
// with Retry-After when the role lookup times out.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return g.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := user.IDFromContext(r.Context())
		switch g.checker.Check(r.Context(), id) {
		case Authorized:
			next.ServeHTTP(w, r)
		case TimedOut:
			secs := int(math.Ceil(g.checker.RetryAfter().Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			respond(w, http.StatusServiceUnavailable, map[string]string{"error": "authorization check timed out, retry later"})
		default:
			respond(w, http.StatusForbidden, map[string]string{"error": "admin access required"})
		}
	}))
}
