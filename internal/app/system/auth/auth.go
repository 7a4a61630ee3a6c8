package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/tenant"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller attached to each request after the
// gate admits it. Authorization decisions read Role and CompanyID from here,
// never from the token.
type Principal struct {
	tenant.Context
	Name  string
	Email string
}

// UserLoader is the slice of the user store the gate needs. Defined here so
// the gate does not depend on the store package.
type UserLoader interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Gate authenticates requests: bearer token, fresh user load (cached), tenant
// resolution. Role and company come from the database on every request, so a
// role change or membership removal takes effect within the cache TTL, not at
// token expiry.
type Gate struct {
	tokens *TokenManager
	users  UserLoader
	cache  *userCache
	log    *zap.Logger
}

// NewGate wires a Gate. cacheTTL bounds how stale a cached user record may be.
func NewGate(tokens *TokenManager, users UserLoader, cacheTTL time.Duration, log *zap.Logger) *Gate {
	return &Gate{
		tokens: tokens,
		users:  users,
		cache:  newUserCache(cacheTTL),
		log:    log,
	}
}

// Close stops the cache's background cleanup.
func (g *Gate) Close() {
	g.cache.close()
}

// InvalidateUser drops the cached record for a user. Stores call this after
// any write that changes a profile, role, or membership.
func (g *Gate) InvalidateUser(id primitive.ObjectID) {
	g.cache.invalidate(id.Hex())
}

// RequireAuth admits only requests carrying a valid session token for a user
// with an active company membership. On success the Principal is attached to
// the request context.
func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, status, msg := g.Authenticate(r)
		if status != 0 {
			respond.Err(w, status, msg)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// Authenticate runs the gate's checks for one request and returns the
// principal, or a non-zero HTTP status with a client-facing message. Exposed
// separately so the WebSocket handshake can run the same checks before
// upgrading.
func (g *Gate) Authenticate(r *http.Request) (Principal, int, string) {
	tokenString := TokenFromRequest(r)
	if tokenString == "" {
		return Principal{}, http.StatusUnauthorized, "Authentication required"
	}
	claims, err := g.tokens.Verify(tokenString, PurposeSession)
	if err != nil {
		return Principal{}, http.StatusUnauthorized, "Invalid token"
	}
	u, err := g.loadUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Principal{}, http.StatusUnauthorized, "Invalid token"
		}
		g.log.Error("auth gate user lookup failed", zap.Error(err))
		return Principal{}, http.StatusInternalServerError, "Server error"
	}
	tc, err := tenant.Resolve(u)
	if err != nil {
		if errors.Is(err, tenant.ErrNoActiveCompany) {
			return Principal{}, http.StatusBadRequest, "User has no active company"
		}
		g.log.Error("auth gate tenant resolution failed", zap.Error(err))
		return Principal{}, http.StatusInternalServerError, "Server error"
	}
	return Principal{Context: tc, Name: u.Name, Email: u.Email}, 0, ""
}

// ErrUserNotFound is returned by UserLoader implementations when no user has
// the given id.
var ErrUserNotFound = errors.New("user not found")

func (g *Gate) loadUser(ctx context.Context, idHex string) (*models.User, error) {
	if u, ok := g.cache.get(idHex); ok {
		return u, nil
	}
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, ErrUserNotFound
	}
	lctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	u, err := g.users.FindByID(lctx, id)
	if err != nil {
		return nil, err
	}
	g.cache.set(idHex, u)
	return u, nil
}

// TokenFromRequest extracts the bearer token from the Authorization header,
// falling back to the token query parameter for WebSocket handshakes, where
// browsers cannot set headers.
func TokenFromRequest(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext returns the principal attached by RequireAuth.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// MustFromContext returns the principal or panics. For handlers mounted
// strictly behind RequireAuth, where a missing principal is a routing bug.
func MustFromContext(ctx context.Context) Principal {
	p, ok := FromContext(ctx)
	if !ok {
		panic("auth: no principal in context")
	}
	return p
}
