package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/teamloop/feedbackhub/internal/auth"
	"github.com/teamloop/feedbackhub/internal/cache"
	"github.com/teamloop/feedbackhub/internal/domain/user"
)

// Small interfaces so tests can fake both halves of the guard easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserResolver interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// AuthMiddleware resolves a bearer token into an authenticated user: verify
// the token, then look the subject up in the credential store. A valid token
// whose subject no longer resolves gets the same 401 as a bad token. Role
// policy is not applied here; that belongs to RequireRole on each route.
type AuthMiddleware struct {
	jwt   TokenVerifier
	users UserResolver
	cache *cache.Cache // optional, bounds repeated identity lookups
}

func NewAuthMiddleware(jwt TokenVerifier, users UserResolver) *AuthMiddleware {
	return &AuthMiddleware{
		jwt:   jwt,
		users: users,
		cache: cache.New(30 * time.Second),
	}
}

const (
	ctxUserKey   = "auth.user"
	ctxUserIDKey = "auth.userID"
	ctxEmailKey  = "auth.email"
	ctxRoleKey   = "auth.role"
)

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortUnauthorized(c, "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			// which check failed is deliberately not surfaced
			abortUnauthorized(c, "Invalid or expired access token")
			return
		}

		u, err := m.resolveUser(c.Request.Context(), claims.Email)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired access token")
			return
		}

		SetIdentity(c, u)

		c.Next()
	}
}

// SetIdentity stashes the resolved identity on the request context. Exposed
// so tests can authenticate a request without minting tokens.
func SetIdentity(c *gin.Context, u user.User) {
	c.Set(ctxUserKey, u)
	c.Set(ctxUserIDKey, u.ID)
	c.Set(ctxEmailKey, u.Email)
	c.Set(ctxRoleKey, u.Role)
}

func (m *AuthMiddleware) resolveUser(ctx context.Context, email string) (user.User, error) {
	if m.cache != nil {
		if v, ok := m.cache.Get(email); ok {
			if u, ok := v.(user.User); ok {
				return u, nil
			}
		}
	}

	u, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		return user.User{}, err
	}

	if m.cache != nil {
		m.cache.Set(email, u)
	}
	return u, nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": message,
		},
	})
}

// Helpers so handlers don't need to know the magic keys.

func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func RoleFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
