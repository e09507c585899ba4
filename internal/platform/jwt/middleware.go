package jwtmw

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"fintrack_backend/internal/platform/http/response"
	"fintrack_backend/internal/shared/apperror"
)

const (
	// ContextUserID is the gin context key holding the authenticated user ID (uint).
	ContextUserID = "userID"
	// ContextRole is the gin context key holding the role claim (string).
	ContextRole = "role"
)

// AuthRequired returns a Gin middleware function that validates JWT tokens
// and restricts access to authenticated users only.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Authorization header
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			response.Abort(c, http.StatusUnauthorized, response.KindUnauthenticated, "missing bearer token")
			return
		}
		tokenStr := strings.TrimPrefix(auth, "Bearer ")

		// 2. signing key
		secret := os.Getenv(EnvKeyJWTSecret)
		if secret == "" {
			response.Abort(c, http.StatusInternalServerError, response.KindInternal, "server misconfigured")
			return
		}

		// 3. verify the signature (HMAC only)
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		}, jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			response.Abort(c, http.StatusUnauthorized, response.KindUnauthenticated, "invalid token")
			return
		}

		// 4. extract claims
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, response.KindUnauthenticated, "invalid token")
			return
		}
		sub, ok := claims["sub"].(float64) // JWT numbers are decoded as float64
		if !ok || sub <= 0 {
			response.Abort(c, http.StatusUnauthorized, response.KindUnauthenticated, "invalid token")
			return
		}
		c.Set(ContextUserID, uint(sub))
		if role, ok := claims["role"].(string); ok {
			c.Set(ContextRole, role)
		}

		c.Next()
	}
}

// RequireRoles rejects callers whose role claim is not one of roles with 403.
// It must run after AuthRequired. Usecases still re-check the role from storage.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Abort(c, http.StatusForbidden, string(apperror.KindUnauthorized), "insufficient role")
	}
}

// UserID returns the authenticated user ID set by AuthRequired.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
