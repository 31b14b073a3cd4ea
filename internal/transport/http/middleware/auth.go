package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/security"
	"github.com/bastianbaeza/JackdawSoft/internal/usecase"
)

const currentUserKey = "currentUser"

// Authenticate resolves the session token from the auth cookie or an
// Authorization bearer header, then reloads the account so revoked roles and
// status changes take effect before token expiry.
func Authenticate(tokens *security.TokenManager, auth *usecase.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c, cookieName)
		if raw == "" {
			abortUnauthorized(c, "authentication required")
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			abortUnauthorized(c, "invalid or expired session")
			return
		}

		user, err := auth.CurrentUser(c.Request.Context(), claims)
		if err != nil {
			abortUnauthorized(c, "invalid or expired session")
			return
		}
		if user.Status != domain.StatusActive {
			abortUnauthorized(c, "account is not active")
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireRole gates a route group to the given roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortUnauthorized(c, "authentication required")
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "insufficient permissions",
		})
	}
}

// CurrentUser returns the authenticated account set by Authenticate.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*domain.User)
	return user, ok
}

func tokenFromRequest(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
