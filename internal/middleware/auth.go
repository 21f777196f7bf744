package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/supportdesk-io/supportdesk-ce/internal/auth"
)

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	sessions   auth.SessionManager
	rbac       *auth.RBAC
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, sessions auth.SessionManager) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		sessions:   sessions,
		rbac:       auth.NewRBAC(),
	}
}

// RequireAuth validates the bearer token and checks that its session has not
// been revoked.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			m.unauthorizedResponse(c, "Missing authorization token")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			m.unauthorizedResponse(c, "Invalid or expired token")
			return
		}

		if m.sessions != nil && claims.SessionID != "" {
			if _, err := m.sessions.Get(c.Request.Context(), claims.SessionID); err != nil {
				m.unauthorizedResponse(c, "Session has been terminated")
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)
		c.Set("session_id", claims.SessionID)
		c.Set("claims", claims)

		c.Next()
	}
}

func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "User not authenticated",
			})
			c.Abort()
			return
		}

		roleStr := userRole.(string)
		for _, role := range roles {
			if roleStr == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
		c.Abort()
	}
}

func (m *AuthMiddleware) RequirePermission(permission auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "User not authenticated",
			})
			c.Abort()
			return
		}

		if !m.rbac.HasPermission(userRole.(string), permission) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// OptionalAuth sets user context when a valid token is present but never
// rejects the request.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			c.Next()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)
		c.Set("session_id", claims.SessionID)
		c.Set("claims", claims)
		c.Set("authenticated", true)

		c.Next()
	}
}

func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// Query parameter, used by WebSocket connections
	if token := c.Query("token"); token != "" {
		return token
	}

	if cookie, err := c.Cookie("auth_token"); err == nil && cookie != "" {
		return cookie
	}

	return ""
}

func (m *AuthMiddleware) unauthorizedResponse(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": message,
	})
	c.Abort()
}

func (m *AuthMiddleware) GetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func (m *AuthMiddleware) GetUserRole(c *gin.Context) (string, bool) {
	role, exists := c.Get("user_role")
	if !exists {
		return "", false
	}
	return role.(string), true
}
