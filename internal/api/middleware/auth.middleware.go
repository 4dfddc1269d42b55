package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/stratoslabs/dircore/internal/auth"
	"github.com/stratoslabs/dircore/internal/config"
)

// accessTokenKey is the gin context key under which the caller's decoded
// authorization context is stored.
const accessTokenKey = "access_token"

// AuthMiddleware validates the caller's bearer JWT and places the decoded
// AccessToken in the request context. Health, metrics, and documentation
// endpoints are public.
func AuthMiddleware(authConfig config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isPublicEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Authentication required",
			})
			c.Abort()
			return
		}

		accessToken, err := validateToken(token, authConfig.JWT.Secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": "error",
				"error":  "Invalid authentication token",
				"detail": err.Error(),
			})
			c.Abort()
			return
		}

		// Set context for downstream middleware and handlers
		c.Set(accessTokenKey, accessToken)
		c.Set("user_id", accessToken.UserID)
		if accessToken.TenantID != nil {
			c.Set("tenant_id", strconv.FormatUint(uint64(*accessToken.TenantID), 10))
		}

		// Add security headers
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")

		c.Next()
	}
}

// GetAccessToken returns the decoded authorization context set by
// AuthMiddleware, or nil when the request was not authenticated.
func GetAccessToken(c *gin.Context) *auth.AccessToken {
	v, exists := c.Get(accessTokenKey)
	if !exists {
		return nil
	}
	token, ok := v.(*auth.AccessToken)
	if !ok {
		return nil
	}
	return token
}

// extractToken gets the bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// validateToken parses an HS256 JWT and maps its claims to an AccessToken.
// Recognized claims: sub (user id), tenant (numeric tenant scope), and
// permissions (list of capability names).
func validateToken(tokenString, secret string) (*auth.AccessToken, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	accessToken := &auth.AccessToken{Permissions: auth.NewPermissionSet()}

	if sub, ok := claims["sub"].(string); ok {
		accessToken.UserID = sub
	}

	// JSON numbers decode as float64.
	if tenant, ok := claims["tenant"].(float64); ok && tenant > 0 {
		id := uint32(tenant)
		accessToken.TenantID = &id
	}

	if raw, ok := claims["permissions"].([]interface{}); ok {
		names := make([]string, 0, len(raw))
		for _, p := range raw {
			if name, ok := p.(string); ok {
				names = append(names, name)
			}
		}
		accessToken.Permissions = auth.PermissionSetFromStrings(names)
	}

	return accessToken, nil
}

// isPublicEndpoint checks if the endpoint doesn't require authentication
func isPublicEndpoint(path string) bool {
	publicPaths := []string{
		"/health",
		"/ready",
		"/metrics",
		"/api/openapi.yaml",
	}
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return strings.HasPrefix(path, "/swagger/")
}
