package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"knowdesk/internal/pkg/jwtutil"
	"knowdesk/internal/transport/http/response"
)

const (
	ContextUserIDKey    = "user_id"
	ContextUserEmailKey = "user_email"
	ContextUserNameKey  = "user_name"
)

func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, secret)
		if !ok {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or missing token")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUserEmailKey, claims.Email)
		c.Set(ContextUserNameKey, claims.Name)
		c.Next()
	}
}

// OptionalAuthJWT attaches the caller's identity when a valid token is
// present and lets anonymous requests through untouched.
func OptionalAuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c, secret); ok {
			c.Set(ContextUserIDKey, claims.UserID)
			c.Set(ContextUserEmailKey, claims.Email)
			c.Set(ContextUserNameKey, claims.Name)
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, secret string) (*jwtutil.Claims, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	const prefix = "Bearer "
	if authHeader == "" || !strings.HasPrefix(authHeader, prefix) {
		return nil, false
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
	claims, err := jwtutil.ParseToken(secret, token)
	if err != nil {
		return nil, false
	}
	return claims, true
}
