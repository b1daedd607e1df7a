package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	accountJwt "github.com/strmhub/account-service/internal/app/account/jwt"
)

const userIDKey = "userID"

// Auth guards identity-scoped routes. The access token comes from the
// session cookie or a Bearer header.
func Auth(tokens accountJwt.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie("accessToken")
		if err != nil || raw == "" {
			raw = bearerToken(c.GetHeader("Authorization"))
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "access token is required"})
			return
		}

		claims, err := tokens.ValidateAccessToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}

		uid, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}

		c.Set(userIDKey, uid)
		c.Next()
	}
}

func bearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// UserID returns the authenticated user set by Auth.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	uid, ok := v.(uuid.UUID)
	return uid, ok
}
