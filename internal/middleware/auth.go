package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// UserIDKey is the context key for the authenticated user's ID
	UserIDKey = "user_id"
	// AuthorizationHeader is the HTTP header carrying the bearer token
	AuthorizationHeader = "Authorization"
)

// RequireAuth verifies the bearer token issued by the identity provider and
// stores the subject claim in the context as the user ID. Requests without a
// valid token are rejected with 401; loss of authentication is the caller's
// signal to redirect to sign-in.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthorizationHeader)
		if header == "" {
			unauthorized(c, "Missing authorization header")
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			unauthorized(c, "Authorization header must be a bearer token")
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			unauthorized(c, "Invalid or expired session token")
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			unauthorized(c, "Session token has no subject")
			return
		}

		c.Set(UserIDKey, subject)
		c.Next()
	}
}

// GetUserID retrieves the authenticated user ID from the Gin context.
// Returns an empty string if the request is unauthenticated.
func GetUserID(c *gin.Context) string {
	if userID, exists := c.Get(UserIDKey); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}

func unauthorized(c *gin.Context, message string) {
	requestID := GetRequestID(c)

	if log := GetLogger(c); log != nil {
		log.Warn("Unauthorized request", map[string]interface{}{
			"message": message,
			"path":    c.Request.URL.Path,
		})
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":       "UNAUTHORIZED",
			"message":    message,
			"request_id": requestID,
		},
	})
}
