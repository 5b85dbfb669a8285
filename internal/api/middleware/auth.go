package middleware

import (
	"net/http"
	"strings"

	"kidsafe/internal/auth"

	"github.com/gin-gonic/gin"
)

// Context keys set by the Auth middleware
const (
	UserIDKey  = "user_id"
	ChildIDKey = "child_id"
	IsChildKey = "is_child"
)

// Auth verifies the Bearer token and stores the caller identity in the
// request context. Parent tokens set user_id; child device tokens set
// child_id and is_child.
func Auth(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Missing or malformed Authorization header",
				"code":  "UNAUTHORIZED",
			})
			c.Abort()
			return
		}

		claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
				"code":  "UNAUTHORIZED",
			})
			c.Abort()
			return
		}

		if claims.IsChild {
			c.Set(ChildIDKey, claims.ChildID)
			c.Set(IsChildKey, true)
		} else {
			c.Set(UserIDKey, claims.UserID)
		}

		c.Next()
	}
}
