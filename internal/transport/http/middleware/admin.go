package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"chatbox/internal/transport/http/response"
)

// RequireAdmin guards the document management surface with the static admin
// token, taken from the X-Admin-Token header or the token query parameter.
func RequireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := strings.TrimSpace(c.GetHeader("X-Admin-Token"))
		if presented == "" {
			presented = strings.TrimSpace(c.Query("token"))
		}

		if token == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or missing admin token")
			c.Abort()
			return
		}
		c.Next()
	}
}
