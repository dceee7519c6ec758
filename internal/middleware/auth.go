package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const AdminTokenHeader = "X-Admin-Token"

// AdminAuth пропускает только запросы с верным X-Admin-Token.
func AdminAuth(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(AdminTokenHeader)

		if token == "" {
			abortUnauthorized(c, AdminTokenHeader+" header required")
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) != 1 {
			abortUnauthorized(c, "invalid admin token")
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
