package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polyrelay/polyrelay/common/config"
)

// BearerAuth gates the relay endpoints behind the configured API keys.
// An empty key list disables authentication entirely.
func BearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(config.APIKeys) == 0 {
			c.Next()
			return
		}

		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		for _, key := range config.APIKeys {
			if subtle.ConstantTimeCompare([]byte(token), []byte(key)) == 1 {
				c.Next()
				return
			}
		}
		abortUnauthorized(c, "invalid bearer token")
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"message": message,
			"type":    "authentication_error",
		},
	})
	c.Abort()
}
