package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/polyrelay/polyrelay/common/graceful"
)

// TrackInFlight counts active requests so shutdown can drain them before the
// process exits.
func TrackInFlight() gin.HandlerFunc {
	return func(c *gin.Context) {
		done := graceful.BeginRequest()
		defer done()
		c.Next()
	}
}
