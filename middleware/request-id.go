package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/polyrelay/polyrelay/common/ctxkey"
	"github.com/polyrelay/polyrelay/common/random"
)

func RequestId() func(c *gin.Context) {
	return func(c *gin.Context) {
		id := random.GetUUID()
		c.Set(ctxkey.RequestId, id)
		c.Header(ctxkey.RequestId, id)
		c.Next()
	}
}
