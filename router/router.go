// Package router registers the gateway's HTTP surface.
package router

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/middleware"
	"github.com/polyrelay/polyrelay/relay/controller"
)

// SetRouter wires all endpoints onto server. The /v1 group sits behind the
// bearer-token gate; health and metrics stay open for probes and scrapers.
func SetRouter(server *gin.Engine, relay *controller.Relay) {
	server.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if config.EnablePrometheusMetrics {
		server.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	v1 := server.Group("/v1")
	v1.Use(middleware.BearerAuth())
	v1.POST("/chat/completions", relay.ChatCompletions)
	// Compressing the SSE endpoint breaks event delivery, so only the
	// listing endpoint is gzipped.
	v1.GET("/models", gzip.Gzip(gzip.DefaultCompression), controller.Models)

	// Bedrock-native aliases: the model id lives in the path and streaming is
	// selected by the route, mirroring the upstream InvokeModel surface.
	// Responses come back in the caller's own wire shape.
	v1.POST("/model/:model/invoke", bedrockInvoke(relay, false))
	v1.POST("/model/:model/invoke-with-response-stream", bedrockInvoke(relay, true))
}

func bedrockInvoke(relay *controller.Relay, stream bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Request.URL.Query()
		q.Set("model", c.Param("model"))
		q.Set("format", "input")
		if stream {
			q.Set("stream", "true")
		}
		c.Request.URL.RawQuery = q.Encode()
		relay.ChatCompletions(c)
	}
}
