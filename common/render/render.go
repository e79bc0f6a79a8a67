package render

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CustomEvent renders one pre-formatted SSE frame. The Data field carries the
// full frame line (including the "data: " prefix); the trailing blank line is
// appended here so call sites stay single-line.
type CustomEvent struct {
	Data string
}

var contentType = []string{"text/event-stream"}

func (r CustomEvent) Render(w http.ResponseWriter) error {
	r.WriteContentType(w)
	data := r.Data
	if !strings.HasSuffix(data, "\n\n") {
		data += "\n\n"
	}
	_, err := w.Write([]byte(data))
	return err
}

func (r CustomEvent) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if vals := header["Content-Type"]; len(vals) == 0 {
		header["Content-Type"] = contentType
	}
}

// SetEventStreamHeaders prepares the response for SSE streaming.
func SetEventStreamHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	// This addresses an issue with nginx buffering SSE responses.
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.Header().Set("Pragma", "no-cache")
}
