package httpapi

import (
	"io"

	"github.com/gin-gonic/gin"
)

// Stream serves the live-update feed over Server-Sent Events.
//
// A joiner receives only events published after it connected; current state
// must be pulled through the CRUD API. Disconnecting unsubscribes the
// observer and no backlog is owed to it.
func (h Handlers) Stream(c *gin.Context) {
	sub := h.Bus.Subscribe()
	defer h.Bus.Unsubscribe(sub)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent(string(e.Kind), string(e.Payload))
			return true
		case <-clientGone:
			return false
		}
	})
}
