package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	eventBuffer  = 32
	sseHeartbeat = 25 * time.Second
)

// StreamEvents pushes the caller's change notifications as server-sent events
func (h *Handlers) StreamEvents(c *gin.Context) {
	userID := currentUser(c)
	ch, cancel := h.bus.Subscribe(userID, eventBuffer)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// lift the server write timeout for this long-lived response
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	c.SSEvent("ready", gin.H{"user_id": userID})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case e, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("change", e)
			return true
		case t := <-heartbeat.C:
			c.SSEvent("ping", t.UTC().Format(time.RFC3339))
			return true
		}
	})
}
