package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gigmarket/internal/domain"
)

const streamBuffer = 64

var streamTables = map[string]bool{
	"jobs":       true,
	"proposals":  true,
	"messages":   true,
	"milestones": true,
	"payments":   true,
}

// streamChanges relays row changes of a table to the client as server-sent events.
// Changes arriving while the client is slow are dropped once the buffer is full.
func (h *Handler) streamChanges(c *gin.Context) {
	table := c.Param("table")
	if !streamTables[table] {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown table"})
		return
	}
	if h.feed == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime is not configured"})
		return
	}

	filter := domain.ChangeFilter{
		Table:  table,
		Event:  c.DefaultQuery("event", "*"),
		Filter: c.Query("filter"),
	}
	ctx := c.Request.Context()
	log := h.logger.WithField("table", table)

	changes := make(chan domain.Change, streamBuffer)
	sub, err := h.feed.Subscribe(ctx, filter, func(change domain.Change) {
		select {
		case changes <- change:
		default:
			log.Warn("realtime client too slow, change dropped")
		}
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			log.WithError(err).Debug("unsubscribe")
		}
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.SSEvent("ready", gin.H{"table": table})
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case change := <-changes:
			c.SSEvent("change", change)
			c.Writer.Flush()
		}
	}
}
