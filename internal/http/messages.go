package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gigmarket/internal/service"
)

func (h *Handler) inbox(c *gin.Context) {
	limit, _ := pagination(c)
	msgs, err := h.messages.Inbox(c.Request.Context(), userID(c), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handler) conversation(c *gin.Context) {
	limit, _ := pagination(c)
	msgs, err := h.messages.Conversation(c.Request.Context(), userID(c), c.Param("userId"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handler) sendMessage(c *gin.Context) {
	var in service.MessageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	msg, err := h.messages.Send(c.Request.Context(), userID(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) markRead(c *gin.Context) {
	if err := h.messages.MarkRead(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
