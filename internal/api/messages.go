package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thenoetrevino/tablero/internal/models"
	chatservice "github.com/thenoetrevino/tablero/internal/services/chat"
	"github.com/thenoetrevino/tablero/internal/types"
)

type chatController struct {
	svc chatservice.Service
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *chatController) list(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	msgs, err := h.svc.ListMessages(c.Request.Context(), types.BoardID(id), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *chatController) send(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	msg, err := h.svc.CreateMessage(c.Request.Context(), types.BoardID(id), req.Text, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
