package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/stringify/internal/handlers/dto"
	"github.com/thereayou/stringify/internal/services"
)

type HTTPMessageHandler struct {
	messages *services.MessageStore
	log      *slog.Logger
}

func NewHTTPMessageHandler(messages *services.MessageStore, log *slog.Logger) *HTTPMessageHandler {
	return &HTTPMessageHandler{messages: messages, log: log}
}

// History returns one page of a meeting's messages, oldest first. Page 0
// holds the most recent ones.
func (h *HTTPMessageHandler) History(c *gin.Context) {
	var query dto.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, h.log, err)
		return
	}

	messages, err := h.messages.History(c.Request.Context(), uuid.MustParse(query.ChatID), *query.Page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToMessageDtos(messages))
}
