package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lume/internal/service"
)

// ChatHandler mantiene dependencias para la pagina de chat y el endpoint /ask.
type ChatHandler struct {
	logger   *zap.Logger
	chatServ *service.ChatService
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(logger *zap.Logger, chatServ *service.ChatService) *ChatHandler {
	return &ChatHandler{
		logger:   logger,
		chatServ: chatServ,
	}
}

// ChatPage maneja GET /chatpage.
func (h *ChatHandler) ChatPage(c *gin.Context) {
	c.HTML(http.StatusOK, "chatpage.html", pageData(c, "Chat", nil))
}

// Transcript maneja GET /chat: historial completo del usuario.
func (h *ChatHandler) Transcript(c *gin.Context) {
	username, _ := CurrentUsername(c)
	turns, err := h.chatServ.History(c.Request.Context(), username)
	if err != nil {
		h.logger.Error("load history failed", zap.Error(err), zap.String("username", username))
		renderError(c, http.StatusInternalServerError, "We could not load your conversation.")
		return
	}
	c.HTML(http.StatusOK, "chat.html", pageData(c, "History", gin.H{"Turns": turns}))
}

// Ask maneja POST /ask.
func (h *ChatHandler) Ask(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid ask request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	username, _ := CurrentUsername(c)
	exchange, err := h.chatServ.Send(c.Request.Context(), username, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMessageInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message must not be empty"})
		case errors.Is(err, service.ErrAgentUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "agent unavailable"})
		default:
			h.logger.Error("send message failed", zap.Error(err), zap.String("username", username))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process message"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": exchange.ModelTurn.Content})
}
