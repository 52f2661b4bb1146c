package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/pulsechat/internal/middleware"
	"github.com/lalith-99/pulsechat/internal/models"
	"github.com/lalith-99/pulsechat/internal/service"
	"go.uber.org/zap"
)

type MessageHandler struct {
	messages *service.MessageService
	logger   *zap.Logger
}

func NewMessageHandler(messages *service.MessageService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// sendMessageResponse is the stored message plus whether both live
// notifications reached the broker. delivered=false is not an error: the
// message is stored and shows up in history either way.
type sendMessageResponse struct {
	models.Message
	Delivered bool `json:"delivered"`
}

// Create handles POST /v1/messages
func (h *MessageHandler) Create(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.messages.Send(c.Request.Context(), middleware.GetUserID(c), req.ReceiverID, req.Content)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, sendMessageResponse{
		Message:   res.Message,
		Delivered: res.Deliveries.AllDelivered(),
	})
}

// List handles GET /v1/messages/:contactId
//
// The whole conversation, oldest first. No pagination: the cache holds the
// conversation as one list and serves it in one read.
func (h *MessageHandler) List(c *gin.Context) {
	msgs, err := h.messages.History(c.Request.Context(), middleware.GetUserID(c), c.Param("contactId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// UpdateStatus handles POST /v1/messages/:id/status
func (h *MessageHandler) UpdateStatus(c *gin.Context) {
	status, ok := bindStatus(c)
	if !ok {
		return
	}

	msg, delivery, err := h.messages.UpdateStatus(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "message": msg, "delivered": delivery.Delivered()})
}
