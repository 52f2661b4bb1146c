package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/pulsechat/internal/middleware"
	"github.com/lalith-99/pulsechat/internal/models"
	"github.com/lalith-99/pulsechat/internal/service"
	"go.uber.org/zap"
)

type CallHandler struct {
	calls  *service.CallRelay
	logger *zap.Logger
}

func NewCallHandler(calls *service.CallRelay, logger *zap.Logger) *CallHandler {
	return &CallHandler{calls: calls, logger: logger}
}

// Signal handles POST /v1/call/signal
func (h *CallHandler) Signal(c *gin.Context) {
	var sig models.CallSignal
	if err := c.ShouldBindJSON(&sig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	delivery, err := h.calls.Relay(c.Request.Context(), middleware.GetUserID(c), sig)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "signal_sent", "delivered": delivery.Delivered()})
}
