package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/pulsechat/internal/middleware"
	"github.com/lalith-99/pulsechat/internal/service"
	"go.uber.org/zap"
)

// UserHandler handles profile, directory and presence endpoints.
type UserHandler struct {
	accounts *service.AccountService
	presence *service.PresenceService
	messages *service.MessageService
	logger   *zap.Logger
}

func NewUserHandler(
	accounts *service.AccountService,
	presence *service.PresenceService,
	messages *service.MessageService,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{accounts: accounts, presence: presence, messages: messages, logger: logger}
}

// GetMe handles GET /v1/users/me
//
// AuthMiddleware already resolved the caller, so this is a pure read of
// the request context.
func (h *UserHandler) GetMe(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, user.Profile())
}

// List handles GET /v1/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.accounts.Users(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Contacts handles GET /v1/users/contacts
func (h *UserHandler) Contacts(c *gin.Context) {
	contacts, err := h.messages.Contacts(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

type statusRequest struct {
	Status string `json:"status" form:"status"`
}

// UpdateStatus handles POST /v1/users/status
//
// Accepts {"status": "..."} or ?status=... for older clients.
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	status, ok := bindStatus(c)
	if !ok {
		return
	}

	_, delivery, err := h.presence.SetStatus(c.Request.Context(), middleware.GetUserID(c), status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "delivered": delivery.Delivered()})
}

// bindStatus reads a status from the query string or the JSON body.
func bindStatus(c *gin.Context) (string, bool) {
	if s := c.Query("status"); s != "" {
		return s, true
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return req.Status, true
}
