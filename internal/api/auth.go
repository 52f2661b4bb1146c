package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/pulsechat/internal/service"
	"go.uber.org/zap"
)

// AuthHandler handles registration and login, the only public endpoints
// besides health. They don't go through AuthMiddleware because the caller
// has no access token yet (that's what these endpoints produce).
type AuthHandler struct {
	accounts *service.AccountService
	logger   *zap.Logger
}

func NewAuthHandler(accounts *service.AccountService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

type registerRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Name     string  `json:"name"`
	Avatar   *string `json:"avatar"`
}

// loginRequest binds from JSON or from an OAuth2-style password form.
type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Register handles POST /v1/auth/register
//
// Returns the new user's public profile. The account starts offline;
// logging in is what brings it online.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Avatar:   req.Avatar,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, user.Profile())
}

// Login handles POST /v1/auth/token
//
// The response carries both token families: access_token for the API and
// channel_token for the realtime broker, plus the broker's websocket URL.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	// ShouldBind picks JSON or form binding from the Content-Type.
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
