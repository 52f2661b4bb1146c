package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/pulsechat/internal/middleware"
	"github.com/lalith-99/pulsechat/internal/realtime"
	"github.com/lalith-99/pulsechat/internal/service"
	"go.uber.org/zap"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps is everything the router hands out to handlers.
type Deps struct {
	Accounts *service.AccountService
	Presence *service.PresenceService
	Messages *service.MessageService
	Calls    *service.CallRelay

	// Gateway serves GET /v1/ws. Nil unless the redis broker is in use;
	// with Centrifugo, clients connect to Centrifugo directly.
	Gateway *realtime.Gateway

	Health map[string]HealthCheck
	Logger *zap.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(d.Logger), gin.Recovery())

	authH := NewAuthHandler(d.Accounts, d.Logger)
	userH := NewUserHandler(d.Accounts, d.Presence, d.Messages, d.Logger)
	msgH := NewMessageHandler(d.Messages, d.Logger)
	callH := NewCallHandler(d.Calls, d.Logger)

	// Public. Load balancers hit /v1/health; if it required auth, they
	// couldn't health-check us.
	r.GET("/v1/health", healthHandler(d.Health, d.Logger))
	r.POST("/v1/auth/register", authH.Register)
	r.POST("/v1/auth/token", authH.Login)
	if d.Gateway != nil {
		// Authenticated by the channel token in the query string: browsers
		// can't set headers on a websocket handshake.
		r.GET("/v1/ws", d.Gateway.ServeWS)
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(d.Accounts, d.Logger))

	v1.GET("/users/me", userH.GetMe)
	v1.GET("/users", userH.List)
	v1.GET("/users/contacts", userH.Contacts)
	v1.POST("/users/status", userH.UpdateStatus)

	v1.POST("/messages", msgH.Create)
	v1.GET("/messages/:contactId", msgH.List)
	v1.POST("/messages/:id/status", msgH.UpdateStatus)

	v1.POST("/call/signal", callH.Signal)

	return r
}

func healthHandler(checks map[string]HealthCheck, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(gin.H, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				deps[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{"status": overall, "dependencies": deps})
	}
}
