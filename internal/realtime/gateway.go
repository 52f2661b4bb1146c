package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lalith-99/pulsechat/internal/auth"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second    // time allowed to write a frame
	pongWait       = 60 * time.Second    // time allowed between pongs
	pingPeriod     = (pongWait * 9) / 10 // must be less than pongWait
	maxMessageSize = 512                 // clients only send control frames
)

// ChannelTokenVerifier checks a realtime subscription token and returns the
// user id it was issued for.
type ChannelTokenVerifier interface {
	VerifyChannelToken(token auth.ChannelToken) (string, error)
}

// Gateway is a minimal stand-in for Centrifugo when BROKER=redis: it
// authenticates a websocket with a channel token, subscribes to that
// user's channel plus the broadcast channel, and forwards publications.
// It is receive-only; everything a client does goes through the HTTP API.
type Gateway struct {
	broker   *RedisBroker
	tokens   ChannelTokenVerifier
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewGateway(broker *RedisBroker, tokens ChannelTokenVerifier, logger *zap.Logger) *Gateway {
	return &Gateway{
		broker: broker,
		tokens: tokens,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers connect from the frontend origin; the channel token
			// is what authenticates the socket.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// publication mirrors Centrifugo's push shape so the same client code can
// read from either broker: message.data.type / message.data.data.
type publication struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// ServeWS handles GET /v1/ws?token=<channel token>.
func (g *Gateway) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing channel token"})
		return
	}
	userID, err := g.tokens.VerifyChannelToken(auth.ChannelToken(token))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired channel token"})
		return
	}

	// The socket outlives the HTTP request context, so it gets its own.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Subscribe before upgrading: once the client sees the handshake
	// complete, nothing published afterwards can be missed.
	sub := g.broker.Subscribe(ctx, UserChannel(userID), BroadcastChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		g.logger.Error("realtime subscribe failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime unavailable"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	g.logger.Debug("realtime client connected", zap.String("user_id", userID))
	go g.readPump(conn, cancel)
	g.writePump(ctx, conn, sub.Channel())
	g.logger.Debug("realtime client disconnected", zap.String("user_id", userID))
}

// readPump discards client frames and keeps the read deadline moving on
// pongs. When the peer goes away it cancels the write side.
func (g *Gateway) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				g.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (g *Gateway) writePump(ctx context.Context, conn *websocket.Conn, msgs <-chan *redis.Message) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg, ok := <-msgs:
			if !ok {
				return
			}
			frame, err := json.Marshal(publication{
				Channel: msg.Channel,
				Data:    json.RawMessage(msg.Payload),
			})
			if err != nil {
				g.logger.Warn("dropping malformed publication", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
