package realtime

import (
	"net/http"

	"storyweave-server/internal/authutils"
	"storyweave-server/internal/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin проверяется CORS-слоем HTTP API; браузерные ws-клиенты
		// аутентифицируются токеном.
		return true
	},
}

// WSHandler апгрейдит HTTP запрос до WebSocket соединения редактора.
type WSHandler struct {
	logger   *zap.Logger
	hub      *Hub
	registry *SessionRegistry
	presence PresenceNotifier
	verifier *authutils.JWTVerifier
	tokens   interfaces.TokenRepository
}

func NewWSHandler(
	hub *Hub,
	registry *SessionRegistry,
	presence PresenceNotifier,
	verifier *authutils.JWTVerifier,
	tokens interfaces.TokenRepository,
	logger *zap.Logger,
) *WSHandler {
	return &WSHandler{
		logger:   logger.Named("WSHandler"),
		hub:      hub,
		registry: registry,
		presence: presence,
		verifier: verifier,
		tokens:   tokens,
	}
}

// ServeWS аутентифицирует клиента по токену из query-параметра
// (браузерный WebSocket не умеет ставить заголовки) и запускает пампы.
func (h *WSHandler) ServeWS(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := h.verifier.Verify(tokenString)
	if err != nil {
		h.logger.Warn("WebSocket auth failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if claims.ID != "" {
		revoked, err := h.tokens.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if revoked {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}
	}
	userID, err := claims.UserID()
	if err != nil {
		h.logger.Warn("Invalid user ID in token", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Ответ уже записан апгрейдером.
		h.logger.Error("Failed to upgrade connection", zap.String("userID", userID.String()), zap.Error(err))
		return
	}

	h.logger.Info("WebSocket connection established", zap.String("userID", userID.String()))
	client := NewClient(h.hub, h.registry, h.presence, conn, userID, h.logger)
	client.Start()
}
