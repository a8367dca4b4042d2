package realtime

import (
	"context"
	"encoding/json"
	"time"

	"storyweave-server/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Время, разрешенное для записи сообщения клиенту.
	writeWait = 10 * time.Second
	// Время, разрешенное для чтения следующего pong сообщения от клиента.
	pongWait = 60 * time.Second
	// Отправлять пинги клиенту с этим периодом. Должно быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Максимальный размер сообщения, разрешенный от клиента.
	maxMessageSize = 512
)

// PresenceNotifier — операции присутствия, которые realtime-слой
// дергает в ответ на кадры клиента и обрыв соединения.
type PresenceNotifier interface {
	JoinDraftVersion(ctx context.Context, userID, versionID uuid.UUID) (*models.Story, error)
	LeaveStoryDraft(ctx context.Context, userID, storyID uuid.UUID) error
	EnterNode(ctx context.Context, userID, storyID, nodeID uuid.UUID) (*models.StoryNode, error)
	LeaveNode(ctx context.Context, userID, storyID, nodeID uuid.UUID) (*models.StoryNode, error)
	CleanupUser(ctx context.Context, userID, storyID, versionID uuid.UUID)
}

// Client — одно WebSocket соединение аутентифицированного пользователя.
type Client struct {
	ID     string
	UserID uuid.UUID

	hub      *Hub
	registry *SessionRegistry
	presence PresenceNotifier
	conn     *websocket.Conn
	send     chan []byte
	logger   *zap.Logger

	// roomID защищен мьютексом хаба.
	roomID *uuid.UUID
}

func NewClient(hub *Hub, registry *SessionRegistry, presence PresenceNotifier, conn *websocket.Conn, userID uuid.UUID, logger *zap.Logger) *Client {
	connID := uuid.New().String()
	return &Client{
		ID:       connID,
		UserID:   userID,
		hub:      hub,
		registry: registry,
		presence: presence,
		conn:     conn,
		send:     make(chan []byte, 256),
		logger:   logger.Named("Client").With(zap.String("connID", connID), zap.String("userID", userID.String())),
	}
}

// Start регистрирует соединение в хабе и запускает пампы.
func (c *Client) Start() {
	c.hub.register <- c
	go c.writePump()
	go c.readPump()
}

// readPump читает кадры клиента и диспатчит их. При выходе соединение
// дерегистрируется, а отметки присутствия снимаются.
func (c *Client) readPump() {
	defer func() {
		c.cleanup()
		c.hub.unregister <- c
		_ = c.conn.Close()
		c.logger.Debug("readPump finished")
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error", zap.Error(err))
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("Malformed client message", zap.Error(err))
			continue
		}
		c.dispatch(msg)
	}
}

// dispatch обрабатывает один кадр клиента. Ошибки присутствия не рвут
// соединение: клиент получает join-story-draft-error и решает сам.
func (c *Client) dispatch(msg ClientMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch msg.Type {
	case MessageJoinStoryRoom:
		versionID, err := uuid.Parse(msg.VersionID)
		if err != nil {
			c.sendEvent(EventJoinDraftError, map[string]string{"error": "invalid versionId"})
			return
		}
		// История определяется по версии на сервере: клиенту не верим.
		story, err := c.presence.JoinDraftVersion(ctx, c.UserID, versionID)
		if err != nil {
			c.logger.Warn("Failed to join story draft", zap.String("versionID", msg.VersionID), zap.Error(err))
			c.sendEvent(EventJoinDraftError, map[string]string{"error": err.Error()})
			return
		}
		c.registry.Set(c.ID, Session{UserID: c.UserID, StoryID: story.ID, VersionID: versionID})
		c.hub.JoinStory(c, story.ID)

	case MessageLeaveStoryRoom:
		session, ok := c.registry.Delete(c.ID)
		if !ok {
			return
		}
		c.hub.LeaveStory(c)
		if err := c.presence.LeaveStoryDraft(ctx, c.UserID, session.StoryID); err != nil {
			c.logger.Warn("Failed to leave story draft", zap.Error(err))
		}

	case MessageJoinNode:
		session, nodeID, ok := c.nodeTarget(msg)
		if !ok {
			return
		}
		if _, err := c.presence.EnterNode(ctx, c.UserID, session.StoryID, nodeID); err != nil {
			c.logger.Warn("Failed to enter node", zap.String("nodeID", msg.NodeID), zap.Error(err))
		}

	case MessageLeaveNode:
		session, nodeID, ok := c.nodeTarget(msg)
		if !ok {
			return
		}
		if _, err := c.presence.LeaveNode(ctx, c.UserID, session.StoryID, nodeID); err != nil {
			c.logger.Warn("Failed to leave node", zap.String("nodeID", msg.NodeID), zap.Error(err))
		}

	default:
		c.logger.Warn("Unknown client message type", zap.String("type", msg.Type))
	}
}

func (c *Client) nodeTarget(msg ClientMessage) (Session, uuid.UUID, bool) {
	session, ok := c.registry.Get(c.ID)
	if !ok {
		c.logger.Warn("Node message before joining a story room", zap.String("type", msg.Type))
		return Session{}, uuid.Nil, false
	}
	nodeID, err := uuid.Parse(msg.NodeID)
	if err != nil {
		c.logger.Warn("Invalid nodeId in client message", zap.String("nodeId", msg.NodeID))
		return Session{}, uuid.Nil, false
	}
	return session, nodeID, true
}

// cleanup снимает отметки присутствия при обрыве соединения.
func (c *Client) cleanup() {
	session, ok := c.registry.Delete(c.ID)
	if !ok {
		return
	}
	c.hub.LeaveStory(c)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c.presence.CleanupUser(ctx, session.UserID, session.StoryID, session.VersionID)
	c.logger.Info("Presence cleaned up after disconnect", zap.String("storyID", session.StoryID.String()))
}

// sendEvent отправляет событие только этому соединению.
func (c *Client) sendEvent(event string, payload any) {
	data, err := json.Marshal(ServerEvent{Event: event, Payload: payload})
	if err != nil {
		c.logger.Error("Failed to marshal event", zap.String("event", event), zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("Send queue full, dropping event", zap.String("event", event))
	}
}

// writePump пишет события из очереди в соединение и шлет пинги.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		c.logger.Debug("writePump finished")
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
