package realtime

import (
	"encoding/json"
	"sync"

	"storyweave-server/internal/interfaces"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Compile-time check
var _ interfaces.RoomBroadcaster = (*Hub)(nil)

// Hub ведет комнаты историй: каждое соединение состоит максимум в одной
// комнате, события мутаций рассылаются всем участникам комнаты.
type Hub struct {
	logger     *zap.Logger
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[uuid.UUID]map[*Client]bool

	eventsTotal      *prometheus.CounterVec
	connectedClients prometheus.Gauge
}

func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		logger:     logger.Named("Hub"),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		eventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_events_total",
			Help: "Number of realtime events broadcast to story rooms.",
		}, []string{"event"}),
		connectedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_connected_clients",
			Help: "Number of currently connected websocket clients.",
		}),
	}
	return h
}

// Run обрабатывает регистрацию и дерегистрацию соединений.
// Запускается одной горутиной при старте сервера.
func (h *Hub) Run() {
	h.logger.Info("Hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.connectedClients.Inc()
			h.logger.Debug("Client registered",
				zap.String("connID", client.ID), zap.String("userID", client.UserID.String()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.removeFromRoomLocked(client)
				close(client.send)
			}
			h.mu.Unlock()
			h.connectedClients.Dec()
			h.logger.Debug("Client unregistered",
				zap.String("connID", client.ID), zap.String("userID", client.UserID.String()))
		}
	}
}

// JoinStory переводит соединение в комнату истории. Из предыдущей
// комнаты соединение выводится автоматически.
func (h *Hub) JoinStory(client *Client, storyID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoomLocked(client)
	room, ok := h.rooms[storyID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[storyID] = room
	}
	room[client] = true
	client.roomID = &storyID
}

// LeaveStory выводит соединение из его комнаты. Пустая комната удаляется.
func (h *Hub) LeaveStory(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoomLocked(client)
}

func (h *Hub) removeFromRoomLocked(client *Client) {
	if client.roomID == nil {
		return
	}
	if room, ok := h.rooms[*client.roomID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, *client.roomID)
		}
	}
	client.roomID = nil
}

// BroadcastToStory рассылает событие всем соединениям комнаты истории,
// включая инициатора. Вызывается сервисами строго после сохранения
// изменения.
func (h *Hub) BroadcastToStory(storyID uuid.UUID, event string, payload any) {
	data, err := json.Marshal(ServerEvent{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("Failed to marshal server event", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	room := h.rooms[storyID]
	recipients := make([]*Client, 0, len(room))
	for client := range room {
		recipients = append(recipients, client)
	}
	h.mu.RUnlock()

	h.eventsTotal.WithLabelValues(event).Inc()
	for _, client := range recipients {
		select {
		case client.send <- data:
		default:
			// Очередь клиента переполнена: он не успевает читать,
			// соединение будет закрыто его writePump.
			h.logger.Warn("Client send queue full, dropping event",
				zap.String("connID", client.ID), zap.String("event", event))
		}
	}
	h.logger.Debug("Event broadcast",
		zap.String("storyID", storyID.String()),
		zap.String("event", event),
		zap.Int("recipients", len(recipients)))
}

// RoomSize возвращает число соединений в комнате истории.
func (h *Hub) RoomSize(storyID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[storyID])
}
