package realtime

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient() *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: uuid.New(),
		send:   make(chan []byte, 4),
	}
}

// Hub создается один раз на весь пакет: метрики регистрируются в
// глобальном реестре prometheus, повторная регистрация паникует.
func TestHub(t *testing.T) {
	hub := NewHub(zap.NewNop())

	t.Run("join and leave story rooms", func(t *testing.T) {
		storyA := uuid.New()
		storyB := uuid.New()
		client := newTestClient()

		hub.JoinStory(client, storyA)
		assert.Equal(t, 1, hub.RoomSize(storyA))

		// Переход в другую историю выводит из предыдущей комнаты.
		hub.JoinStory(client, storyB)
		assert.Zero(t, hub.RoomSize(storyA))
		assert.Equal(t, 1, hub.RoomSize(storyB))

		hub.LeaveStory(client)
		assert.Zero(t, hub.RoomSize(storyB))

		// Повторный выход безопасен.
		hub.LeaveStory(client)
	})

	t.Run("broadcast reaches room members only", func(t *testing.T) {
		storyID := uuid.New()
		member := newTestClient()
		outsider := newTestClient()
		hub.JoinStory(member, storyID)
		hub.JoinStory(outsider, uuid.New())

		hub.BroadcastToStory(storyID, EventNodeCreated, map[string]string{"hello": "world"})

		select {
		case data := <-member.send:
			var event ServerEvent
			require.NoError(t, json.Unmarshal(data, &event))
			assert.Equal(t, EventNodeCreated, event.Event)
		default:
			t.Fatal("room member did not receive the event")
		}

		select {
		case <-outsider.send:
			t.Fatal("outsider received an event from another room")
		default:
		}

		hub.LeaveStory(member)
		hub.LeaveStory(outsider)
	})

	t.Run("broadcast to empty room is a no-op", func(t *testing.T) {
		hub.BroadcastToStory(uuid.New(), EventNodeUpdated, nil)
	})

	t.Run("slow client does not block broadcast", func(t *testing.T) {
		storyID := uuid.New()
		slow := newTestClient()
		hub.JoinStory(slow, storyID)

		// Переполняем очередь: лишние события отбрасываются без блокировки.
		for i := 0; i < cap(slow.send)+3; i++ {
			hub.BroadcastToStory(storyID, EventNodeUpdated, i)
		}
		assert.Len(t, slow.send, cap(slow.send))

		hub.LeaveStory(slow)
	})
}
