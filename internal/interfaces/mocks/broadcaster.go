package mocks

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock RoomBroadcaster
type RoomBroadcaster struct {
	mock.Mock
}

func (m *RoomBroadcaster) BroadcastToStory(storyID uuid.UUID, event string, payload any) {
	m.Called(storyID, event, payload)
}
