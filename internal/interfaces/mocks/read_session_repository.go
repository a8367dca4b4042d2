package mocks

import (
	"context"

	"storyweave-server/internal/interfaces"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock ReadSessionRepository
type ReadSessionRepository struct {
	mock.Mock
}

func (m *ReadSessionRepository) Create(ctx context.Context, session *interfaces.ReadSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *ReadSessionRepository) Advance(ctx context.Context, sessionID, nodeID uuid.UUID) (*interfaces.ReadSession, error) {
	args := m.Called(ctx, sessionID, nodeID)
	session, _ := args.Get(0).(*interfaces.ReadSession)
	return session, args.Error(1)
}

func (m *ReadSessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (*interfaces.ReadSession, error) {
	args := m.Called(ctx, sessionID)
	session, _ := args.Get(0).(*interfaces.ReadSession)
	return session, args.Error(1)
}
