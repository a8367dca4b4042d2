package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock StarRepository
type StarRepository struct {
	mock.Mock
}

func (m *StarRepository) Add(ctx context.Context, storyID, userID uuid.UUID) error {
	args := m.Called(ctx, storyID, userID)
	return args.Error(0)
}

func (m *StarRepository) Remove(ctx context.Context, storyID, userID uuid.UUID) error {
	args := m.Called(ctx, storyID, userID)
	return args.Error(0)
}

func (m *StarRepository) Exists(ctx context.Context, storyID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, storyID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *StarRepository) CountByStory(ctx context.Context, storyID uuid.UUID) (int64, error) {
	args := m.Called(ctx, storyID)
	return args.Get(0).(int64), args.Error(1)
}
