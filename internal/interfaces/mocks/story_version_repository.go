package mocks

import (
	"context"

	"storyweave-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock StoryVersionRepository
type StoryVersionRepository struct {
	mock.Mock
}

func (m *StoryVersionRepository) Create(ctx context.Context, version *models.StoryVersion) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *StoryVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StoryVersion, error) {
	args := m.Called(ctx, id)
	version, _ := args.Get(0).(*models.StoryVersion)
	return version, args.Error(1)
}

func (m *StoryVersionRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]*models.StoryVersion, error) {
	args := m.Called(ctx, storyID)
	versions, _ := args.Get(0).([]*models.StoryVersion)
	return versions, args.Error(1)
}

func (m *StoryVersionRepository) GetDraft(ctx context.Context, storyID uuid.UUID) (*models.StoryVersion, error) {
	args := m.Called(ctx, storyID)
	version, _ := args.Get(0).(*models.StoryVersion)
	return version, args.Error(1)
}

func (m *StoryVersionRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *StoryVersionRepository) AddNodeID(ctx context.Context, versionID, nodeID uuid.UUID) (*models.StoryVersion, error) {
	args := m.Called(ctx, versionID, nodeID)
	version, _ := args.Get(0).(*models.StoryVersion)
	return version, args.Error(1)
}

func (m *StoryVersionRepository) RemoveNodeID(ctx context.Context, versionID, nodeID uuid.UUID) (*models.StoryVersion, error) {
	args := m.Called(ctx, versionID, nodeID)
	version, _ := args.Get(0).(*models.StoryVersion)
	return version, args.Error(1)
}

func (m *StoryVersionRepository) IncrementReadCount(ctx context.Context, id uuid.UUID) (*models.StoryVersion, error) {
	args := m.Called(ctx, id)
	version, _ := args.Get(0).(*models.StoryVersion)
	return version, args.Error(1)
}
