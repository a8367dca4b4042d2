package mocks

import (
	"context"
	"time"

	"storyweave-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) Create(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}

func (m *StoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}

func (m *StoryRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *StoryRepository) List(ctx context.Context, filter models.StoryFilter) ([]*models.Story, error) {
	args := m.Called(ctx, filter)
	stories, _ := args.Get(0).([]*models.Story)
	return stories, args.Error(1)
}

func (m *StoryRepository) UpdateMeta(ctx context.Context, id uuid.UUID, upd models.StoryMetaUpdate) (*models.Story, error) {
	args := m.Called(ctx, id, upd)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}

func (m *StoryRepository) SetCoverImageURL(ctx context.Context, id uuid.UUID, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

func (m *StoryRepository) SetPublishedVersion(ctx context.Context, id, versionID uuid.UUID, publishedAt time.Time) error {
	args := m.Called(ctx, id, versionID, publishedAt)
	return args.Error(0)
}

func (m *StoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *StoryRepository) AddActiveContributor(ctx context.Context, storyID, userID uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, storyID, userID)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}

func (m *StoryRepository) RemoveActiveContributor(ctx context.Context, storyID, userID uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, storyID, userID)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}

func (m *StoryRepository) AddContributor(ctx context.Context, storyID, userID uuid.UUID, joinedAt time.Time) (bool, error) {
	args := m.Called(ctx, storyID, userID, joinedAt)
	return args.Bool(0), args.Error(1)
}
