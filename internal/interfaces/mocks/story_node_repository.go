package mocks

import (
	"context"

	"storyweave-server/internal/interfaces"
	"storyweave-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock StoryNodeRepository
type StoryNodeRepository struct {
	mock.Mock
}

func (m *StoryNodeRepository) Create(ctx context.Context, node *models.StoryNode) error {
	args := m.Called(ctx, node)
	return args.Error(0)
}

func (m *StoryNodeRepository) CreateBatch(ctx context.Context, nodes []*models.StoryNode) error {
	args := m.Called(ctx, nodes)
	return args.Error(0)
}

func (m *StoryNodeRepository) GetByID(ctx context.Context, storyID, nodeID uuid.UUID) (*models.StoryNode, error) {
	args := m.Called(ctx, storyID, nodeID)
	node, _ := args.Get(0).(*models.StoryNode)
	return node, args.Error(1)
}

func (m *StoryNodeRepository) List(ctx context.Context, filter interfaces.NodeFilter) ([]*models.StoryNode, error) {
	args := m.Called(ctx, filter)
	nodes, _ := args.Get(0).([]*models.StoryNode)
	return nodes, args.Error(1)
}

func (m *StoryNodeRepository) ListByVersion(ctx context.Context, storyID, versionID uuid.UUID) ([]*models.StoryNode, error) {
	args := m.Called(ctx, storyID, versionID)
	nodes, _ := args.Get(0).([]*models.StoryNode)
	return nodes, args.Error(1)
}

func (m *StoryNodeRepository) Update(ctx context.Context, storyID, nodeID uuid.UUID, upd interfaces.NodeUpdate) (*models.StoryNode, error) {
	args := m.Called(ctx, storyID, nodeID, upd)
	node, _ := args.Get(0).(*models.StoryNode)
	return node, args.Error(1)
}

func (m *StoryNodeRepository) SetEdges(ctx context.Context, nodeID uuid.UUID, parentIDs, targetIDs []uuid.UUID) error {
	args := m.Called(ctx, nodeID, parentIDs, targetIDs)
	return args.Error(0)
}

func (m *StoryNodeRepository) Delete(ctx context.Context, storyID, nodeID uuid.UUID) error {
	args := m.Called(ctx, storyID, nodeID)
	return args.Error(0)
}

func (m *StoryNodeRepository) ScrubReferences(ctx context.Context, storyID, nodeID uuid.UUID) error {
	args := m.Called(ctx, storyID, nodeID)
	return args.Error(0)
}

func (m *StoryNodeRepository) AddConnection(ctx context.Context, storyID, sourceID, targetID, updatedBy uuid.UUID) (*models.StoryNode, *models.StoryNode, error) {
	args := m.Called(ctx, storyID, sourceID, targetID, updatedBy)
	source, _ := args.Get(0).(*models.StoryNode)
	target, _ := args.Get(1).(*models.StoryNode)
	return source, target, args.Error(2)
}

func (m *StoryNodeRepository) RemoveConnection(ctx context.Context, storyID, sourceID, targetID, updatedBy uuid.UUID) (*models.StoryNode, *models.StoryNode, error) {
	args := m.Called(ctx, storyID, sourceID, targetID, updatedBy)
	source, _ := args.Get(0).(*models.StoryNode)
	target, _ := args.Get(1).(*models.StoryNode)
	return source, target, args.Error(2)
}

func (m *StoryNodeRepository) UpdatePosition(ctx context.Context, storyID, nodeID uuid.UUID, pos models.Position, updatedBy uuid.UUID) (*models.StoryNode, error) {
	args := m.Called(ctx, storyID, nodeID, pos, updatedBy)
	node, _ := args.Get(0).(*models.StoryNode)
	return node, args.Error(1)
}

func (m *StoryNodeRepository) AddActiveContributor(ctx context.Context, nodeID, userID uuid.UUID) (*models.StoryNode, error) {
	args := m.Called(ctx, nodeID, userID)
	node, _ := args.Get(0).(*models.StoryNode)
	return node, args.Error(1)
}

func (m *StoryNodeRepository) RemoveActiveContributor(ctx context.Context, nodeID, userID uuid.UUID) (*models.StoryNode, error) {
	args := m.Called(ctx, nodeID, userID)
	node, _ := args.Get(0).(*models.StoryNode)
	return node, args.Error(1)
}

func (m *StoryNodeRepository) RemoveContributorFromVersion(ctx context.Context, versionID, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, versionID, userID)
	return args.Get(0).(int64), args.Error(1)
}
