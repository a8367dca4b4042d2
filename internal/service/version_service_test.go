package service

import (
	"context"
	"testing"

	"storyweave-server/internal/interfaces/mocks"
	"storyweave-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type versionMocks struct {
	versions *mocks.StoryVersionRepository
	nodes    *mocks.StoryNodeRepository
	stars    *mocks.StarRepository
}

func newVersionService(t *testing.T) (*VersionService, *versionMocks) {
	t.Helper()
	m := &versionMocks{
		versions: new(mocks.StoryVersionRepository),
		nodes:    new(mocks.StoryNodeRepository),
		stars:    new(mocks.StarRepository),
	}
	svc := NewVersionService(m.versions, m.nodes, m.stars, zap.NewNop())
	return svc, m
}

func TestVersionService_GetVersion(t *testing.T) {
	ctx := context.Background()
	svc, m := newVersionService(t)
	storyID := uuid.New()
	version := &models.StoryVersion{
		ID: uuid.New(), StoryID: storyID, VersionNumber: 2,
		NodeIDs:   []uuid.UUID{uuid.New(), uuid.New(), uuid.New()},
		ReadCount: 11,
	}
	m.versions.On("GetByID", ctx, version.ID).Return(version, nil)
	m.stars.On("CountByStory", ctx, storyID).Return(int64(5), nil)

	got, err := svc.GetVersion(ctx, version.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stats.TotalNodes)
	assert.Equal(t, int64(11), got.Stats.ReadCount)
	assert.Equal(t, int64(5), got.Stats.StarCount)
}

func TestVersionService_AddNodeToVersion(t *testing.T) {
	ctx := context.Background()
	storyID := uuid.New()

	t.Run("rejects published version", func(t *testing.T) {
		svc, m := newVersionService(t)
		version := &models.StoryVersion{ID: uuid.New(), StoryID: storyID, IsPublished: true}
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)

		_, err := svc.AddNodeToVersion(ctx, version.ID, uuid.New())
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("rejects node from another version", func(t *testing.T) {
		svc, m := newVersionService(t)
		version := &models.StoryVersion{ID: uuid.New(), StoryID: storyID}
		node := &models.StoryNode{ID: uuid.New(), StoryID: storyID, VersionID: uuid.New()}
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)
		m.nodes.On("GetByID", ctx, storyID, node.ID).Return(node, nil)

		_, err := svc.AddNodeToVersion(ctx, version.ID, node.ID)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("adds node to membership list", func(t *testing.T) {
		svc, m := newVersionService(t)
		version := &models.StoryVersion{ID: uuid.New(), StoryID: storyID}
		node := &models.StoryNode{ID: uuid.New(), StoryID: storyID, VersionID: version.ID}
		updated := &models.StoryVersion{ID: version.ID, StoryID: storyID, NodeIDs: []uuid.UUID{node.ID}}
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)
		m.nodes.On("GetByID", ctx, storyID, node.ID).Return(node, nil)
		m.versions.On("AddNodeID", ctx, version.ID, node.ID).Return(updated, nil)

		got, err := svc.AddNodeToVersion(ctx, version.ID, node.ID)
		require.NoError(t, err)
		assert.Contains(t, got.NodeIDs, node.ID)
	})
}

func TestVersionService_IncrementReadCount(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects draft version", func(t *testing.T) {
		svc, m := newVersionService(t)
		version := &models.StoryVersion{ID: uuid.New(), IsPublished: false}
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)

		_, err := svc.IncrementReadCount(ctx, version.ID)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("increments published version", func(t *testing.T) {
		svc, m := newVersionService(t)
		version := &models.StoryVersion{ID: uuid.New(), IsPublished: true, ReadCount: 1}
		updated := &models.StoryVersion{ID: version.ID, IsPublished: true, ReadCount: 2}
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)
		m.versions.On("IncrementReadCount", ctx, version.ID).Return(updated, nil)

		got, err := svc.IncrementReadCount(ctx, version.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.ReadCount)
	})
}

func TestVersionService_GetNodeTree(t *testing.T) {
	ctx := context.Background()
	storyID := uuid.New()

	t.Run("builds branching tree with shared descendant", func(t *testing.T) {
		svc, m := newVersionService(t)
		versionID := uuid.New()

		// root разветвляется на две опции, обе ведут в общий параграф.
		shared := &models.StoryNode{ID: uuid.New(), Type: models.NodeTypeParagraph, TargetNodeIDs: []uuid.UUID{}}
		optA := &models.StoryNode{ID: uuid.New(), Type: models.NodeTypeOption, TargetNodeIDs: []uuid.UUID{shared.ID}}
		optB := &models.StoryNode{ID: uuid.New(), Type: models.NodeTypeOption, TargetNodeIDs: []uuid.UUID{shared.ID}}
		root := &models.StoryNode{ID: uuid.New(), Type: models.NodeTypeParagraph, TargetNodeIDs: []uuid.UUID{optA.ID, optB.ID}}
		version := &models.StoryVersion{
			ID: versionID, StoryID: storyID, RootNodeID: &root.ID,
			NodeIDs: []uuid.UUID{root.ID, optA.ID, optB.ID, shared.ID},
		}

		m.versions.On("GetByID", ctx, versionID).Return(version, nil)
		m.nodes.On("ListByVersion", ctx, storyID, versionID).
			Return([]*models.StoryNode{root, optA, optB, shared}, nil)

		forest, err := svc.GetNodeTree(ctx, storyID, versionID)
		require.NoError(t, err)
		require.Len(t, forest, 1)
		tree := forest[0]
		assert.Equal(t, root.ID, tree.StoryNode.ID)
		require.Len(t, tree.Children, 2)

		// Общий потомок разворачивается в обеих ветвях.
		require.Len(t, tree.Children[0].Children, 1)
		require.Len(t, tree.Children[1].Children, 1)
		assert.Equal(t, shared.ID, tree.Children[0].Children[0].StoryNode.ID)
		assert.Equal(t, shared.ID, tree.Children[1].Children[0].StoryNode.ID)
	})

	t.Run("skips dangling target references", func(t *testing.T) {
		svc, m := newVersionService(t)
		versionID := uuid.New()
		root := &models.StoryNode{ID: uuid.New(), Type: models.NodeTypeParagraph, TargetNodeIDs: []uuid.UUID{uuid.New()}}
		version := &models.StoryVersion{
			ID: versionID, StoryID: storyID, RootNodeID: &root.ID,
			NodeIDs: []uuid.UUID{root.ID},
		}
		m.versions.On("GetByID", ctx, versionID).Return(version, nil)
		m.nodes.On("ListByVersion", ctx, storyID, versionID).Return([]*models.StoryNode{root}, nil)

		forest, err := svc.GetNodeTree(ctx, storyID, versionID)
		require.NoError(t, err)
		require.Len(t, forest, 1)
		assert.Empty(t, forest[0].Children)
	})

	t.Run("falls back to parentless nodes when root pointer is broken", func(t *testing.T) {
		svc, m := newVersionService(t)
		versionID := uuid.New()
		staleRootID := uuid.New()
		leaf := &models.StoryNode{ID: uuid.New(), Type: models.NodeTypeParagraph, TargetNodeIDs: []uuid.UUID{}}
		opt := &models.StoryNode{ID: uuid.New(), Type: models.NodeTypeOption,
			ParentNodeIDs: []uuid.UUID{}, TargetNodeIDs: []uuid.UUID{leaf.ID}}
		leaf.ParentNodeIDs = []uuid.UUID{opt.ID}
		version := &models.StoryVersion{
			ID: versionID, StoryID: storyID, RootNodeID: &staleRootID,
			NodeIDs: []uuid.UUID{opt.ID, leaf.ID},
		}
		m.versions.On("GetByID", ctx, versionID).Return(version, nil)
		m.nodes.On("ListByVersion", ctx, storyID, versionID).Return([]*models.StoryNode{opt, leaf}, nil)

		forest, err := svc.GetNodeTree(ctx, storyID, versionID)
		require.NoError(t, err)
		require.Len(t, forest, 1)
		assert.Equal(t, opt.ID, forest[0].StoryNode.ID)
		require.Len(t, forest[0].Children, 1)
		assert.Equal(t, leaf.ID, forest[0].Children[0].StoryNode.ID)
	})

	t.Run("fails when no node can serve as a root", func(t *testing.T) {
		svc, m := newVersionService(t)
		versionID := uuid.New()
		rootID := uuid.New()
		// Все узлы имеют родителей, указатель на корень битый.
		a := &models.StoryNode{ID: uuid.New(), ParentNodeIDs: []uuid.UUID{uuid.New()}}
		version := &models.StoryVersion{ID: versionID, StoryID: storyID, RootNodeID: &rootID}
		m.versions.On("GetByID", ctx, versionID).Return(version, nil)
		m.nodes.On("ListByVersion", ctx, storyID, versionID).Return([]*models.StoryNode{a}, nil)

		_, err := svc.GetNodeTree(ctx, storyID, versionID)
		assert.ErrorIs(t, err, models.ErrGraphCorrupted)
	})

	t.Run("rejects version of another story", func(t *testing.T) {
		svc, m := newVersionService(t)
		versionID := uuid.New()
		version := &models.StoryVersion{ID: versionID, StoryID: uuid.New()}
		m.versions.On("GetByID", ctx, versionID).Return(version, nil)

		_, err := svc.GetNodeTree(ctx, storyID, versionID)
		assert.ErrorIs(t, err, models.ErrVersionNotFound)
	})
}
