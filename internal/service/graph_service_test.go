package service

import (
	"context"
	"testing"

	"storyweave-server/internal/interfaces/mocks"
	"storyweave-server/internal/models"
	"storyweave-server/internal/realtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type graphMocks struct {
	stories     *mocks.StoryRepository
	nodes       *mocks.StoryNodeRepository
	versions    *mocks.StoryVersionRepository
	users       *mocks.UserRepository
	broadcaster *mocks.RoomBroadcaster
}

func newGraphService(t *testing.T) (*GraphService, *graphMocks) {
	t.Helper()
	m := &graphMocks{
		stories:     new(mocks.StoryRepository),
		nodes:       new(mocks.StoryNodeRepository),
		versions:    new(mocks.StoryVersionRepository),
		users:       new(mocks.UserRepository),
		broadcaster: new(mocks.RoomBroadcaster),
	}
	svc := NewGraphService(m.stories, m.nodes, m.versions, m.users, m.broadcaster, zap.NewNop())
	return svc, m
}

// draftFixture собирает черновик с корневым параграфом, опцией и
// вторым параграфом: root -> opt -> para.
func draftFixture() (storyID uuid.UUID, version *models.StoryVersion, root, opt, para *models.StoryNode) {
	storyID = uuid.New()
	versionID := uuid.New()
	rootID := uuid.New()

	root = &models.StoryNode{
		ID: rootID, StoryID: storyID, VersionID: versionID,
		Type:          models.NodeTypeParagraph,
		ParentNodeIDs: []uuid.UUID{}, TargetNodeIDs: []uuid.UUID{},
		ActiveContributors: []uuid.UUID{},
	}
	opt = &models.StoryNode{
		ID: uuid.New(), StoryID: storyID, VersionID: versionID,
		Type:          models.NodeTypeOption,
		ParentNodeIDs: []uuid.UUID{}, TargetNodeIDs: []uuid.UUID{},
		ActiveContributors: []uuid.UUID{},
	}
	para = &models.StoryNode{
		ID: uuid.New(), StoryID: storyID, VersionID: versionID,
		Type:          models.NodeTypeParagraph,
		ParentNodeIDs: []uuid.UUID{}, TargetNodeIDs: []uuid.UUID{},
		ActiveContributors: []uuid.UUID{},
	}
	version = &models.StoryVersion{
		ID: versionID, StoryID: storyID, VersionNumber: 1,
		RootNodeID: &rootID,
		NodeIDs:    []uuid.UUID{root.ID, opt.ID, para.ID},
	}
	return storyID, version, root, opt, para
}

func TestGraphService_CreateNode(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("rejects unknown node type", func(t *testing.T) {
		svc, _ := newGraphService(t)
		_, err := svc.CreateNode(ctx, userID, uuid.New(), models.CreateNodeRequest{Type: "chapter"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("rejects chapter title on option node", func(t *testing.T) {
		svc, _ := newGraphService(t)
		title := "Глава 1"
		_, err := svc.CreateNode(ctx, userID, uuid.New(), models.CreateNodeRequest{
			Type:         models.NodeTypeOption,
			VersionID:    uuid.New(),
			ChapterTitle: &title,
		})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("rejects empty content text", func(t *testing.T) {
		svc, _ := newGraphService(t)
		_, err := svc.CreateNode(ctx, userID, uuid.New(), models.CreateNodeRequest{
			Type:      models.NodeTypeParagraph,
			VersionID: uuid.New(),
		})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("rejects creation in published version", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, version, _, _, _ := draftFixture()
		version.IsPublished = true
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)

		_, err := svc.CreateNode(ctx, userID, storyID, models.CreateNodeRequest{
			Type:      models.NodeTypeParagraph,
			VersionID: version.ID,
			Content:   models.NodeContent{Text: "Текст"},
		})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("creates node and broadcasts after persist", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, version, _, _, _ := draftFixture()
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)
		m.nodes.On("Create", ctx, mock.AnythingOfType("*models.StoryNode")).Return(nil)
		m.broadcaster.On("BroadcastToStory", storyID, realtime.EventNodeCreated, mock.Anything).Return()
		m.users.On("TouchEditedStory", ctx, userID, storyID, mock.Anything).Return(nil)

		node, err := svc.CreateNode(ctx, userID, storyID, models.CreateNodeRequest{
			Type:      models.NodeTypeParagraph,
			VersionID: version.ID,
			Position:  models.Position{X: 10, Y: 20},
			Content:   models.NodeContent{Text: "Жили-были..."},
		})
		require.NoError(t, err)
		assert.Equal(t, storyID, node.StoryID)
		assert.Equal(t, version.ID, node.VersionID)
		assert.Equal(t, userID, node.CreatedBy)
		assert.Empty(t, node.ParentNodeIDs)
		assert.Empty(t, node.TargetNodeIDs)
		m.broadcaster.AssertExpectations(t)
	})

	t.Run("applies initial edges from the request", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, version, root, _, _ := draftFixture()
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)
		m.nodes.On("Create", ctx, mock.AnythingOfType("*models.StoryNode")).Return(nil)
		m.broadcaster.On("BroadcastToStory", storyID, realtime.EventNodeCreated, mock.Anything).Return()
		m.users.On("TouchEditedStory", ctx, userID, storyID, mock.Anything).Return(nil)

		node, err := svc.CreateNode(ctx, userID, storyID, models.CreateNodeRequest{
			Type:          models.NodeTypeOption,
			VersionID:     version.ID,
			Content:       models.NodeContent{Text: "Свернуть в лес"},
			ParentNodeIDs: []uuid.UUID{root.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{root.ID}, node.ParentNodeIDs)
		assert.Empty(t, node.TargetNodeIDs)
	})
}

func TestGraphService_CreateConnection(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("rejects self connection", func(t *testing.T) {
		svc, _ := newGraphService(t)
		id := uuid.New()
		_, err := svc.CreateConnection(ctx, userID, uuid.New(), models.ConnectionRequest{
			SourceNodeID: id, TargetNodeID: id,
		})
		assert.ErrorIs(t, err, models.ErrConnectionCycle)
	})

	t.Run("rejects same type connection", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, version, root, _, para := draftFixture()
		m.nodes.On("GetByID", ctx, storyID, root.ID).Return(root, nil)
		m.nodes.On("GetByID", ctx, storyID, para.ID).Return(para, nil)
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)

		_, err := svc.CreateConnection(ctx, userID, storyID, models.ConnectionRequest{
			SourceNodeID: root.ID, TargetNodeID: para.ID,
		})
		assert.ErrorIs(t, err, models.ErrSameTypeConnection)
	})

	t.Run("rejects second outgoing edge from option", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, version, _, opt, para := draftFixture()
		opt.TargetNodeIDs = []uuid.UUID{uuid.New()}
		m.nodes.On("GetByID", ctx, storyID, opt.ID).Return(opt, nil)
		m.nodes.On("GetByID", ctx, storyID, para.ID).Return(para, nil)
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)

		_, err := svc.CreateConnection(ctx, userID, storyID, models.ConnectionRequest{
			SourceNodeID: opt.ID, TargetNodeID: para.ID,
		})
		assert.ErrorIs(t, err, models.ErrOptionAlreadyLinked)
	})

	t.Run("rejects duplicate connection", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, version, root, opt, _ := draftFixture()
		root.TargetNodeIDs = []uuid.UUID{opt.ID}
		m.nodes.On("GetByID", ctx, storyID, root.ID).Return(root, nil)
		m.nodes.On("GetByID", ctx, storyID, opt.ID).Return(opt, nil)
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)

		_, err := svc.CreateConnection(ctx, userID, storyID, models.ConnectionRequest{
			SourceNodeID: root.ID, TargetNodeID: opt.ID,
		})
		assert.ErrorIs(t, err, models.ErrDuplicateConnection)
	})

	t.Run("rejects incoming edge to root", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, version, root, opt, _ := draftFixture()
		m.nodes.On("GetByID", ctx, storyID, opt.ID).Return(opt, nil)
		m.nodes.On("GetByID", ctx, storyID, root.ID).Return(root, nil)
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)

		_, err := svc.CreateConnection(ctx, userID, storyID, models.ConnectionRequest{
			SourceNodeID: opt.ID, TargetNodeID: root.ID,
		})
		assert.ErrorIs(t, err, models.ErrRootIncomingEdge)
	})

	t.Run("rejects connection that closes a cycle", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, version, root, opt, para := draftFixture()
		// para -> opt уже есть; добавление opt -> para замкнуло бы цикл.
		para.TargetNodeIDs = []uuid.UUID{opt.ID}
		opt.ParentNodeIDs = []uuid.UUID{para.ID}
		m.nodes.On("GetByID", ctx, storyID, opt.ID).Return(opt, nil)
		m.nodes.On("GetByID", ctx, storyID, para.ID).Return(para, nil)
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)
		m.nodes.On("ListByVersion", ctx, storyID, version.ID).
			Return([]*models.StoryNode{root, opt, para}, nil)

		_, err := svc.CreateConnection(ctx, userID, storyID, models.ConnectionRequest{
			SourceNodeID: opt.ID, TargetNodeID: para.ID,
		})
		assert.ErrorIs(t, err, models.ErrConnectionCycle)
	})

	t.Run("rejects cross version connection", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, _, root, opt, _ := draftFixture()
		opt.VersionID = uuid.New()
		m.nodes.On("GetByID", ctx, storyID, root.ID).Return(root, nil)
		m.nodes.On("GetByID", ctx, storyID, opt.ID).Return(opt, nil)

		_, err := svc.CreateConnection(ctx, userID, storyID, models.ConnectionRequest{
			SourceNodeID: root.ID, TargetNodeID: opt.ID,
		})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("creates connection and broadcasts both nodes", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, version, root, opt, _ := draftFixture()
		m.nodes.On("GetByID", ctx, storyID, root.ID).Return(root, nil)
		m.nodes.On("GetByID", ctx, storyID, opt.ID).Return(opt, nil)
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)
		m.nodes.On("ListByVersion", ctx, storyID, version.ID).
			Return([]*models.StoryNode{root, opt}, nil)

		updatedRoot := *root
		updatedRoot.TargetNodeIDs = []uuid.UUID{opt.ID}
		updatedOpt := *opt
		updatedOpt.ParentNodeIDs = []uuid.UUID{root.ID}
		m.nodes.On("AddConnection", ctx, storyID, root.ID, opt.ID, userID).
			Return(&updatedRoot, &updatedOpt, nil)
		m.broadcaster.On("BroadcastToStory", storyID, realtime.EventConnectionCreated, mock.Anything).Return()
		m.users.On("TouchEditedStory", ctx, userID, storyID, mock.Anything).Return(nil)

		payload, err := svc.CreateConnection(ctx, userID, storyID, models.ConnectionRequest{
			SourceNodeID: root.ID, TargetNodeID: opt.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{opt.ID}, payload.Source.TargetNodeIDs)
		assert.Equal(t, []uuid.UUID{root.ID}, payload.Target.ParentNodeIDs)
		m.broadcaster.AssertExpectations(t)
	})
}

func TestGraphService_DeleteNode(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("rejects root node deletion", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, version, root, _, _ := draftFixture()
		m.nodes.On("GetByID", ctx, storyID, root.ID).Return(root, nil)
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)

		err := svc.DeleteNode(ctx, userID, storyID, root.ID)
		assert.ErrorIs(t, err, models.ErrRootNodeDeletion)
	})

	t.Run("rejects deletion of node edited by someone else", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, version, _, _, para := draftFixture()
		para.ActiveContributors = []uuid.UUID{uuid.New()}
		m.nodes.On("GetByID", ctx, storyID, para.ID).Return(para, nil)
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)

		err := svc.DeleteNode(ctx, userID, storyID, para.ID)
		assert.ErrorIs(t, err, models.ErrNodeBeingEdited)
	})

	t.Run("rejects deletion while the requester is still inside", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, version, _, _, para := draftFixture()
		para.ActiveContributors = []uuid.UUID{userID}
		m.nodes.On("GetByID", ctx, storyID, para.ID).Return(para, nil)
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)

		err := svc.DeleteNode(ctx, userID, storyID, para.ID)
		assert.ErrorIs(t, err, models.ErrNodeBeingEdited)
		m.nodes.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deletes a free node and scrubs references", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, version, _, _, para := draftFixture()
		m.nodes.On("GetByID", ctx, storyID, para.ID).Return(para, nil)
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)
		m.nodes.On("Delete", ctx, storyID, para.ID).Return(nil)
		m.nodes.On("ScrubReferences", ctx, storyID, para.ID).Return(nil)
		m.versions.On("RemoveNodeID", ctx, version.ID, para.ID).Return(version, nil)
		m.broadcaster.On("BroadcastToStory", storyID, realtime.EventNodeDeleted, mock.Anything).Return()
		m.users.On("TouchEditedStory", ctx, userID, storyID, mock.Anything).Return(nil)

		err := svc.DeleteNode(ctx, userID, storyID, para.ID)
		require.NoError(t, err)
		m.nodes.AssertCalled(t, "ScrubReferences", ctx, storyID, para.ID)
		m.versions.AssertCalled(t, "RemoveNodeID", ctx, version.ID, para.ID)
	})

	t.Run("returns not found for missing node", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID := uuid.New()
		nodeID := uuid.New()
		m.nodes.On("GetByID", ctx, storyID, nodeID).Return(nil, models.ErrNodeNotFound)

		err := svc.DeleteNode(ctx, userID, storyID, nodeID)
		assert.ErrorIs(t, err, models.ErrNodeNotFound)
	})
}

func TestGraphService_UpdateNode(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("rejects chapter title on option node", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, _, _, opt, _ := draftFixture()
		m.nodes.On("GetByID", ctx, storyID, opt.ID).Return(opt, nil)

		title := "Глава"
		_, err := svc.UpdateNode(ctx, userID, storyID, opt.ID, models.UpdateNodeRequest{ChapterTitle: &title})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("last writer wins without conflict errors", func(t *testing.T) {
		svc, m := newGraphService(t)
		storyID, version, _, _, para := draftFixture()
		text := "Новый текст"
		updated := *para
		updated.Content.Text = text

		m.nodes.On("GetByID", ctx, storyID, para.ID).Return(para, nil)
		m.versions.On("GetByID", ctx, version.ID).Return(version, nil)
		m.nodes.On("Update", ctx, storyID, para.ID, mock.Anything).Return(&updated, nil)
		m.broadcaster.On("BroadcastToStory", storyID, realtime.EventNodeUpdated, &updated).Return()
		m.users.On("TouchEditedStory", ctx, userID, storyID, mock.Anything).Return(nil)

		node, err := svc.UpdateNode(ctx, userID, storyID, para.ID, models.UpdateNodeRequest{ContentText: &text})
		require.NoError(t, err)
		assert.Equal(t, text, node.Content.Text)
	})
}

func TestGraphService_UpdateNodePosition(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	svc, m := newGraphService(t)
	storyID, version, _, _, para := draftFixture()
	pos := models.Position{X: 100.5, Y: -42}
	moved := *para
	moved.Position = pos

	m.nodes.On("GetByID", ctx, storyID, para.ID).Return(para, nil)
	m.versions.On("GetByID", ctx, version.ID).Return(version, nil)
	m.nodes.On("UpdatePosition", ctx, storyID, para.ID, pos, userID).Return(&moved, nil)
	m.broadcaster.On("BroadcastToStory", storyID, realtime.EventNodePositionUpdated, &moved).Return()

	node, err := svc.UpdateNodePosition(ctx, userID, storyID, para.ID, pos)
	require.NoError(t, err)
	assert.Equal(t, pos, node.Position)
	m.broadcaster.AssertExpectations(t)
	// Перестановка не считается правкой содержимого.
	m.users.AssertNotCalled(t, "TouchEditedStory", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGraphService_DeleteConnection(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	svc, m := newGraphService(t)
	storyID, version, root, opt, _ := draftFixture()
	root.TargetNodeIDs = []uuid.UUID{opt.ID}
	opt.ParentNodeIDs = []uuid.UUID{root.ID}

	m.nodes.On("GetByID", ctx, storyID, root.ID).Return(root, nil)
	m.nodes.On("GetByID", ctx, storyID, opt.ID).Return(opt, nil)
	m.versions.On("GetByID", ctx, version.ID).Return(version, nil)

	updatedRoot := *root
	updatedRoot.TargetNodeIDs = []uuid.UUID{}
	updatedOpt := *opt
	updatedOpt.ParentNodeIDs = []uuid.UUID{}
	m.nodes.On("RemoveConnection", ctx, storyID, root.ID, opt.ID, userID).
		Return(&updatedRoot, &updatedOpt, nil)
	// В комнату уходит только пара ID, без полных узлов.
	m.broadcaster.On("BroadcastToStory", storyID, realtime.EventConnectionDeleted, models.ConnectionDeletedPayload{
		SourceNodeID: root.ID,
		TargetNodeID: opt.ID,
	}).Return()

	payload, err := svc.DeleteConnection(ctx, userID, storyID, models.ConnectionRequest{
		SourceNodeID: root.ID, TargetNodeID: opt.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, payload.Source.TargetNodeIDs)
	assert.Empty(t, payload.Target.ParentNodeIDs)
	m.broadcaster.AssertExpectations(t)
	m.users.AssertNotCalled(t, "TouchEditedStory", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
