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

type presenceMocks struct {
	stories     *mocks.StoryRepository
	nodes       *mocks.StoryNodeRepository
	versions    *mocks.StoryVersionRepository
	users       *mocks.UserRepository
	broadcaster *mocks.RoomBroadcaster
}

func newPresenceService(t *testing.T) (*PresenceService, *presenceMocks) {
	t.Helper()
	m := &presenceMocks{
		stories:     new(mocks.StoryRepository),
		nodes:       new(mocks.StoryNodeRepository),
		versions:    new(mocks.StoryVersionRepository),
		users:       new(mocks.UserRepository),
		broadcaster: new(mocks.RoomBroadcaster),
	}
	svc := NewPresenceService(m.stories, m.nodes, m.versions, m.users, m.broadcaster, zap.NewNop())
	return svc, m
}

func TestPresenceService_JoinStoryDraft(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	storyID := uuid.New()

	t.Run("first join stamps edited history and broadcasts presence", func(t *testing.T) {
		svc, m := newPresenceService(t)
		story := &models.Story{ID: storyID, ActiveContributors: []uuid.UUID{userID}}
		m.users.On("Ensure", ctx, userID).Return(nil)
		m.stories.On("AddActiveContributor", ctx, storyID, userID).Return(story, nil)
		m.stories.On("AddContributor", ctx, storyID, userID, mock.Anything).Return(true, nil)
		m.users.On("TouchEditedStory", ctx, userID, storyID, mock.Anything).Return(nil)
		m.broadcaster.On("BroadcastToStory", storyID, realtime.EventUserJoinedDraft, models.PresencePayload{
			UserID:             userID,
			StoryID:            storyID,
			ActiveContributors: []uuid.UUID{userID},
		}).Return()

		got, err := svc.JoinStoryDraft(ctx, userID, storyID)
		require.NoError(t, err)
		assert.Equal(t, story, got)
		m.users.AssertCalled(t, "TouchEditedStory", ctx, userID, storyID, mock.Anything)
		m.broadcaster.AssertExpectations(t)
	})

	t.Run("repeat join does not stamp edited history again", func(t *testing.T) {
		svc, m := newPresenceService(t)
		story := &models.Story{ID: storyID, ActiveContributors: []uuid.UUID{userID}}
		m.users.On("Ensure", ctx, userID).Return(nil)
		m.stories.On("AddActiveContributor", ctx, storyID, userID).Return(story, nil)
		m.stories.On("AddContributor", ctx, storyID, userID, mock.Anything).Return(false, nil)
		m.broadcaster.On("BroadcastToStory", storyID, realtime.EventUserJoinedDraft, mock.Anything).Return()

		_, err := svc.JoinStoryDraft(ctx, userID, storyID)
		require.NoError(t, err)
		m.users.AssertNotCalled(t, "TouchEditedStory", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns not found for missing story", func(t *testing.T) {
		svc, m := newPresenceService(t)
		m.users.On("Ensure", ctx, userID).Return(nil)
		m.stories.On("AddActiveContributor", ctx, storyID, userID).Return(nil, models.ErrStoryNotFound)

		_, err := svc.JoinStoryDraft(ctx, userID, storyID)
		assert.ErrorIs(t, err, models.ErrStoryNotFound)
	})
}

func TestPresenceService_LeaveStoryDraft(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	storyID := uuid.New()

	svc, m := newPresenceService(t)
	// Выход без входа: список активных уже пуст, ошибки нет.
	story := &models.Story{ID: storyID, ActiveContributors: []uuid.UUID{}}
	m.stories.On("RemoveActiveContributor", ctx, storyID, userID).Return(story, nil)
	m.broadcaster.On("BroadcastToStory", storyID, realtime.EventUserLeftDraft, mock.Anything).Return()

	err := svc.LeaveStoryDraft(ctx, userID, storyID)
	require.NoError(t, err)
	m.broadcaster.AssertExpectations(t)
}

func TestPresenceService_EnterNode(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	storyID := uuid.New()
	nodeID := uuid.New()

	t.Run("rejects unknown node", func(t *testing.T) {
		svc, m := newPresenceService(t)
		m.nodes.On("GetByID", ctx, storyID, nodeID).Return(nil, models.ErrNodeNotFound)

		_, err := svc.EnterNode(ctx, userID, storyID, nodeID)
		assert.ErrorIs(t, err, models.ErrNodeNotFound)
	})

	t.Run("rejects occupied node", func(t *testing.T) {
		svc, m := newPresenceService(t)
		node := &models.StoryNode{ID: nodeID, StoryID: storyID, ActiveContributors: []uuid.UUID{uuid.New()}}
		m.nodes.On("GetByID", ctx, storyID, nodeID).Return(node, nil)

		_, err := svc.EnterNode(ctx, userID, storyID, nodeID)
		assert.ErrorIs(t, err, models.ErrNodeBeingEdited)
		m.nodes.AssertNotCalled(t, "AddActiveContributor", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("marks presence in a free node", func(t *testing.T) {
		svc, m := newPresenceService(t)
		node := &models.StoryNode{ID: nodeID, StoryID: storyID, ActiveContributors: []uuid.UUID{}}
		updated := &models.StoryNode{ID: nodeID, StoryID: storyID, ActiveContributors: []uuid.UUID{userID}}
		m.nodes.On("GetByID", ctx, storyID, nodeID).Return(node, nil)
		m.nodes.On("AddActiveContributor", ctx, nodeID, userID).Return(updated, nil)
		m.broadcaster.On("BroadcastToStory", storyID, realtime.EventUserJoinedNode, mock.Anything).Return()

		got, err := svc.EnterNode(ctx, userID, storyID, nodeID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{userID}, got.ActiveContributors)
	})

	t.Run("re-entry by the same user is allowed", func(t *testing.T) {
		svc, m := newPresenceService(t)
		node := &models.StoryNode{ID: nodeID, StoryID: storyID, ActiveContributors: []uuid.UUID{userID}}
		m.nodes.On("GetByID", ctx, storyID, nodeID).Return(node, nil)
		m.nodes.On("AddActiveContributor", ctx, nodeID, userID).Return(node, nil)
		m.broadcaster.On("BroadcastToStory", storyID, realtime.EventUserJoinedNode, mock.Anything).Return()

		_, err := svc.EnterNode(ctx, userID, storyID, nodeID)
		require.NoError(t, err)
	})
}

func TestPresenceService_JoinDraftVersion(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	storyID := uuid.New()
	versionID := uuid.New()

	t.Run("resolves story from version", func(t *testing.T) {
		svc, m := newPresenceService(t)
		version := &models.StoryVersion{ID: versionID, StoryID: storyID}
		story := &models.Story{ID: storyID, ActiveContributors: []uuid.UUID{userID}}
		m.versions.On("GetByID", ctx, versionID).Return(version, nil)
		m.users.On("Ensure", ctx, userID).Return(nil)
		m.stories.On("AddActiveContributor", ctx, storyID, userID).Return(story, nil)
		m.stories.On("AddContributor", ctx, storyID, userID, mock.Anything).Return(false, nil)
		m.broadcaster.On("BroadcastToStory", storyID, realtime.EventUserJoinedDraft, mock.Anything).Return()

		got, err := svc.JoinDraftVersion(ctx, userID, versionID)
		require.NoError(t, err)
		assert.Equal(t, storyID, got.ID)
	})

	t.Run("returns not found for unknown version", func(t *testing.T) {
		svc, m := newPresenceService(t)
		m.versions.On("GetByID", ctx, versionID).Return(nil, models.ErrVersionNotFound)

		_, err := svc.JoinDraftVersion(ctx, userID, versionID)
		assert.ErrorIs(t, err, models.ErrVersionNotFound)
	})
}

func TestPresenceService_CleanupUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	storyID := uuid.New()
	versionID := uuid.New()

	t.Run("removes node presence and leaves draft", func(t *testing.T) {
		svc, m := newPresenceService(t)
		story := &models.Story{ID: storyID, ActiveContributors: []uuid.UUID{}}
		m.nodes.On("RemoveContributorFromVersion", ctx, versionID, userID).Return(int64(2), nil)
		m.stories.On("RemoveActiveContributor", ctx, storyID, userID).Return(story, nil)
		m.broadcaster.On("BroadcastToStory", storyID, realtime.EventUserLeftDraft, mock.Anything).Return()

		svc.CleanupUser(ctx, userID, storyID, versionID)
		m.nodes.AssertExpectations(t)
		m.stories.AssertExpectations(t)
	})

	t.Run("continues to draft cleanup after node cleanup failure", func(t *testing.T) {
		svc, m := newPresenceService(t)
		story := &models.Story{ID: storyID, ActiveContributors: []uuid.UUID{}}
		m.nodes.On("RemoveContributorFromVersion", ctx, versionID, userID).
			Return(int64(0), assert.AnError)
		m.stories.On("RemoveActiveContributor", ctx, storyID, userID).Return(story, nil)
		m.broadcaster.On("BroadcastToStory", storyID, realtime.EventUserLeftDraft, mock.Anything).Return()

		svc.CleanupUser(ctx, userID, storyID, versionID)
		m.stories.AssertCalled(t, "RemoveActiveContributor", ctx, storyID, userID)
	})
}
