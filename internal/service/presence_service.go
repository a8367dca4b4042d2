package service

import (
	"context"
	"time"

	"storyweave-server/internal/interfaces"
	"storyweave-server/internal/models"
	"storyweave-server/internal/realtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PresenceService ведет рекомендательные (advisory) отметки присутствия:
// кто сейчас в черновике истории и кто в каком узле. Отметки мягкие —
// они подсвечиваются в редакторе и блокируют только удаление узла,
// но не правки.
type PresenceService struct {
	logger      *zap.Logger
	stories     interfaces.StoryRepository
	nodes       interfaces.StoryNodeRepository
	versions    interfaces.StoryVersionRepository
	users       interfaces.UserRepository
	broadcaster interfaces.RoomBroadcaster
}

func NewPresenceService(
	stories interfaces.StoryRepository,
	nodes interfaces.StoryNodeRepository,
	versions interfaces.StoryVersionRepository,
	users interfaces.UserRepository,
	broadcaster interfaces.RoomBroadcaster,
	logger *zap.Logger,
) *PresenceService {
	return &PresenceService{
		logger:      logger.Named("PresenceService"),
		stories:     stories,
		nodes:       nodes,
		versions:    versions,
		users:       users,
		broadcaster: broadcaster,
	}
}

// JoinDraftVersion — вход в черновик по ID версии. Клиент редактора
// знает только версию; история определяется на сервере.
func (s *PresenceService) JoinDraftVersion(ctx context.Context, userID, versionID uuid.UUID) (*models.Story, error) {
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	return s.JoinStoryDraft(ctx, userID, version.StoryID)
}

// JoinStoryDraft отмечает вход пользователя в черновик. Повторный вход
// (вторая вкладка) ничего не дублирует. При первом входе пользователь
// навсегда попадает в список участников истории.
func (s *PresenceService) JoinStoryDraft(ctx context.Context, userID, storyID uuid.UUID) (*models.Story, error) {
	logFields := []zap.Field{zap.String("storyID", storyID.String()), zap.String("userID", userID.String())}

	if err := s.users.Ensure(ctx, userID); err != nil {
		return nil, err
	}
	story, err := s.stories.AddActiveContributor(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	added, err := s.stories.AddContributor(ctx, storyID, userID, now)
	if err != nil {
		return nil, err
	}
	if added {
		s.logger.Info("New contributor joined story", logFields...)
		if err := s.users.TouchEditedStory(ctx, userID, storyID, now); err != nil {
			// История все равно попадет в список при первой правке.
			s.logger.Warn("Failed to touch edited story on first join", append(logFields, zap.Error(err))...)
		}
	}

	s.logger.Debug("User joined story draft", logFields...)
	s.broadcaster.BroadcastToStory(storyID, realtime.EventUserJoinedDraft, models.PresencePayload{
		UserID:             userID,
		StoryID:            storyID,
		ActiveContributors: story.ActiveContributors,
	})
	return story, nil
}

// LeaveStoryDraft отмечает выход пользователя из черновика.
// Идемпотентен: выход без входа — не ошибка.
func (s *PresenceService) LeaveStoryDraft(ctx context.Context, userID, storyID uuid.UUID) error {
	story, err := s.stories.RemoveActiveContributor(ctx, storyID, userID)
	if err != nil {
		return err
	}
	s.logger.Debug("User left story draft",
		zap.String("storyID", storyID.String()), zap.String("userID", userID.String()))
	s.broadcaster.BroadcastToStory(storyID, realtime.EventUserLeftDraft, models.PresencePayload{
		UserID:             userID,
		StoryID:            storyID,
		ActiveContributors: story.ActiveContributors,
	})
	return nil
}

// EnterNode отмечает, что пользователь открыл узел в редакторе.
// Узел, занятый другим пользователем, закрыт для входа: редактирование
// узла эксклюзивно. Повторный вход того же пользователя — no-op.
func (s *PresenceService) EnterNode(ctx context.Context, userID, storyID, nodeID uuid.UUID) (*models.StoryNode, error) {
	// Узел должен существовать и принадлежать истории.
	current, err := s.nodes.GetByID(ctx, storyID, nodeID)
	if err != nil {
		return nil, err
	}
	for _, contributor := range current.ActiveContributors {
		if contributor != userID {
			s.logger.Warn("Rejected entry into occupied node",
				zap.String("nodeID", nodeID.String()),
				zap.String("userID", userID.String()),
				zap.String("occupiedBy", contributor.String()))
			return nil, models.ErrNodeBeingEdited
		}
	}
	node, err := s.nodes.AddActiveContributor(ctx, nodeID, userID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastToStory(storyID, realtime.EventUserJoinedNode, models.PresencePayload{
		UserID:             userID,
		StoryID:            storyID,
		NodeID:             &nodeID,
		ActiveContributors: node.ActiveContributors,
	})
	return node, nil
}

// LeaveNode отмечает выход пользователя из узла. Идемпотентен.
func (s *PresenceService) LeaveNode(ctx context.Context, userID, storyID, nodeID uuid.UUID) (*models.StoryNode, error) {
	node, err := s.nodes.RemoveActiveContributor(ctx, nodeID, userID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastToStory(storyID, realtime.EventUserLeftNode, models.PresencePayload{
		UserID:             userID,
		StoryID:            storyID,
		NodeID:             &nodeID,
		ActiveContributors: node.ActiveContributors,
	})
	return node, nil
}

// CleanupUser снимает все отметки присутствия пользователя в истории.
// Вызывается при обрыве соединения, когда клиент не успел послать
// leave-node и leave-story-room.
func (s *PresenceService) CleanupUser(ctx context.Context, userID, storyID, versionID uuid.UUID) {
	logFields := []zap.Field{
		zap.String("storyID", storyID.String()),
		zap.String("versionID", versionID.String()),
		zap.String("userID", userID.String()),
	}

	affected, err := s.nodes.RemoveContributorFromVersion(ctx, versionID, userID)
	if err != nil {
		s.logger.Error("Failed to remove user presence from version nodes", append(logFields, zap.Error(err))...)
	} else if affected > 0 {
		s.logger.Info("Removed stale node presence", append(logFields, zap.Int64("nodes", affected))...)
	}

	if err := s.LeaveStoryDraft(ctx, userID, storyID); err != nil {
		s.logger.Error("Failed to remove user from story draft", append(logFields, zap.Error(err))...)
	}
}
