package service

import (
	"context"
	"fmt"
	"time"

	"storyweave-server/internal/interfaces"
	"storyweave-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReaderService обслуживает читательскую сторону: звезды и сессии
// чтения опубликованных версий. Структуру графа никогда не мутирует.
type ReaderService struct {
	logger   *zap.Logger
	stories  interfaces.StoryRepository
	versions interfaces.StoryVersionRepository
	nodes    interfaces.StoryNodeRepository
	stars    interfaces.StarRepository
	sessions interfaces.ReadSessionRepository
	users    interfaces.UserRepository
}

func NewReaderService(
	stories interfaces.StoryRepository,
	versions interfaces.StoryVersionRepository,
	nodes interfaces.StoryNodeRepository,
	stars interfaces.StarRepository,
	sessions interfaces.ReadSessionRepository,
	users interfaces.UserRepository,
	logger *zap.Logger,
) *ReaderService {
	return &ReaderService{
		logger:   logger.Named("ReaderService"),
		stories:  stories,
		versions: versions,
		nodes:    nodes,
		stars:    stars,
		sessions: sessions,
		users:    users,
	}
}

// StarStory ставит звезду истории. Повторная звезда — no-op.
func (s *ReaderService) StarStory(ctx context.Context, userID, storyID uuid.UUID) error {
	exists, err := s.stories.Exists(ctx, storyID)
	if err != nil {
		return err
	}
	if !exists {
		return models.ErrStoryNotFound
	}
	if err := s.users.Ensure(ctx, userID); err != nil {
		return err
	}
	return s.stars.Add(ctx, storyID, userID)
}

// UnstarStory снимает звезду. Идемпотентен.
func (s *ReaderService) UnstarStory(ctx context.Context, userID, storyID uuid.UUID) error {
	return s.stars.Remove(ctx, storyID, userID)
}

// StarCount возвращает число звезд истории.
func (s *ReaderService) StarCount(ctx context.Context, storyID uuid.UUID) (int64, error) {
	return s.stars.CountByStory(ctx, storyID)
}

// StartReading открывает сессию чтения опубликованной версии истории
// и увеличивает счетчик прочтений. Сессия стартует с корневого узла.
func (s *ReaderService) StartReading(ctx context.Context, userID, storyID uuid.UUID) (*interfaces.ReadSession, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.PublishedVersionID == nil {
		return nil, fmt.Errorf("%w: story has no published version", models.ErrVersionNotFound)
	}
	version, err := s.versions.GetByID(ctx, *story.PublishedVersionID)
	if err != nil {
		return nil, err
	}
	if err := s.users.Ensure(ctx, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &interfaces.ReadSession{
		ID:            uuid.New(),
		VersionID:     version.ID,
		UserID:        userID,
		CurrentNodeID: version.RootNodeID,
		StartedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if _, err := s.versions.IncrementReadCount(ctx, version.ID); err != nil {
		// Счетчик прочтений не критичен для старта сессии.
		s.logger.Warn("Failed to increment read count",
			zap.String("versionID", version.ID.String()), zap.Error(err))
	}
	s.logger.Info("Read session started",
		zap.String("sessionID", session.ID.String()),
		zap.String("storyID", storyID.String()),
		zap.String("versionID", version.ID.String()))
	return session, nil
}

// AdvanceReading передвигает сессию чтения на следующий узел. Узел
// должен быть достижим из текущего одним шагом по исходящим ссылкам.
func (s *ReaderService) AdvanceReading(ctx context.Context, userID, sessionID, nodeID uuid.UUID) (*interfaces.ReadSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, models.ErrForbidden
	}

	version, err := s.versions.GetByID(ctx, session.VersionID)
	if err != nil {
		return nil, err
	}
	if session.CurrentNodeID != nil {
		current, err := s.nodes.GetByID(ctx, version.StoryID, *session.CurrentNodeID)
		if err != nil {
			return nil, err
		}
		if !current.HasTarget(nodeID) {
			return nil, fmt.Errorf("%w: node is not reachable from the current one", models.ErrInvalidInput)
		}
	}
	return s.sessions.Advance(ctx, sessionID, nodeID)
}
