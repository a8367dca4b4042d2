package service

import (
	"context"
	"time"

	"storyweave-server/internal/interfaces"
	"storyweave-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoryService управляет жизненным циклом историй: создание вместе с
// первым черновиком и корневым узлом, выборки, метаданные, обложка,
// удаление.
type StoryService struct {
	logger   *zap.Logger
	stories  interfaces.StoryRepository
	nodes    interfaces.StoryNodeRepository
	versions interfaces.StoryVersionRepository
	users    interfaces.UserRepository
	stars    interfaces.StarRepository
	covers   interfaces.CoverStorage
}

func NewStoryService(
	stories interfaces.StoryRepository,
	nodes interfaces.StoryNodeRepository,
	versions interfaces.StoryVersionRepository,
	users interfaces.UserRepository,
	stars interfaces.StarRepository,
	covers interfaces.CoverStorage,
	logger *zap.Logger,
) *StoryService {
	return &StoryService{
		logger:   logger.Named("StoryService"),
		stories:  stories,
		nodes:    nodes,
		versions: versions,
		users:    users,
		stars:    stars,
		covers:   covers,
	}
}

// CreateStory создает историю вместе с черновиком номер 1 и корневым
// узлом-параграфом. История сразу готова к редактированию.
func (s *StoryService) CreateStory(ctx context.Context, userID uuid.UUID, req models.CreateStoryRequest) (*models.Story, error) {
	logFields := []zap.Field{zap.String("userID", userID.String()), zap.String("title", req.Title)}

	if err := s.users.Ensure(ctx, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	story := &models.Story{
		ID:                 uuid.New(),
		OwnerID:            userID,
		Title:              req.Title,
		Description:        req.Description,
		Tags:               tags,
		ActiveContributors: []uuid.UUID{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.stories.Create(ctx, story); err != nil {
		return nil, err
	}

	rootNodeID := uuid.New()
	version := &models.StoryVersion{
		ID:            uuid.New(),
		StoryID:       story.ID,
		VersionNumber: 1,
		IsPublished:   false,
		RootNodeID:    &rootNodeID,
		NodeIDs:       []uuid.UUID{rootNodeID},
		CreatedBy:     userID,
		UpdatedBy:     userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.versions.Create(ctx, version); err != nil {
		return nil, err
	}

	rootNode := &models.StoryNode{
		ID:                 rootNodeID,
		StoryID:            story.ID,
		VersionID:          version.ID,
		Type:               models.NodeTypeParagraph,
		ParentNodeIDs:      []uuid.UUID{},
		TargetNodeIDs:      []uuid.UUID{},
		ActiveContributors: []uuid.UUID{},
		CreatedBy:          userID,
		UpdatedBy:          userID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.nodes.Create(ctx, rootNode); err != nil {
		return nil, err
	}

	if err := s.users.TouchEditedStory(ctx, userID, story.ID, now); err != nil {
		s.logger.Warn("Failed to touch edited story", append(logFields, zap.Error(err))...)
	}

	s.logger.Info("Story created", append(logFields, zap.String("storyID", story.ID.String()))...)
	return story, nil
}

// GetStory возвращает историю по ID.
func (s *StoryService) GetStory(ctx context.Context, storyID uuid.UUID) (*models.Story, error) {
	return s.stories.GetByID(ctx, storyID)
}

// GetDetail возвращает историю глазами конкретного пользователя:
// с опубликованной версией, ее статистикой и флагами owner/starred.
func (s *StoryService) GetDetail(ctx context.Context, userID, storyID uuid.UUID) (*models.StoryDetail, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}

	detail := &models.StoryDetail{
		Story:   *story,
		IsOwner: story.OwnerID == userID,
	}

	if story.PublishedVersionID != nil {
		version, err := s.versions.GetByID(ctx, *story.PublishedVersionID)
		if err != nil {
			return nil, err
		}
		starCount, err := s.stars.CountByStory(ctx, storyID)
		if err != nil {
			return nil, err
		}
		detail.CurrentVersion = &models.StoryVersionWithStats{
			StoryVersion: *version,
			Stats: models.VersionStats{
				TotalNodes: len(version.NodeIDs),
				ReadCount:  version.ReadCount,
				StarCount:  starCount,
			},
		}
	}

	starred, err := s.stars.Exists(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}
	detail.IsStarred = starred
	return detail, nil
}

// ListStories возвращает истории по фильтру.
func (s *StoryService) ListStories(ctx context.Context, filter models.StoryFilter) ([]*models.Story, error) {
	return s.stories.List(ctx, filter)
}

// ListEditedStories возвращает истории, которые пользователь недавно
// редактировал, не больше лимита.
func (s *StoryService) ListEditedStories(ctx context.Context, userID uuid.UUID) ([]*models.Story, error) {
	ids, err := s.users.EditedStoryIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*models.Story{}, nil
	}
	return s.stories.List(ctx, models.StoryFilter{IDs: ids})
}

// UpdateStory меняет только метаданные истории. Структура графа через
// эту операцию недоступна. Разрешено только владельцу.
func (s *StoryService) UpdateStory(ctx context.Context, userID, storyID uuid.UUID, req models.UpdateStoryRequest) (*models.Story, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.OwnerID != userID {
		return nil, models.ErrNotOwner
	}

	upd := models.StoryMetaUpdate{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	}
	if upd.IsEmpty() {
		return story, nil
	}
	return s.stories.UpdateMeta(ctx, storyID, upd)
}

// DeleteStory удаляет историю со всеми версиями и узлами.
// Разрешено только владельцу.
func (s *StoryService) DeleteStory(ctx context.Context, userID, storyID uuid.UUID) error {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return err
	}
	if story.OwnerID != userID {
		s.logger.Warn("Non-owner attempted to delete story",
			zap.String("storyID", storyID.String()), zap.String("userID", userID.String()))
		return models.ErrNotOwner
	}
	return s.stories.Delete(ctx, storyID)
}

// UploadCover загружает обложку во внешнее хранилище и сохраняет URL.
// Разрешено только владельцу.
func (s *StoryService) UploadCover(ctx context.Context, userID, storyID uuid.UUID, filename, contentType string, data []byte) (string, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return "", err
	}
	if story.OwnerID != userID {
		return "", models.ErrNotOwner
	}

	url, err := s.covers.UploadCover(ctx, storyID.String(), filename, contentType, data)
	if err != nil {
		s.logger.Error("Failed to upload cover",
			zap.String("storyID", storyID.String()), zap.Error(err))
		return "", err
	}
	if err := s.stories.SetCoverImageURL(ctx, storyID, url); err != nil {
		return "", err
	}
	s.logger.Info("Cover uploaded", zap.String("storyID", storyID.String()), zap.String("url", url))
	return url, nil
}
