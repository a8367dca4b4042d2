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

// PublishService — пайплайн публикации. Текущий черновик помечается
// опубликованным и становится версией для чтения, а его граф глубоко
// клонируется в новый черновик со следующим номером. Клоны получают
// новые ID, все внутренние ссылки переписываются по карте соответствия.
type PublishService struct {
	logger      *zap.Logger
	stories     interfaces.StoryRepository
	nodes       interfaces.StoryNodeRepository
	versions    interfaces.StoryVersionRepository
	broadcaster interfaces.RoomBroadcaster
}

func NewPublishService(
	stories interfaces.StoryRepository,
	nodes interfaces.StoryNodeRepository,
	versions interfaces.StoryVersionRepository,
	broadcaster interfaces.RoomBroadcaster,
	logger *zap.Logger,
) *PublishService {
	return &PublishService{
		logger:      logger.Named("PublishService"),
		stories:     stories,
		nodes:       nodes,
		versions:    versions,
		broadcaster: broadcaster,
	}
}

// Publish публикует текущий черновик истории. Разрешено только владельцу.
// Возвращает новый черновик, созданный клонированием.
func (s *PublishService) Publish(ctx context.Context, userID, storyID uuid.UUID) (*models.StoryVersion, error) {
	logFields := []zap.Field{zap.String("storyID", storyID.String()), zap.String("userID", userID.String())}

	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.OwnerID != userID {
		s.logger.Warn("Non-owner attempted to publish", logFields...)
		return nil, models.ErrNotOwner
	}

	draft, err := s.versions.GetDraft(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if draft.IsPublished {
		return nil, models.ErrDraftAlreadyPublished
	}
	logFields = append(logFields,
		zap.String("draftVersionID", draft.ID.String()),
		zap.Int("versionNumber", draft.VersionNumber),
	)
	s.logger.Info("Publishing story draft", logFields...)

	originals, err := s.nodes.ListByVersion(ctx, storyID, draft.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newDraftID := uuid.New()

	// Первый проход: карта соответствия старых ID новым и вставка
	// клонов с пустыми связями. Связи нельзя переписать сразу — клон
	// может ссылаться на узел, которому новый ID еще не выдан.
	idMap := make(map[uuid.UUID]uuid.UUID, len(originals))
	for _, original := range originals {
		idMap[original.ID] = uuid.New()
	}

	clones := make([]*models.StoryNode, 0, len(originals))
	for _, original := range originals {
		clone := &models.StoryNode{
			ID:                 idMap[original.ID],
			StoryID:            storyID,
			VersionID:          newDraftID,
			Type:               original.Type,
			ParentNodeIDs:      []uuid.UUID{},
			TargetNodeIDs:      []uuid.UUID{},
			Position:           original.Position,
			ChapterTitle:       original.ChapterTitle,
			Content:            original.Content,
			ActiveContributors: []uuid.UUID{},
			CreatedBy:          original.CreatedBy,
			UpdatedBy:          userID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		clones = append(clones, clone)
	}
	if err := s.nodes.CreateBatch(ctx, clones); err != nil {
		return nil, err
	}

	// Второй проход: переписываем связи по карте соответствия.
	for i, original := range originals {
		parentIDs := remapIDs(original.ParentNodeIDs, idMap)
		targetIDs := remapIDs(original.TargetNodeIDs, idMap)
		if err := s.nodes.SetEdges(ctx, clones[i].ID, parentIDs, targetIDs); err != nil {
			return nil, err
		}
		clones[i].ParentNodeIDs = parentIDs
		clones[i].TargetNodeIDs = targetIDs
	}

	// Членство нового черновика строится по фактически созданным клонам,
	// а не по remapIDs от старого списка: узлы версии, выпавшие из
	// nodeIds, при клонировании возвращаются в строй.
	cloneIDs := make([]uuid.UUID, 0, len(clones))
	for _, clone := range clones {
		cloneIDs = append(cloneIDs, clone.ID)
	}

	newDraft := &models.StoryVersion{
		ID:            newDraftID,
		StoryID:       storyID,
		VersionNumber: draft.VersionNumber + 1,
		IsPublished:   false,
		RootNodeID:    remapID(draft.RootNodeID, idMap),
		NodeIDs:       cloneIDs,
		ReadCount:     draft.ReadCount,
		CreatedBy:     userID,
		UpdatedBy:     userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.versions.Create(ctx, newDraft); err != nil {
		return nil, err
	}

	if err := s.versions.MarkPublished(ctx, draft.ID); err != nil {
		return nil, err
	}
	if err := s.stories.SetPublishedVersion(ctx, storyID, draft.ID, now); err != nil {
		return nil, err
	}

	s.logger.Info("Story draft published",
		append(logFields, zap.String("newDraftVersionID", newDraftID.String()), zap.Int("clonedNodes", len(clones)))...)
	s.broadcaster.BroadcastToStory(storyID, realtime.EventNewVersionPublished, models.VersionPublishedPayload{
		StoryID:            storyID,
		PublishedVersionID: draft.ID,
		NewDraftVersionID:  newDraftID,
		VersionNumber:      newDraft.VersionNumber,
	})
	return newDraft, nil
}

// remapIDs переводит ссылки на новые ID клонов. Ссылка, которой нет в
// карте (висячая, узел удален до публикации), сохраняется как есть и
// будет вычищена при следующем удалении.
func remapIDs(ids []uuid.UUID, idMap map[uuid.UUID]uuid.UUID) []uuid.UUID {
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if mapped, ok := idMap[id]; ok {
			result = append(result, mapped)
		} else {
			result = append(result, id)
		}
	}
	return result
}

func remapID(id *uuid.UUID, idMap map[uuid.UUID]uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	if mapped, ok := idMap[*id]; ok {
		return &mapped
	}
	return id
}
