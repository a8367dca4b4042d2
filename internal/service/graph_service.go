package service

import (
	"context"
	"fmt"
	"time"

	"storyweave-server/internal/interfaces"
	"storyweave-server/internal/models"
	"storyweave-server/internal/realtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GraphService — движок мутаций графа истории. Каждая операция
// валидирует инварианты графа, сохраняет изменение и только после
// этого рассылает событие в комнату истории.
type GraphService struct {
	logger      *zap.Logger
	stories     interfaces.StoryRepository
	nodes       interfaces.StoryNodeRepository
	versions    interfaces.StoryVersionRepository
	users       interfaces.UserRepository
	broadcaster interfaces.RoomBroadcaster
}

func NewGraphService(
	stories interfaces.StoryRepository,
	nodes interfaces.StoryNodeRepository,
	versions interfaces.StoryVersionRepository,
	users interfaces.UserRepository,
	broadcaster interfaces.RoomBroadcaster,
	logger *zap.Logger,
) *GraphService {
	return &GraphService{
		logger:      logger.Named("GraphService"),
		stories:     stories,
		nodes:       nodes,
		versions:    versions,
		users:       users,
		broadcaster: broadcaster,
	}
}

// CreateNode создает новый узел в черновике истории.
func (s *GraphService) CreateNode(ctx context.Context, userID, storyID uuid.UUID, req models.CreateNodeRequest) (*models.StoryNode, error) {
	logFields := []zap.Field{
		zap.String("storyID", storyID.String()),
		zap.String("userID", userID.String()),
		zap.String("type", string(req.Type)),
	}
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown node type %q", models.ErrInvalidInput, req.Type)
	}
	// Узел option не имеет заголовка главы.
	if req.Type == models.NodeTypeOption && req.ChapterTitle != nil {
		return nil, fmt.Errorf("%w: option node cannot have a chapter title", models.ErrInvalidInput)
	}
	if req.Content.Text == "" {
		return nil, fmt.Errorf("%w: node content text is required", models.ErrInvalidInput)
	}

	version, err := s.mutableVersion(ctx, storyID, req.VersionID)
	if err != nil {
		return nil, err
	}

	parentIDs := req.ParentNodeIDs
	if parentIDs == nil {
		parentIDs = []uuid.UUID{}
	}
	targetIDs := req.TargetNodeIDs
	if targetIDs == nil {
		targetIDs = []uuid.UUID{}
	}

	now := time.Now().UTC()
	node := &models.StoryNode{
		ID:                 uuid.New(),
		StoryID:            storyID,
		VersionID:          version.ID,
		Type:               req.Type,
		ParentNodeIDs:      parentIDs,
		TargetNodeIDs:      targetIDs,
		Position:           req.Position,
		ChapterTitle:       req.ChapterTitle,
		Content:            req.Content,
		ActiveContributors: []uuid.UUID{},
		CreatedBy:          userID,
		UpdatedBy:          userID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.nodes.Create(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("Node created", append(logFields, zap.String("nodeID", node.ID.String()))...)
	s.afterMutation(ctx, userID, storyID, realtime.EventNodeCreated, node)
	return node, nil
}

// UpdateNode перезаписывает содержимое узла. Конкурентные правки не
// сливаются: последний писатель побеждает.
func (s *GraphService) UpdateNode(ctx context.Context, userID, storyID, nodeID uuid.UUID, req models.UpdateNodeRequest) (*models.StoryNode, error) {
	node, err := s.nodes.GetByID(ctx, storyID, nodeID)
	if err != nil {
		return nil, err
	}
	if node.Type == models.NodeTypeOption && req.ChapterTitle != nil {
		return nil, fmt.Errorf("%w: option node cannot have a chapter title", models.ErrInvalidInput)
	}
	if _, err := s.mutableVersion(ctx, storyID, node.VersionID); err != nil {
		return nil, err
	}

	updated, err := s.nodes.Update(ctx, storyID, nodeID, interfaces.NodeUpdate{
		ContentText:  req.ContentText,
		ChapterTitle: req.ChapterTitle,
		UpdatedBy:    &userID,
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, userID, storyID, realtime.EventNodeUpdated, updated)
	return updated, nil
}

// DeleteNode удаляет узел и вычищает ссылки на него из остального
// графа. Корень версии удалить нельзя; узел, в котором сейчас работает
// другой участник, — тоже.
func (s *GraphService) DeleteNode(ctx context.Context, userID, storyID, nodeID uuid.UUID) error {
	logFields := []zap.Field{
		zap.String("storyID", storyID.String()),
		zap.String("nodeID", nodeID.String()),
		zap.String("userID", userID.String()),
	}
	node, err := s.nodes.GetByID(ctx, storyID, nodeID)
	if err != nil {
		return err
	}
	version, err := s.mutableVersion(ctx, storyID, node.VersionID)
	if err != nil {
		return err
	}
	if version.IsRoot(nodeID) {
		s.logger.Warn("Attempted to delete root node", logFields...)
		return models.ErrRootNodeDeletion
	}
	// Любая отметка присутствия блокирует удаление, в том числе своя:
	// сначала выйди из узла, потом удаляй.
	if len(node.ActiveContributors) > 0 {
		s.logger.Warn("Attempted to delete node being edited", logFields...)
		return models.ErrNodeBeingEdited
	}

	if err := s.nodes.Delete(ctx, storyID, nodeID); err != nil {
		return err
	}
	if err := s.nodes.ScrubReferences(ctx, storyID, nodeID); err != nil {
		return err
	}
	if _, err := s.versions.RemoveNodeID(ctx, node.VersionID, nodeID); err != nil {
		return err
	}

	s.logger.Info("Node deleted", logFields...)
	s.afterMutation(ctx, userID, storyID, realtime.EventNodeDeleted, models.NodeDeletedPayload{
		NodeID:    nodeID,
		VersionID: node.VersionID,
	})
	return nil
}

// CreateConnection добавляет ребро source -> target, предварительно
// проверив все инварианты графа в строгом порядке.
func (s *GraphService) CreateConnection(ctx context.Context, userID, storyID uuid.UUID, req models.ConnectionRequest) (*models.ConnectionPayload, error) {
	logFields := []zap.Field{
		zap.String("storyID", storyID.String()),
		zap.String("sourceID", req.SourceNodeID.String()),
		zap.String("targetID", req.TargetNodeID.String()),
	}
	if req.SourceNodeID == req.TargetNodeID {
		return nil, fmt.Errorf("%w: node cannot be connected to itself", models.ErrConnectionCycle)
	}

	source, err := s.nodes.GetByID(ctx, storyID, req.SourceNodeID)
	if err != nil {
		return nil, err
	}
	target, err := s.nodes.GetByID(ctx, storyID, req.TargetNodeID)
	if err != nil {
		return nil, err
	}
	if source.VersionID != target.VersionID {
		return nil, fmt.Errorf("%w: nodes belong to different versions", models.ErrInvalidInput)
	}
	version, err := s.mutableVersion(ctx, storyID, source.VersionID)
	if err != nil {
		return nil, err
	}

	// Граф строго чередует типы: paragraph -> option -> paragraph.
	if source.Type == target.Type {
		s.logger.Warn("Rejected same-type connection", logFields...)
		return nil, models.ErrSameTypeConnection
	}
	// Узел option ведет максимум к одному продолжению.
	if source.Type == models.NodeTypeOption && len(source.TargetNodeIDs) > 0 {
		s.logger.Warn("Rejected second outgoing edge from option", logFields...)
		return nil, models.ErrOptionAlreadyLinked
	}
	if source.HasTarget(req.TargetNodeID) {
		return nil, models.ErrDuplicateConnection
	}
	// Корень не может получать входящие ребра.
	if version.IsRoot(req.TargetNodeID) {
		s.logger.Warn("Rejected incoming edge to root node", logFields...)
		return nil, models.ErrRootIncomingEdge
	}
	if err := s.ensureAcyclic(ctx, storyID, version, source, target); err != nil {
		return nil, err
	}

	updatedSource, updatedTarget, err := s.nodes.AddConnection(ctx, storyID, req.SourceNodeID, req.TargetNodeID, userID)
	if err != nil {
		return nil, err
	}

	payload := &models.ConnectionPayload{Source: updatedSource, Target: updatedTarget}
	s.logger.Info("Connection created", logFields...)
	s.afterMutation(ctx, userID, storyID, realtime.EventConnectionCreated, payload)
	return payload, nil
}

// DeleteConnection убирает ребро source -> target с обеих сторон.
// Удаление несуществующего ребра — не ошибка.
func (s *GraphService) DeleteConnection(ctx context.Context, userID, storyID uuid.UUID, req models.ConnectionRequest) (*models.ConnectionPayload, error) {
	source, err := s.nodes.GetByID(ctx, storyID, req.SourceNodeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.nodes.GetByID(ctx, storyID, req.TargetNodeID); err != nil {
		return nil, err
	}
	if _, err := s.mutableVersion(ctx, storyID, source.VersionID); err != nil {
		return nil, err
	}

	updatedSource, updatedTarget, err := s.nodes.RemoveConnection(ctx, storyID, req.SourceNodeID, req.TargetNodeID, userID)
	if err != nil {
		return nil, err
	}

	// В событие уходит только пара ID: клиентам хватает их, чтобы убрать
	// ребро, полные узлы возвращаются инициатору в HTTP-ответе.
	s.broadcaster.BroadcastToStory(storyID, realtime.EventConnectionDeleted, models.ConnectionDeletedPayload{
		SourceNodeID: req.SourceNodeID,
		TargetNodeID: req.TargetNodeID,
	})
	return &models.ConnectionPayload{Source: updatedSource, Target: updatedTarget}, nil
}

// UpdateNodePosition двигает узел на флоучарте. Структуру графа не
// трогает и валидаций, кроме существования узла, не требует.
func (s *GraphService) UpdateNodePosition(ctx context.Context, userID, storyID, nodeID uuid.UUID, pos models.Position) (*models.StoryNode, error) {
	node, err := s.nodes.GetByID(ctx, storyID, nodeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.mutableVersion(ctx, storyID, node.VersionID); err != nil {
		return nil, err
	}

	updated, err := s.nodes.UpdatePosition(ctx, storyID, nodeID, pos, userID)
	if err != nil {
		return nil, err
	}

	// Перестановка на флоучарте — косметика, список "недавно
	// редактировал" от нее не обновляется.
	s.broadcaster.BroadcastToStory(storyID, realtime.EventNodePositionUpdated, updated)
	return updated, nil
}

// GetNode возвращает один узел истории.
func (s *GraphService) GetNode(ctx context.Context, storyID, nodeID uuid.UUID) (*models.StoryNode, error) {
	return s.nodes.GetByID(ctx, storyID, nodeID)
}

// ListGraph возвращает плоский набор узлов версии.
func (s *GraphService) ListGraph(ctx context.Context, storyID, versionID uuid.UUID) ([]*models.StoryNode, error) {
	if _, err := s.versions.GetByID(ctx, versionID); err != nil {
		return nil, err
	}
	return s.nodes.ListByVersion(ctx, storyID, versionID)
}

// mutableVersion проверяет, что версия существует, принадлежит истории
// и еще не опубликована. Мутации разрешены только в черновике.
func (s *GraphService) mutableVersion(ctx context.Context, storyID, versionID uuid.UUID) (*models.StoryVersion, error) {
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.StoryID != storyID {
		return nil, models.ErrVersionNotFound
	}
	if version.IsPublished {
		return nil, fmt.Errorf("%w: version %d is published and immutable", models.ErrInvalidInput, version.VersionNumber)
	}
	return version, nil
}

// ensureAcyclic проверяет, что новое ребро source -> target не создает
// цикл: обходит граф от target по исходящим ссылкам и убеждается, что
// source недостижим. Обход ограничен размером версии; выход за предел
// означает поврежденные данные.
func (s *GraphService) ensureAcyclic(ctx context.Context, storyID uuid.UUID, version *models.StoryVersion, source, target *models.StoryNode) error {
	all, err := s.nodes.ListByVersion(ctx, storyID, version.ID)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*models.StoryNode, len(all))
	for _, n := range all {
		byID[n.ID] = n
	}

	visited := make(map[uuid.UUID]bool, len(all))
	stack := []uuid.UUID{target.ID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == source.ID {
			return models.ErrConnectionCycle
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		if len(visited) > len(all) {
			s.logger.Error("Cycle check exceeded version size, graph data is corrupted",
				zap.String("storyID", storyID.String()), zap.String("versionID", version.ID.String()))
			return models.ErrGraphCorrupted
		}
		node, ok := byID[id]
		if !ok {
			// Висячая ссылка: узел уже удален, ребро вычистят позже.
			s.logger.Warn("Dangling node reference during cycle check",
				zap.String("storyID", storyID.String()), zap.String("nodeID", id.String()))
			continue
		}
		for _, next := range node.TargetNodeIDs {
			if !visited[next] {
				stack = append(stack, next)
			}
		}
	}
	return nil
}

// afterMutation рассылает событие в комнату истории и поднимает историю
// в списке "недавно редактировал". Вызывается только для содержательных
// изменений (узлы и новые связи). Рассылка идет строго после того, как
// изменение сохранено.
func (s *GraphService) afterMutation(ctx context.Context, userID, storyID uuid.UUID, event string, payload any) {
	s.broadcaster.BroadcastToStory(storyID, event, payload)
	if err := s.users.TouchEditedStory(ctx, userID, storyID, time.Now().UTC()); err != nil {
		// Список "недавно редактировал" не критичен для мутации.
		s.logger.Warn("Failed to touch edited story",
			zap.String("userID", userID.String()), zap.String("storyID", storyID.String()), zap.Error(err))
	}
}
