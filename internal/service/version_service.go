package service

import (
	"context"
	"fmt"

	"storyweave-server/internal/interfaces"
	"storyweave-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VersionService управляет версиями истории: черновиком, статистикой и
// membership-списком узлов версии.
type VersionService struct {
	logger   *zap.Logger
	versions interfaces.StoryVersionRepository
	nodes    interfaces.StoryNodeRepository
	stars    interfaces.StarRepository
}

func NewVersionService(
	versions interfaces.StoryVersionRepository,
	nodes interfaces.StoryNodeRepository,
	stars interfaces.StarRepository,
	logger *zap.Logger,
) *VersionService {
	return &VersionService{
		logger:   logger.Named("VersionService"),
		versions: versions,
		nodes:    nodes,
		stars:    stars,
	}
}

// GetVersion возвращает версию вместе со статистикой. Статистика
// считается на лету и не хранится.
func (s *VersionService) GetVersion(ctx context.Context, versionID uuid.UUID) (*models.StoryVersionWithStats, error) {
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	return s.withStats(ctx, version)
}

func (s *VersionService) withStats(ctx context.Context, version *models.StoryVersion) (*models.StoryVersionWithStats, error) {
	starCount, err := s.stars.CountByStory(ctx, version.StoryID)
	if err != nil {
		return nil, err
	}
	return &models.StoryVersionWithStats{
		StoryVersion: *version,
		Stats: models.VersionStats{
			TotalNodes: len(version.NodeIDs),
			ReadCount:  version.ReadCount,
			StarCount:  starCount,
		},
	}, nil
}

// ListVersions возвращает все версии истории со статистикой,
// по возрастанию номера.
func (s *VersionService) ListVersions(ctx context.Context, storyID uuid.UUID) ([]*models.StoryVersionWithStats, error) {
	versions, err := s.versions.ListByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	result := make([]*models.StoryVersionWithStats, 0, len(versions))
	for _, v := range versions {
		withStats, err := s.withStats(ctx, v)
		if err != nil {
			return nil, err
		}
		result = append(result, withStats)
	}
	return result, nil
}

// GetDraft возвращает текущий черновик истории.
func (s *VersionService) GetDraft(ctx context.Context, storyID uuid.UUID) (*models.StoryVersion, error) {
	return s.versions.GetDraft(ctx, storyID)
}

// AddNodeToVersion идемпотентно включает узел в membership-список
// версии. Узел уже должен существовать и принадлежать этой версии.
func (s *VersionService) AddNodeToVersion(ctx context.Context, versionID, nodeID uuid.UUID) (*models.StoryVersion, error) {
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.IsPublished {
		return nil, fmt.Errorf("%w: version %d is published and immutable", models.ErrInvalidInput, version.VersionNumber)
	}
	node, err := s.nodes.GetByID(ctx, version.StoryID, nodeID)
	if err != nil {
		return nil, err
	}
	if node.VersionID != versionID {
		return nil, fmt.Errorf("%w: node belongs to another version", models.ErrInvalidInput)
	}
	return s.versions.AddNodeID(ctx, versionID, nodeID)
}

// RemoveNodeFromVersion идемпотентно исключает узел из membership-списка.
func (s *VersionService) RemoveNodeFromVersion(ctx context.Context, versionID, nodeID uuid.UUID) (*models.StoryVersion, error) {
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.IsPublished {
		return nil, fmt.Errorf("%w: version %d is published and immutable", models.ErrInvalidInput, version.VersionNumber)
	}
	return s.versions.RemoveNodeID(ctx, versionID, nodeID)
}

// IncrementReadCount увеличивает счетчик прочтений опубликованной
// версии. Черновики не читаются.
func (s *VersionService) IncrementReadCount(ctx context.Context, versionID uuid.UUID) (*models.StoryVersion, error) {
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if !version.IsPublished {
		return nil, fmt.Errorf("%w: draft version cannot be read", models.ErrInvalidInput)
	}
	return s.versions.IncrementReadCount(ctx, versionID)
}

// GetNodeTree строит лес чтения версии от корня по исходящим ссылкам.
// В норме корень один; если указатель на корень потерян или битый,
// корнями считаются все узлы без родителей — граф остается читаемым.
func (s *VersionService) GetNodeTree(ctx context.Context, storyID, versionID uuid.UUID) ([]*models.StoryNodeTree, error) {
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.StoryID != storyID {
		return nil, models.ErrVersionNotFound
	}

	nodes, err := s.nodes.ListByVersion(ctx, storyID, versionID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.StoryNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	var roots []*models.StoryNode
	if version.RootNodeID != nil {
		if root, ok := byID[*version.RootNodeID]; ok {
			roots = []*models.StoryNode{root}
		}
	}
	if roots == nil {
		s.logger.Warn("Root node unresolvable, falling back to parentless nodes",
			zap.String("versionID", versionID.String()))
		for _, n := range nodes {
			if len(n.ParentNodeIDs) == 0 {
				roots = append(roots, n)
			}
		}
	}
	if len(roots) == 0 && len(nodes) > 0 {
		s.logger.Error("Version has nodes but no reachable roots",
			zap.String("versionID", versionID.String()))
		return nil, models.ErrGraphCorrupted
	}

	visited := make(map[uuid.UUID]bool, len(nodes))
	forest := make([]*models.StoryNodeTree, 0, len(roots))
	for _, root := range roots {
		forest = append(forest, s.buildSubtree(root, byID, visited))
	}
	return forest, nil
}

// buildSubtree рекурсивно разворачивает дерево. Узел, уже встреченный
// на пути, второй раз не разворачивается: граф ацикличен по инварианту,
// но общий потомок двух ветвей попадает в обе как отдельное поддерево.
func (s *VersionService) buildSubtree(node *models.StoryNode, byID map[uuid.UUID]*models.StoryNode, visited map[uuid.UUID]bool) *models.StoryNodeTree {
	tree := &models.StoryNodeTree{StoryNode: node, Children: []*models.StoryNodeTree{}}
	if visited[node.ID] {
		return tree
	}
	visited[node.ID] = true
	for _, targetID := range node.TargetNodeIDs {
		child, ok := byID[targetID]
		if !ok {
			s.logger.Warn("Dangling target reference while building tree",
				zap.String("nodeID", node.ID.String()), zap.String("targetID", targetID.String()))
			continue
		}
		tree.Children = append(tree.Children, s.buildSubtree(child, byID, visited))
	}
	visited[node.ID] = false
	return tree
}
