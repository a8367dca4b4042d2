package interfaces

import (
	"context"

	"storyweave-server/internal/models"

	"github.com/google/uuid"
)

// NodeUpdate — частичное обновление узла. nil-поле означает "не трогать".
// Поля перезаписываются напрямую, без optimistic-concurrency проверок:
// последний писатель побеждает.
type NodeUpdate struct {
	Type               *models.NodeType
	ContentText        *string
	ChapterTitle       *string
	Position           *models.Position
	VersionID          *uuid.UUID
	ParentNodeIDs      []uuid.UUID
	TargetNodeIDs      []uuid.UUID
	ActiveContributors []uuid.UUID
	UpdatedBy          *uuid.UUID
}

// NodeFilter — параметры выборки узлов истории.
type NodeFilter struct {
	StoryID      uuid.UUID
	VersionID    *uuid.UUID
	ParentNodeID *uuid.UUID
	Type         *models.NodeType
}

// StoryNodeRepository определяет методы для работы с узлами графа.
// Это единственный владелец персистентности StoryNode.
//
//go:generate mockery --name StoryNodeRepository --output ./mocks --outpkg mocks --case=underscore
type StoryNodeRepository interface {
	// Create вставляет новый узел.
	Create(ctx context.Context, node *models.StoryNode) error

	// CreateBatch вставляет набор узлов (используется клонированием версии).
	CreateBatch(ctx context.Context, nodes []*models.StoryNode) error

	// GetByID возвращает узел в рамках истории.
	// Возвращает models.ErrNodeNotFound, если узла нет.
	GetByID(ctx context.Context, storyID, nodeID uuid.UUID) (*models.StoryNode, error)

	// List возвращает узлы по фильтру, отсортированные по created_at ASC.
	List(ctx context.Context, filter NodeFilter) ([]*models.StoryNode, error)

	// ListByVersion возвращает все узлы, чей version_id равен versionID.
	// Именно этим запросом (а не устаревающим массивом nodeIds версии)
	// пользуется клонирование.
	ListByVersion(ctx context.Context, storyID, versionID uuid.UUID) ([]*models.StoryNode, error)

	// Update применяет частичное обновление и возвращает обновленный узел.
	Update(ctx context.Context, storyID, nodeID uuid.UUID, upd NodeUpdate) (*models.StoryNode, error)

	// SetEdges перезаписывает оба массива ссылок узла (второй проход клонирования).
	SetEdges(ctx context.Context, nodeID uuid.UUID, parentIDs, targetIDs []uuid.UUID) error

	// Delete удаляет узел. Возвращает models.ErrNodeNotFound, если узла не было.
	Delete(ctx context.Context, storyID, nodeID uuid.UUID) error

	// ScrubReferences вычищает nodeID из parent_node_ids/target_node_ids
	// всех остальных узлов истории (после удаления узла).
	ScrubReferences(ctx context.Context, storyID, nodeID uuid.UUID) error

	// AddConnection атомарно (в одной транзакции) добавляет target в
	// target_node_ids источника и source в parent_node_ids цели.
	// Возвращает оба обновленных узла.
	AddConnection(ctx context.Context, storyID, sourceID, targetID, updatedBy uuid.UUID) (source, target *models.StoryNode, err error)

	// RemoveConnection — симметричное изъятие двух ссылок.
	RemoveConnection(ctx context.Context, storyID, sourceID, targetID, updatedBy uuid.UUID) (source, target *models.StoryNode, err error)

	// UpdatePosition меняет только координату на флоучарте.
	UpdatePosition(ctx context.Context, storyID, nodeID uuid.UUID, pos models.Position, updatedBy uuid.UUID) (*models.StoryNode, error)

	// AddActiveContributor идемпотентно добавляет пользователя в множество
	// присутствующих в узле (set-add, безопасно при конкурентных входах).
	AddActiveContributor(ctx context.Context, nodeID, userID uuid.UUID) (*models.StoryNode, error)

	// RemoveActiveContributor идемпотентно убирает пользователя из узла.
	RemoveActiveContributor(ctx context.Context, nodeID, userID uuid.UUID) (*models.StoryNode, error)

	// RemoveContributorFromVersion убирает пользователя из всех узлов
	// версии (cleanup при дисконнекте). Возвращает число затронутых узлов.
	RemoveContributorFromVersion(ctx context.Context, versionID, userID uuid.UUID) (int64, error)
}
