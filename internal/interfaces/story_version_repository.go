package interfaces

import (
	"context"

	"storyweave-server/internal/models"

	"github.com/google/uuid"
)

// StoryVersionRepository определяет методы для работы с версиями истории.
// Это единственный владелец персистентности StoryVersion.
//
//go:generate mockery --name StoryVersionRepository --output ./mocks --outpkg mocks --case=underscore
type StoryVersionRepository interface {
	// Create вставляет новую версию.
	Create(ctx context.Context, version *models.StoryVersion) error

	// GetByID возвращает версию.
	// Возвращает models.ErrVersionNotFound, если версии нет.
	GetByID(ctx context.Context, id uuid.UUID) (*models.StoryVersion, error)

	// ListByStory возвращает все версии истории по возрастанию номера.
	ListByStory(ctx context.Context, storyID uuid.UUID) ([]*models.StoryVersion, error)

	// GetDraft возвращает последний (по номеру) неопубликованный черновик.
	GetDraft(ctx context.Context, storyID uuid.UUID) (*models.StoryVersion, error)

	// MarkPublished выставляет is_published = true.
	MarkPublished(ctx context.Context, id uuid.UUID) error

	// AddNodeID идемпотентно добавляет узел в membership-список версии.
	AddNodeID(ctx context.Context, versionID, nodeID uuid.UUID) (*models.StoryVersion, error)

	// RemoveNodeID идемпотентно убирает узел из membership-списка версии.
	RemoveNodeID(ctx context.Context, versionID, nodeID uuid.UUID) (*models.StoryVersion, error)

	// IncrementReadCount атомарно увеличивает счетчик прочтений.
	IncrementReadCount(ctx context.Context, id uuid.UUID) (*models.StoryVersion, error)
}
