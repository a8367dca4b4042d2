package interfaces

import (
	"context"
	"time"

	"storyweave-server/internal/models"

	"github.com/google/uuid"
)

// StoryRepository определяет методы для работы с агрегатом истории.
//
//go:generate mockery --name StoryRepository --output ./mocks --outpkg mocks --case=underscore
type StoryRepository interface {
	// Create вставляет новую историю вместе с записью владельца в contributors.
	Create(ctx context.Context, story *models.Story) error

	// GetByID возвращает историю вместе со списком contributors.
	// Возвращает models.ErrStoryNotFound, если истории нет.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error)

	// Exists быстро проверяет наличие истории.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// List возвращает истории по фильтру, отсортированные по updated_at DESC.
	List(ctx context.Context, filter models.StoryFilter) ([]*models.Story, error)

	// UpdateMeta применяет частичное обновление метаданных (title/description/tags)
	// и возвращает обновленную историю.
	UpdateMeta(ctx context.Context, id uuid.UUID, upd models.StoryMetaUpdate) (*models.Story, error)

	// SetCoverImageURL сохраняет URL обложки.
	SetCoverImageURL(ctx context.Context, id uuid.UUID, url string) error

	// SetPublishedVersion атомарно переводит указатель publishedVersionId
	// и штамп lastPublishedAt. Вызывается только пайплайном публикации.
	SetPublishedVersion(ctx context.Context, id, versionID uuid.UUID, publishedAt time.Time) error

	// Delete удаляет историю. Узлы и версии каскадятся на уровне БД.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddActiveContributor идемпотентно добавляет пользователя в множество
	// присутствующих и возвращает обновленную историю.
	AddActiveContributor(ctx context.Context, storyID, userID uuid.UUID) (*models.Story, error)

	// RemoveActiveContributor идемпотентно убирает пользователя из множества
	// присутствующих и возвращает обновленную историю.
	RemoveActiveContributor(ctx context.Context, storyID, userID uuid.UUID) (*models.Story, error)

	// AddContributor добавляет постоянную запись участника, если ее еще нет.
	// Возвращает true, если запись была создана (первый вход пользователя).
	AddContributor(ctx context.Context, storyID, userID uuid.UUID, joinedAt time.Time) (bool, error)
}
