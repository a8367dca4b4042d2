package interfaces

import (
	"context"
	"time"

	"storyweave-server/internal/models"

	"github.com/google/uuid"
)

// UserRepository определяет методы для проекции пользователя и его
// истории "недавно редактировал".
//
//go:generate mockery --name UserRepository --output ./mocks --outpkg mocks --case=underscore
type UserRepository interface {
	// GetByID возвращает пользователя. Возвращает models.ErrUserNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// Ensure создает запись пользователя, если ее еще нет (идентичность
	// выдает внешний провайдер, мы лишь храним проекцию).
	Ensure(ctx context.Context, id uuid.UUID) error

	// TouchEditedStory поднимает историю на верх списка "недавно
	// редактировал" пользователя, обрезая список до
	// models.EditedStoriesLimit записей.
	TouchEditedStory(ctx context.Context, userID, storyID uuid.UUID, editedAt time.Time) error

	// EditedStoryIDs возвращает ID недавно редактированных историй,
	// свежие первыми.
	EditedStoryIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
