package interfaces

import (
	"context"

	"github.com/google/uuid"
)

// StarRepository определяет методы коллаборатора звезд/избранного.
// Ядро графа только читает агрегированные счетчики отсюда.
//
//go:generate mockery --name StarRepository --output ./mocks --outpkg mocks --case=underscore
type StarRepository interface {
	// Add добавляет звезду. Идемпотентно: повторная звезда не ошибка.
	Add(ctx context.Context, storyID, userID uuid.UUID) error

	// Remove убирает звезду. Идемпотентно.
	Remove(ctx context.Context, storyID, userID uuid.UUID) error

	// Exists проверяет, ставил ли пользователь звезду истории.
	Exists(ctx context.Context, storyID, userID uuid.UUID) (bool, error)

	// CountByStory возвращает число звезд истории.
	CountByStory(ctx context.Context, storyID uuid.UUID) (int64, error)
}
