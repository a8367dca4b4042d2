package models

import (
	"time"

	"github.com/google/uuid"
)

// User — проекция пользователя внешнего провайдера идентичности.
// Сервер доверяет ID из токена и не занимается аутентификацией сам.
type User struct {
	ID          uuid.UUID `json:"id" db:"id"`
	DisplayName string    `json:"displayName" db:"display_name"`
	AvatarURL   *string   `json:"avatarUrl,omitempty" db:"avatar_url"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// EditedStory — запись "недавно редактировал" в дашборде аккаунта.
// Храним не больше 20 последних на пользователя.
type EditedStory struct {
	StoryID      uuid.UUID `json:"storyId" db:"story_id"`
	LastEditedAt time.Time `json:"lastEditedAt" db:"last_edited_at"`
}

// EditedStoriesLimit — сколько последних отредактированных историй
// хранится на пользователя.
const EditedStoriesLimit = 20
