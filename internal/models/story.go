package models

import (
	"time"

	"github.com/google/uuid"
)

// Contributor — постоянная запись об участнике истории.
// Не путать с ActiveContributors: туда пользователь попадает только на
// время присутствия в черновике, сюда — навсегда при первом входе.
type Contributor struct {
	UserID   uuid.UUID `json:"userId" db:"user_id"`
	JoinedAt time.Time `json:"joinedAt" db:"joined_at"`
}

// Story представляет историю — корневой агрегат совместного
// редактирования. Граф узлов и версии хранятся отдельно.
type Story struct {
	ID                 uuid.UUID     `json:"id" db:"id"`
	OwnerID            uuid.UUID     `json:"ownerId" db:"owner_id"`
	Title              string        `json:"title" db:"title"`
	Description        string        `json:"description" db:"description"`
	Tags               []string      `json:"tags" db:"tags"`
	Contributors       []Contributor `json:"contributors" db:"-"`
	ActiveContributors []uuid.UUID   `json:"activeContributors" db:"active_contributors"`
	CoverImageURL      *string       `json:"coverImageUrl,omitempty" db:"cover_image_url"`
	// PublishedVersionID указывает на последнюю опубликованную версию.
	// Меняется только через публикацию владельцем.
	PublishedVersionID *uuid.UUID `json:"publishedVersionId,omitempty" db:"published_version_id"`
	LastPublishedAt    *time.Time `json:"lastPublishedAt,omitempty" db:"last_published_at"`
	CreatedAt          time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time  `json:"updatedAt" db:"updated_at"`
}

// StoryMetaUpdate — частичное обновление метаданных истории.
// nil-поле означает "не трогать".
type StoryMetaUpdate struct {
	Title       *string
	Description *string
	Tags        []string
}

// IsEmpty сообщает, есть ли в обновлении хоть одно поле.
func (u StoryMetaUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Tags == nil
}

// StoryFilter — параметры выборки списка историй.
type StoryFilter struct {
	IDs    []uuid.UUID // Ограничить выборку конкретными ID (фильтр по editedStories)
	Tag    string
	Search string // Подстрока в title/description, без учета регистра
}

// StoryDetail — история вместе с ее опубликованной версией, как ее
// видит читатель на странице описания.
type StoryDetail struct {
	Story
	CurrentVersion *StoryVersionWithStats `json:"currentVersion,omitempty"`
	IsOwner        bool                   `json:"isOwner"`
	IsStarred      bool                   `json:"isStarred"`
}
