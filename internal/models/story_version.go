package models

import (
	"time"

	"github.com/google/uuid"
)

// StoryVersion — дескриптор снапшота графа истории.
// Создается как черновик (номер 1 — вместе с историей); при публикации
// текущая версия помечается IsPublished, а ее узлы глубоко клонируются
// в новый черновик со следующим номером.
type StoryVersion struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	StoryID       uuid.UUID   `json:"storyId" db:"story_id"`
	VersionNumber int         `json:"versionNumber" db:"version_number"`
	IsPublished   bool        `json:"isPublished" db:"is_published"`
	RootNodeID    *uuid.UUID  `json:"rootNodeId,omitempty" db:"root_node_id"`
	NodeIDs       []uuid.UUID `json:"nodeIds" db:"node_ids"`
	ReadCount     int64       `json:"readCount" db:"read_count"`
	CreatedBy     uuid.UUID   `json:"createdBy" db:"created_by"`
	UpdatedBy     uuid.UUID   `json:"updatedBy" db:"updated_by"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" db:"updated_at"`
}

// IsRoot сообщает, является ли узел корнем этой версии.
func (v *StoryVersion) IsRoot(nodeID uuid.UUID) bool {
	return v.RootNodeID != nil && *v.RootNodeID == nodeID
}

// VersionStats — производная статистика версии. Считается на лету:
// число узлов из membership-списка, счетчик прочтений из самой версии,
// число звезд из коллаборатора Star.
type VersionStats struct {
	TotalNodes int   `json:"totalNodes"`
	ReadCount  int64 `json:"readCount"`
	StarCount  int64 `json:"starCount"`
}

// StoryVersionWithStats — версия вместе со статистикой для ответов API.
type StoryVersionWithStats struct {
	StoryVersion
	Stats VersionStats `json:"stats"`
}
