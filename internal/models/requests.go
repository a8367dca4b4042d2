package models

import "github.com/google/uuid"

// CreateStoryRequest — тело запроса на создание истории.
type CreateStoryRequest struct {
	Title       string   `json:"title" binding:"required,min=1,max=200"`
	Description string   `json:"description" binding:"max=2000"`
	Tags        []string `json:"tags" binding:"max=10"`
}

// UpdateStoryRequest — частичное обновление метаданных истории.
// Структура графа через этот запрос не меняется.
type UpdateStoryRequest struct {
	Title       *string  `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Description *string  `json:"description,omitempty" binding:"omitempty,max=2000"`
	Tags        []string `json:"tags,omitempty" binding:"omitempty,max=10"`
}

// CreateNodeRequest — тело запроса на создание узла графа. Начальные
// связи опциональны: обычно ребра добавляются отдельными запросами.
type CreateNodeRequest struct {
	Type          NodeType    `json:"type" binding:"required"`
	VersionID     uuid.UUID   `json:"versionId" binding:"required"`
	Position      Position    `json:"positionOnFlowchart"`
	Content       NodeContent `json:"content"`
	ChapterTitle  *string     `json:"chapterTitle,omitempty"`
	ParentNodeIDs []uuid.UUID `json:"parentIds,omitempty"`
	TargetNodeIDs []uuid.UUID `json:"targetIds,omitempty"`
}

// UpdateNodeRequest — частичное обновление содержимого узла.
// Конкурентные правки не сливаются: последний писатель побеждает.
type UpdateNodeRequest struct {
	ContentText  *string `json:"contentText,omitempty"`
	ChapterTitle *string `json:"chapterTitle,omitempty"`
}

// ConnectionRequest — запрос на создание или удаление ребра графа.
type ConnectionRequest struct {
	SourceNodeID uuid.UUID `json:"sourceNodeId" binding:"required"`
	TargetNodeID uuid.UUID `json:"targetNodeId" binding:"required"`
}

// UpdatePositionRequest — перемещение узла на флоучарте.
type UpdatePositionRequest struct {
	Position Position `json:"positionOnFlowchart" binding:"required"`
}

// ConnectionPayload — обе стороны измененного ребра для рассылки и ответа.
type ConnectionPayload struct {
	Source *StoryNode `json:"source"`
	Target *StoryNode `json:"target"`
}

// ConnectionDeletedPayload — уведомление об удалении ребра. Клиентам
// хватает пары ID, полные узлы не рассылаются.
type ConnectionDeletedPayload struct {
	SourceNodeID uuid.UUID `json:"sourceNodeId"`
	TargetNodeID uuid.UUID `json:"targetNodeId"`
}

// NodeDeletedPayload — уведомление об удалении узла.
type NodeDeletedPayload struct {
	NodeID    uuid.UUID `json:"nodeId"`
	VersionID uuid.UUID `json:"versionId"`
}

// PresencePayload — уведомление о входе/выходе пользователя.
type PresencePayload struct {
	UserID             uuid.UUID   `json:"userId"`
	StoryID            uuid.UUID   `json:"storyId"`
	NodeID             *uuid.UUID  `json:"nodeId,omitempty"`
	ActiveContributors []uuid.UUID `json:"activeContributors"`
}

// VersionPublishedPayload — уведомление о публикации версии.
type VersionPublishedPayload struct {
	StoryID            uuid.UUID `json:"storyId"`
	PublishedVersionID uuid.UUID `json:"publishedVersionId"`
	NewDraftVersionID  uuid.UUID `json:"newDraftVersionId"`
	VersionNumber      int       `json:"versionNumber"`
}
