package models

import (
	"time"

	"github.com/google/uuid"
)

// NodeType определяет тип узла в графе истории.
// Совпадает с типом ENUM 'story_node_type' в БД.
type NodeType string

const (
	NodeTypeParagraph NodeType = "paragraph" // Повествовательный текст, может иметь заголовок главы
	NodeTypeOption    NodeType = "option"    // Выбор читателя, заголовка не имеет
)

// IsValid проверяет, что значение типа узла допустимо.
func (t NodeType) IsValid() bool {
	return t == NodeTypeParagraph || t == NodeTypeOption
}

// Position — координата узла на флоучарте редактора.
// Чисто презентационное поле, сохраняется ради стабильности раскладки.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeContent — содержимое узла.
type NodeContent struct {
	Text string `json:"text"`
}

// StoryNode представляет вершину графа ветвящейся истории.
// Узел принадлежит ровно одной версии; клонирование при публикации
// создает независимую копию с новым ID и новым VersionID.
type StoryNode struct {
	ID                 uuid.UUID   `json:"id" db:"id"`
	StoryID            uuid.UUID   `json:"storyId" db:"story_id"`
	VersionID          uuid.UUID   `json:"versionId" db:"version_id"`
	Type               NodeType    `json:"type" db:"type"`
	ParentNodeIDs      []uuid.UUID `json:"parentNodeIds" db:"parent_node_ids"`
	TargetNodeIDs      []uuid.UUID `json:"targetNodeIds" db:"target_node_ids"`
	Position           Position    `json:"positionOnFlowchart" db:"-"`
	ChapterTitle       *string     `json:"chapterTitle,omitempty" db:"chapter_title"`
	Content            NodeContent `json:"content" db:"-"`
	ActiveContributors []uuid.UUID `json:"activeContributors" db:"active_contributors"`
	CreatedBy          uuid.UUID   `json:"createdBy" db:"created_by"`
	UpdatedBy          uuid.UUID   `json:"updatedBy" db:"updated_by"`
	CreatedAt          time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time   `json:"updatedAt" db:"updated_at"`
}

// HasTarget сообщает, указывает ли узел на target уже сейчас.
func (n *StoryNode) HasTarget(targetID uuid.UUID) bool {
	for _, id := range n.TargetNodeIDs {
		if id == targetID {
			return true
		}
	}
	return false
}

// HasActiveContributor сообщает, присутствует ли пользователь в узле.
func (n *StoryNode) HasActiveContributor(userID uuid.UUID) bool {
	for _, id := range n.ActiveContributors {
		if id == userID {
			return true
		}
	}
	return false
}

// StoryNodeTree — узел дерева чтения: сам узел плюс рекурсивно
// заполненные дочерние узлы (по TargetNodeIDs). Строится в памяти из
// плоского набора узлов версии, не хранится в БД.
type StoryNodeTree struct {
	*StoryNode
	Children []*StoryNodeTree `json:"children"`
}
