package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReadSession — прогресс чтения опубликованной версии читателем.
type ReadSession struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	VersionID     uuid.UUID  `json:"versionId" db:"version_id"`
	UserID        uuid.UUID  `json:"userId" db:"user_id"`
	CurrentNodeID *uuid.UUID `json:"currentNodeId,omitempty" db:"current_node_id"`
	StartedAt     time.Time  `json:"startedAt" db:"started_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// ReadSessionRepository определяет методы коллаборатора прогресса
// чтения. Структуру графа не мутирует никогда.
//
//go:generate mockery --name ReadSessionRepository --output ./mocks --outpkg mocks --case=underscore
type ReadSessionRepository interface {
	// Create открывает сессию чтения версии.
	Create(ctx context.Context, session *ReadSession) error

	// Advance передвигает текущий узел сессии.
	Advance(ctx context.Context, sessionID, nodeID uuid.UUID) (*ReadSession, error)

	// GetByID возвращает сессию. Возвращает models.ErrNotFound.
	GetByID(ctx context.Context, sessionID uuid.UUID) (*ReadSession, error)
}
