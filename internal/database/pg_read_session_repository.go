package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storyweave-server/internal/interfaces"
	"storyweave-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check
var _ interfaces.ReadSessionRepository = (*pgReadSessionRepository)(nil)

type pgReadSessionRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgReadSessionRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ReadSessionRepository {
	return &pgReadSessionRepository{
		db:     db,
		logger: logger.Named("PgReadSessionRepo"),
	}
}

func (r *pgReadSessionRepository) Create(ctx context.Context, session *interfaces.ReadSession) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO read_sessions (id, version_id, user_id, current_node_id, started_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, session.VersionID, session.UserID, session.CurrentNodeID,
		session.StartedAt, session.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create read session",
			zap.String("sessionID", session.ID.String()), zap.Error(err))
		return fmt.Errorf("ошибка создания сессии чтения: %w", err)
	}
	return nil
}

func (r *pgReadSessionRepository) Advance(ctx context.Context, sessionID, nodeID uuid.UUID) (*interfaces.ReadSession, error) {
	query := `
        UPDATE read_sessions SET current_node_id = $2, updated_at = $3
        WHERE id = $1
        RETURNING id, version_id, user_id, current_node_id, started_at, updated_at`
	session := &interfaces.ReadSession{}
	err := r.db.QueryRow(ctx, query, sessionID, nodeID, time.Now().UTC()).Scan(
		&session.ID, &session.VersionID, &session.UserID,
		&session.CurrentNodeID, &session.StartedAt, &session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to advance read session",
			zap.String("sessionID", sessionID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка продвижения сессии чтения %s: %w", sessionID, err)
	}
	return session, nil
}

func (r *pgReadSessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (*interfaces.ReadSession, error) {
	session := &interfaces.ReadSession{}
	err := pgxscan.Get(ctx, r.db, session, `
        SELECT id, version_id, user_id, current_node_id, started_at, updated_at
        FROM read_sessions WHERE id = $1`,
		sessionID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get read session", zap.String("sessionID", sessionID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения сессии чтения %s: %w", sessionID, err)
	}
	return session, nil
}
