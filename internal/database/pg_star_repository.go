package database

import (
	"context"
	"fmt"

	"storyweave-server/internal/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time check
var _ interfaces.StarRepository = (*pgStarRepository)(nil)

type pgStarRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgStarRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.StarRepository {
	return &pgStarRepository{
		db:     db,
		logger: logger.Named("PgStarRepo"),
	}
}

func (r *pgStarRepository) Add(ctx context.Context, storyID, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO stars (story_id, user_id)
        VALUES ($1, $2)
        ON CONFLICT (story_id, user_id) DO NOTHING`,
		storyID, userID,
	)
	if err != nil {
		r.logger.Error("Failed to add star",
			zap.String("storyID", storyID.String()), zap.String("userID", userID.String()), zap.Error(err))
		return fmt.Errorf("ошибка добавления звезды истории %s: %w", storyID, err)
	}
	return nil
}

func (r *pgStarRepository) Remove(ctx context.Context, storyID, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM stars WHERE story_id = $1 AND user_id = $2`,
		storyID, userID,
	)
	if err != nil {
		r.logger.Error("Failed to remove star",
			zap.String("storyID", storyID.String()), zap.String("userID", userID.String()), zap.Error(err))
		return fmt.Errorf("ошибка снятия звезды истории %s: %w", storyID, err)
	}
	return nil
}

func (r *pgStarRepository) Exists(ctx context.Context, storyID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM stars WHERE story_id = $1 AND user_id = $2)`,
		storyID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки звезды истории %s: %w", storyID, err)
	}
	return exists, nil
}

func (r *pgStarRepository) CountByStory(ctx context.Context, storyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM stars WHERE story_id = $1`,
		storyID,
	).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count stars", zap.String("storyID", storyID.String()), zap.Error(err))
		return 0, fmt.Errorf("ошибка подсчета звезд истории %s: %w", storyID, err)
	}
	return count, nil
}
