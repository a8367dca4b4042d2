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
var _ interfaces.UserRepository = (*pgUserRepository)(nil)

type pgUserRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgUserRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.UserRepository {
	return &pgUserRepository{
		db:     db,
		logger: logger.Named("PgUserRepo"),
	}
}

func (r *pgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT id, display_name, avatar_url, created_at, updated_at FROM users WHERE id = $1`
	user := &models.User{}
	err := pgxscan.Get(ctx, r.db, user, query, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("User not found", zap.String("userID", id.String()))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user", zap.String("userID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения пользователя %s: %w", id, err)
	}
	return user, nil
}

// Ensure создает проекцию пользователя при первом обращении.
// Идентичность выдает внешний провайдер, здесь только локальная запись.
func (r *pgUserRepository) Ensure(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (id, display_name, created_at, updated_at)
        VALUES ($1, '', $2, $2)
        ON CONFLICT (id) DO NOTHING`,
		id, now,
	)
	if err != nil {
		r.logger.Error("Failed to ensure user", zap.String("userID", id.String()), zap.Error(err))
		return fmt.Errorf("ошибка создания проекции пользователя %s: %w", id, err)
	}
	return nil
}

// TouchEditedStory поднимает историю на верх списка "недавно
// редактировал" и обрезает хвост до лимита.
func (r *pgUserRepository) TouchEditedStory(ctx context.Context, userID, storyID uuid.UUID, editedAt time.Time) error {
	logFields := []zap.Field{zap.String("userID", userID.String()), zap.String("storyID", storyID.String())}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        INSERT INTO user_edited_stories (user_id, story_id, last_edited_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, story_id) DO UPDATE SET last_edited_at = EXCLUDED.last_edited_at`,
		userID, storyID, editedAt,
	)
	if err != nil {
		r.logger.Error("Failed to touch edited story", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка обновления списка редактирования: %w", err)
	}

	_, err = tx.Exec(ctx, `
        DELETE FROM user_edited_stories
        WHERE user_id = $1 AND story_id NOT IN (
            SELECT story_id FROM user_edited_stories
            WHERE user_id = $1
            ORDER BY last_edited_at DESC
            LIMIT $2
        )`,
		userID, models.EditedStoriesLimit,
	)
	if err != nil {
		r.logger.Error("Failed to trim edited stories", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка обрезки списка редактирования: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка коммита транзакции: %w", err)
	}
	r.logger.Debug("Edited story touched", logFields...)
	return nil
}

func (r *pgUserRepository) EditedStoryIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := pgxscan.Select(ctx, r.db, &ids, `
        SELECT story_id FROM user_edited_stories
        WHERE user_id = $1
        ORDER BY last_edited_at DESC`,
		userID,
	)
	if err != nil {
		r.logger.Error("Failed to get edited story IDs", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения списка редактирования пользователя %s: %w", userID, err)
	}
	return ids, nil
}
