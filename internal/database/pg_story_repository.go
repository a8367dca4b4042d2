package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storyweave-server/internal/interfaces"
	"storyweave-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check
var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

const storyColumns = `id, owner_id, title, description, tags, active_contributors,
		cover_image_url, published_version_id, last_published_at, created_at, updated_at`

type pgStoryRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgStoryRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("PgStoryRepo"),
	}
}

func scanStory(row pgx.Row) (*models.Story, error) {
	story := &models.Story{}
	err := row.Scan(
		&story.ID, &story.OwnerID, &story.Title, &story.Description,
		&story.Tags, &story.ActiveContributors,
		&story.CoverImageURL, &story.PublishedVersionID, &story.LastPublishedAt,
		&story.CreatedAt, &story.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if story.Tags == nil {
		story.Tags = []string{}
	}
	if story.ActiveContributors == nil {
		story.ActiveContributors = []uuid.UUID{}
	}
	return story, nil
}

func (r *pgStoryRepository) Create(ctx context.Context, story *models.Story) error {
	logFields := []zap.Field{zap.String("storyID", story.ID.String()), zap.String("ownerID", story.OwnerID.String())}
	r.logger.Debug("Creating story", logFields...)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO stories
            (id, owner_id, title, description, tags, active_contributors, cover_image_url,
             published_version_id, last_published_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	_, err = tx.Exec(ctx, query,
		story.ID, story.OwnerID, story.Title, story.Description,
		story.Tags, story.ActiveContributors, story.CoverImageURL,
		story.PublishedVersionID, story.LastPublishedAt,
		story.CreatedAt, story.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create story", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка создания истории: %w", err)
	}

	// Владелец сразу становится постоянным участником.
	_, err = tx.Exec(ctx,
		`INSERT INTO story_contributors (story_id, user_id, joined_at) VALUES ($1, $2, $3)`,
		story.ID, story.OwnerID, story.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert owner contributor", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка добавления владельца в участники: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка коммита транзакции: %w", err)
	}
	r.logger.Info("Story created successfully", logFields...)
	return nil
}

func (r *pgStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`
	logFields := []zap.Field{zap.String("storyID", id.String())}
	r.logger.Debug("Getting story by ID", logFields...)

	story, err := scanStory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Story not found by ID", logFields...)
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story by ID", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка получения истории %s: %w", id, err)
	}

	if err := r.loadContributors(ctx, story); err != nil {
		return nil, err
	}
	return story, nil
}

func (r *pgStoryRepository) loadContributors(ctx context.Context, story *models.Story) error {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, joined_at FROM story_contributors WHERE story_id = $1 ORDER BY joined_at ASC`,
		story.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка получения участников истории %s: %w", story.ID, err)
	}
	defer rows.Close()

	story.Contributors = []models.Contributor{}
	for rows.Next() {
		var c models.Contributor
		if err := rows.Scan(&c.UserID, &c.JoinedAt); err != nil {
			return fmt.Errorf("ошибка сканирования участника: %w", err)
		}
		story.Contributors = append(story.Contributors, c)
	}
	return rows.Err()
}

func (r *pgStoryRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM stories WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check story existence", zap.String("storyID", id.String()), zap.Error(err))
		return false, fmt.Errorf("ошибка проверки существования истории %s: %w", id, err)
	}
	return exists, nil
}

func (r *pgStoryRepository) List(ctx context.Context, filter models.StoryFilter) ([]*models.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories`
	conditions := []string{}
	args := []any{}

	if len(filter.IDs) > 0 {
		args = append(args, filter.IDs)
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY updated_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err))
		return nil, fmt.Errorf("ошибка получения списка историй: %w", err)
	}
	defer rows.Close()

	stories := []*models.Story{}
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования истории: %w", err)
		}
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации по историям: %w", err)
	}
	return stories, nil
}

func (r *pgStoryRepository) UpdateMeta(ctx context.Context, id uuid.UUID, upd models.StoryMetaUpdate) (*models.Story, error) {
	query := `
        UPDATE stories SET
            title       = COALESCE($2, title),
            description = COALESCE($3, description),
            tags        = COALESCE($4, tags),
            updated_at  = $5
        WHERE id = $1
        RETURNING ` + storyColumns
	logFields := []zap.Field{zap.String("storyID", id.String())}
	r.logger.Debug("Updating story metadata", logFields...)

	story, err := scanStory(r.db.QueryRow(ctx, query, id, upd.Title, upd.Description, upd.Tags, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Attempted to update non-existent story", logFields...)
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to update story metadata", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка обновления истории %s: %w", id, err)
	}

	if err := r.loadContributors(ctx, story); err != nil {
		return nil, err
	}
	r.logger.Info("Story metadata updated successfully", logFields...)
	return story, nil
}

func (r *pgStoryRepository) SetCoverImageURL(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE stories SET cover_image_url = $2, updated_at = $3 WHERE id = $1`,
		id, url, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to set cover image URL", zap.String("storyID", id.String()), zap.Error(err))
		return fmt.Errorf("ошибка сохранения обложки истории %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	return nil
}

func (r *pgStoryRepository) SetPublishedVersion(ctx context.Context, id, versionID uuid.UUID, publishedAt time.Time) error {
	logFields := []zap.Field{zap.String("storyID", id.String()), zap.String("versionID", versionID.String())}
	tag, err := r.db.Exec(ctx,
		`UPDATE stories SET published_version_id = $2, last_published_at = $3, updated_at = $3 WHERE id = $1`,
		id, versionID, publishedAt,
	)
	if err != nil {
		r.logger.Error("Failed to set published version", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка установки опубликованной версии истории %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to publish non-existent story", logFields...)
		return models.ErrStoryNotFound
	}
	r.logger.Info("Published version pointer updated", logFields...)
	return nil
}

func (r *pgStoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	logFields := []zap.Field{zap.String("storyID", id.String())}
	tag, err := r.db.Exec(ctx, `DELETE FROM stories WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete story", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка удаления истории %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to delete non-existent story", logFields...)
		return models.ErrStoryNotFound
	}
	r.logger.Info("Story deleted successfully", logFields...)
	return nil
}

// AddActiveContributor идемпотентен: CASE защищает от дублей при
// конкурентных входах одного пользователя с двух вкладок.
func (r *pgStoryRepository) AddActiveContributor(ctx context.Context, storyID, userID uuid.UUID) (*models.Story, error) {
	query := `
        UPDATE stories SET
            active_contributors = CASE
                WHEN $2 = ANY(active_contributors) THEN active_contributors
                ELSE array_append(active_contributors, $2)
            END,
            updated_at = $3
        WHERE id = $1
        RETURNING ` + storyColumns
	return r.mutateActiveContributors(ctx, query, storyID, userID, "add")
}

func (r *pgStoryRepository) RemoveActiveContributor(ctx context.Context, storyID, userID uuid.UUID) (*models.Story, error) {
	query := `
        UPDATE stories SET
            active_contributors = array_remove(active_contributors, $2),
            updated_at = $3
        WHERE id = $1
        RETURNING ` + storyColumns
	return r.mutateActiveContributors(ctx, query, storyID, userID, "remove")
}

func (r *pgStoryRepository) mutateActiveContributors(ctx context.Context, query string, storyID, userID uuid.UUID, op string) (*models.Story, error) {
	logFields := []zap.Field{
		zap.String("storyID", storyID.String()),
		zap.String("userID", userID.String()),
		zap.String("op", op),
	}
	story, err := scanStory(r.db.QueryRow(ctx, query, storyID, userID, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Story not found while mutating active contributors", logFields...)
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to mutate active contributors", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка изменения активных участников истории %s: %w", storyID, err)
	}
	if err := r.loadContributors(ctx, story); err != nil {
		return nil, err
	}
	r.logger.Debug("Active contributors mutated", logFields...)
	return story, nil
}

func (r *pgStoryRepository) AddContributor(ctx context.Context, storyID, userID uuid.UUID, joinedAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO story_contributors (story_id, user_id, joined_at)
         VALUES ($1, $2, $3)
         ON CONFLICT (story_id, user_id) DO NOTHING`,
		storyID, userID, joinedAt,
	)
	if err != nil {
		r.logger.Error("Failed to add contributor",
			zap.String("storyID", storyID.String()), zap.String("userID", userID.String()), zap.Error(err))
		return false, fmt.Errorf("ошибка добавления участника истории %s: %w", storyID, err)
	}
	return tag.RowsAffected() > 0, nil
}
