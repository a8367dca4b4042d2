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
var _ interfaces.StoryVersionRepository = (*pgStoryVersionRepository)(nil)

const versionColumns = `id, story_id, version_number, is_published, root_node_id, node_ids,
		read_count, created_by, updated_by, created_at, updated_at`

type pgStoryVersionRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgStoryVersionRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.StoryVersionRepository {
	return &pgStoryVersionRepository{
		db:     db,
		logger: logger.Named("PgStoryVersionRepo"),
	}
}

func scanVersion(row pgx.Row) (*models.StoryVersion, error) {
	v := &models.StoryVersion{}
	err := row.Scan(
		&v.ID, &v.StoryID, &v.VersionNumber, &v.IsPublished, &v.RootNodeID, &v.NodeIDs,
		&v.ReadCount, &v.CreatedBy, &v.UpdatedBy, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if v.NodeIDs == nil {
		v.NodeIDs = []uuid.UUID{}
	}
	return v, nil
}

func (r *pgStoryVersionRepository) Create(ctx context.Context, version *models.StoryVersion) error {
	query := `
        INSERT INTO story_versions
            (id, story_id, version_number, is_published, root_node_id, node_ids,
             read_count, created_by, updated_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	logFields := []zap.Field{
		zap.String("versionID", version.ID.String()),
		zap.String("storyID", version.StoryID.String()),
		zap.Int("versionNumber", version.VersionNumber),
	}
	r.logger.Debug("Creating story version", logFields...)

	_, err := r.db.Exec(ctx, query,
		version.ID, version.StoryID, version.VersionNumber, version.IsPublished,
		version.RootNodeID, version.NodeIDs, version.ReadCount,
		version.CreatedBy, version.UpdatedBy, version.CreatedAt, version.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create story version", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка создания версии: %w", err)
	}
	r.logger.Info("Story version created successfully", logFields...)
	return nil
}

func (r *pgStoryVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StoryVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM story_versions WHERE id = $1`
	version, err := scanVersion(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Story version not found", zap.String("versionID", id.String()))
			return nil, models.ErrVersionNotFound
		}
		r.logger.Error("Failed to get story version", zap.String("versionID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения версии %s: %w", id, err)
	}
	return version, nil
}

func (r *pgStoryVersionRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]*models.StoryVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM story_versions WHERE story_id = $1 ORDER BY version_number ASC`
	rows, err := r.db.Query(ctx, query, storyID)
	if err != nil {
		r.logger.Error("Failed to list story versions", zap.String("storyID", storyID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения версий истории %s: %w", storyID, err)
	}
	defer rows.Close()

	versions := []*models.StoryVersion{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования версии: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации по версиям: %w", err)
	}
	return versions, nil
}

// GetDraft возвращает текущий черновик — последнюю по номеру
// неопубликованную версию. Инвариант пайплайна публикации гарантирует,
// что такая версия ровно одна.
func (r *pgStoryVersionRepository) GetDraft(ctx context.Context, storyID uuid.UUID) (*models.StoryVersion, error) {
	query := `SELECT ` + versionColumns + `
        FROM story_versions
        WHERE story_id = $1 AND is_published = false
        ORDER BY version_number DESC
        LIMIT 1`
	version, err := scanVersion(r.db.QueryRow(ctx, query, storyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Draft version not found", zap.String("storyID", storyID.String()))
			return nil, models.ErrVersionNotFound
		}
		r.logger.Error("Failed to get draft version", zap.String("storyID", storyID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения черновика истории %s: %w", storyID, err)
	}
	return version, nil
}

func (r *pgStoryVersionRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE story_versions SET is_published = true, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to mark version published", zap.String("versionID", id.String()), zap.Error(err))
		return fmt.Errorf("ошибка публикации версии %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrVersionNotFound
	}
	r.logger.Info("Version marked as published", zap.String("versionID", id.String()))
	return nil
}

func (r *pgStoryVersionRepository) AddNodeID(ctx context.Context, versionID, nodeID uuid.UUID) (*models.StoryVersion, error) {
	query := `
        UPDATE story_versions SET
            node_ids = CASE
                WHEN $2 = ANY(node_ids) THEN node_ids
                ELSE array_append(node_ids, $2)
            END,
            updated_at = $3
        WHERE id = $1
        RETURNING ` + versionColumns
	return r.mutateNodeIDs(ctx, query, versionID, nodeID, "add")
}

func (r *pgStoryVersionRepository) RemoveNodeID(ctx context.Context, versionID, nodeID uuid.UUID) (*models.StoryVersion, error) {
	query := `
        UPDATE story_versions SET
            node_ids = array_remove(node_ids, $2),
            updated_at = $3
        WHERE id = $1
        RETURNING ` + versionColumns
	return r.mutateNodeIDs(ctx, query, versionID, nodeID, "remove")
}

func (r *pgStoryVersionRepository) mutateNodeIDs(ctx context.Context, query string, versionID, nodeID uuid.UUID, op string) (*models.StoryVersion, error) {
	logFields := []zap.Field{
		zap.String("versionID", versionID.String()),
		zap.String("nodeID", nodeID.String()),
		zap.String("op", op),
	}
	version, err := scanVersion(r.db.QueryRow(ctx, query, versionID, nodeID, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Version not found while mutating node membership", logFields...)
			return nil, models.ErrVersionNotFound
		}
		r.logger.Error("Failed to mutate version node membership", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка изменения состава версии %s: %w", versionID, err)
	}
	r.logger.Debug("Version node membership mutated", logFields...)
	return version, nil
}

func (r *pgStoryVersionRepository) IncrementReadCount(ctx context.Context, id uuid.UUID) (*models.StoryVersion, error) {
	query := `
        UPDATE story_versions SET read_count = read_count + 1, updated_at = $2
        WHERE id = $1
        RETURNING ` + versionColumns
	version, err := scanVersion(r.db.QueryRow(ctx, query, id, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrVersionNotFound
		}
		r.logger.Error("Failed to increment read count", zap.String("versionID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка инкремента прочтений версии %s: %w", id, err)
	}
	return version, nil
}
