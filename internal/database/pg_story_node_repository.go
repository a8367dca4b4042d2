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
var _ interfaces.StoryNodeRepository = (*pgStoryNodeRepository)(nil)

const nodeColumns = `id, story_id, version_id, type, parent_node_ids, target_node_ids,
		position_x, position_y, chapter_title, content_text, active_contributors,
		created_by, updated_by, created_at, updated_at`

type pgStoryNodeRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgStoryNodeRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.StoryNodeRepository {
	return &pgStoryNodeRepository{
		db:     db,
		logger: logger.Named("PgStoryNodeRepo"),
	}
}

func scanNode(row pgx.Row) (*models.StoryNode, error) {
	node := &models.StoryNode{}
	err := row.Scan(
		&node.ID, &node.StoryID, &node.VersionID, &node.Type,
		&node.ParentNodeIDs, &node.TargetNodeIDs,
		&node.Position.X, &node.Position.Y,
		&node.ChapterTitle, &node.Content.Text, &node.ActiveContributors,
		&node.CreatedBy, &node.UpdatedBy, &node.CreatedAt, &node.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if node.ParentNodeIDs == nil {
		node.ParentNodeIDs = []uuid.UUID{}
	}
	if node.TargetNodeIDs == nil {
		node.TargetNodeIDs = []uuid.UUID{}
	}
	if node.ActiveContributors == nil {
		node.ActiveContributors = []uuid.UUID{}
	}
	return node, nil
}

const insertNodeQuery = `
        INSERT INTO story_nodes
            (id, story_id, version_id, type, parent_node_ids, target_node_ids,
             position_x, position_y, chapter_title, content_text, active_contributors,
             created_by, updated_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
    `

func nodeInsertArgs(node *models.StoryNode) []any {
	return []any{
		node.ID, node.StoryID, node.VersionID, node.Type,
		node.ParentNodeIDs, node.TargetNodeIDs,
		node.Position.X, node.Position.Y,
		node.ChapterTitle, node.Content.Text, node.ActiveContributors,
		node.CreatedBy, node.UpdatedBy, node.CreatedAt, node.UpdatedAt,
	}
}

func (r *pgStoryNodeRepository) Create(ctx context.Context, node *models.StoryNode) error {
	logFields := []zap.Field{
		zap.String("nodeID", node.ID.String()),
		zap.String("storyID", node.StoryID.String()),
		zap.String("type", string(node.Type)),
	}
	r.logger.Debug("Creating story node", logFields...)

	_, err := r.db.Exec(ctx, insertNodeQuery, nodeInsertArgs(node)...)
	if err != nil {
		r.logger.Error("Failed to create story node", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка создания узла: %w", err)
	}
	r.logger.Info("Story node created successfully", logFields...)
	return nil
}

// CreateBatch вставляет узлы в одной транзакции. Используется вторым
// шагом клонирования версии, когда узлов может быть сотни.
func (r *pgStoryNodeRepository) CreateBatch(ctx context.Context, nodes []*models.StoryNode) error {
	if len(nodes) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, node := range nodes {
		batch.Queue(insertNodeQuery, nodeInsertArgs(node)...)
	}
	results := tx.SendBatch(ctx, batch)
	for range nodes {
		if _, err := results.Exec(); err != nil {
			results.Close()
			r.logger.Error("Failed to batch-insert story nodes", zap.Int("count", len(nodes)), zap.Error(err))
			return fmt.Errorf("ошибка пакетной вставки узлов: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("ошибка завершения пакетной вставки: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка коммита транзакции: %w", err)
	}
	r.logger.Info("Story nodes batch-inserted", zap.Int("count", len(nodes)))
	return nil
}

func (r *pgStoryNodeRepository) GetByID(ctx context.Context, storyID, nodeID uuid.UUID) (*models.StoryNode, error) {
	query := `SELECT ` + nodeColumns + ` FROM story_nodes WHERE story_id = $1 AND id = $2`
	logFields := []zap.Field{zap.String("storyID", storyID.String()), zap.String("nodeID", nodeID.String())}

	node, err := scanNode(r.db.QueryRow(ctx, query, storyID, nodeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Story node not found", logFields...)
			return nil, models.ErrNodeNotFound
		}
		r.logger.Error("Failed to get story node", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка получения узла %s: %w", nodeID, err)
	}
	return node, nil
}

func (r *pgStoryNodeRepository) List(ctx context.Context, filter interfaces.NodeFilter) ([]*models.StoryNode, error) {
	query := `SELECT ` + nodeColumns + ` FROM story_nodes WHERE story_id = $1`
	args := []any{filter.StoryID}

	if filter.VersionID != nil {
		args = append(args, *filter.VersionID)
		query += fmt.Sprintf(" AND version_id = $%d", len(args))
	}
	if filter.ParentNodeID != nil {
		args = append(args, *filter.ParentNodeID)
		query += fmt.Sprintf(" AND $%d = ANY(parent_node_ids)", len(args))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list story nodes", zap.String("storyID", filter.StoryID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка получения узлов истории %s: %w", filter.StoryID, err)
	}
	defer rows.Close()

	return collectNodes(rows)
}

func (r *pgStoryNodeRepository) ListByVersion(ctx context.Context, storyID, versionID uuid.UUID) ([]*models.StoryNode, error) {
	return r.List(ctx, interfaces.NodeFilter{StoryID: storyID, VersionID: &versionID})
}

func collectNodes(rows pgx.Rows) ([]*models.StoryNode, error) {
	nodes := []*models.StoryNode{}
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования узла: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации по узлам: %w", err)
	}
	return nodes, nil
}

// Update перезаписывает только переданные поля. Optimistic-concurrency
// проверок нет: при конкурентных правках одного узла побеждает
// последний писатель.
func (r *pgStoryNodeRepository) Update(ctx context.Context, storyID, nodeID uuid.UUID, upd interfaces.NodeUpdate) (*models.StoryNode, error) {
	query := `
        UPDATE story_nodes SET
            type                = COALESCE($3::story_node_type, type),
            content_text        = COALESCE($4, content_text),
            chapter_title       = COALESCE($5, chapter_title),
            position_x          = COALESCE($6::float8, position_x),
            position_y          = COALESCE($7::float8, position_y),
            version_id          = COALESCE($8::uuid, version_id),
            parent_node_ids     = COALESCE($9::uuid[], parent_node_ids),
            target_node_ids     = COALESCE($10::uuid[], target_node_ids),
            active_contributors = COALESCE($11::uuid[], active_contributors),
            updated_by          = COALESCE($12::uuid, updated_by),
            updated_at          = $13
        WHERE story_id = $1 AND id = $2
        RETURNING ` + nodeColumns
	logFields := []zap.Field{zap.String("storyID", storyID.String()), zap.String("nodeID", nodeID.String())}
	r.logger.Debug("Updating story node", logFields...)

	var posX, posY *float64
	if upd.Position != nil {
		posX, posY = &upd.Position.X, &upd.Position.Y
	}

	node, err := scanNode(r.db.QueryRow(ctx, query,
		storyID, nodeID,
		upd.Type, upd.ContentText, upd.ChapterTitle,
		posX, posY, upd.VersionID,
		upd.ParentNodeIDs, upd.TargetNodeIDs, upd.ActiveContributors,
		upd.UpdatedBy, time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Attempted to update non-existent node", logFields...)
			return nil, models.ErrNodeNotFound
		}
		r.logger.Error("Failed to update story node", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка обновления узла %s: %w", nodeID, err)
	}
	r.logger.Info("Story node updated successfully", logFields...)
	return node, nil
}

func (r *pgStoryNodeRepository) SetEdges(ctx context.Context, nodeID uuid.UUID, parentIDs, targetIDs []uuid.UUID) error {
	if parentIDs == nil {
		parentIDs = []uuid.UUID{}
	}
	if targetIDs == nil {
		targetIDs = []uuid.UUID{}
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE story_nodes SET parent_node_ids = $2, target_node_ids = $3, updated_at = $4 WHERE id = $1`,
		nodeID, parentIDs, targetIDs, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to set node edges", zap.String("nodeID", nodeID.String()), zap.Error(err))
		return fmt.Errorf("ошибка перезаписи связей узла %s: %w", nodeID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNodeNotFound
	}
	return nil
}

func (r *pgStoryNodeRepository) Delete(ctx context.Context, storyID, nodeID uuid.UUID) error {
	logFields := []zap.Field{zap.String("storyID", storyID.String()), zap.String("nodeID", nodeID.String())}
	tag, err := r.db.Exec(ctx, `DELETE FROM story_nodes WHERE story_id = $1 AND id = $2`, storyID, nodeID)
	if err != nil {
		r.logger.Error("Failed to delete story node", append(logFields, zap.Error(err))...)
		return fmt.Errorf("ошибка удаления узла %s: %w", nodeID, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to delete non-existent node", logFields...)
		return models.ErrNodeNotFound
	}
	r.logger.Info("Story node deleted successfully", logFields...)
	return nil
}

// ScrubReferences вычищает ссылки на удаленный узел из всех остальных
// узлов истории, чтобы в графе не оставалось висячих ребер.
func (r *pgStoryNodeRepository) ScrubReferences(ctx context.Context, storyID, nodeID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE story_nodes SET
            parent_node_ids = array_remove(parent_node_ids, $2),
            target_node_ids = array_remove(target_node_ids, $2),
            updated_at      = $3
        WHERE story_id = $1 AND ($2 = ANY(parent_node_ids) OR $2 = ANY(target_node_ids))`,
		storyID, nodeID, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to scrub node references",
			zap.String("storyID", storyID.String()), zap.String("nodeID", nodeID.String()), zap.Error(err))
		return fmt.Errorf("ошибка вычистки ссылок на узел %s: %w", nodeID, err)
	}
	r.logger.Debug("Node references scrubbed",
		zap.String("nodeID", nodeID.String()), zap.Int64("affected", tag.RowsAffected()))
	return nil
}

// AddConnection добавляет ребро source -> target: target попадает в
// target_node_ids источника, source — в parent_node_ids цели. Обе
// записи меняются в одной транзакции, чтобы ссылки не разъехались.
func (r *pgStoryNodeRepository) AddConnection(ctx context.Context, storyID, sourceID, targetID, updatedBy uuid.UUID) (*models.StoryNode, *models.StoryNode, error) {
	return r.mutateConnection(ctx, storyID, sourceID, targetID, updatedBy, true)
}

func (r *pgStoryNodeRepository) RemoveConnection(ctx context.Context, storyID, sourceID, targetID, updatedBy uuid.UUID) (*models.StoryNode, *models.StoryNode, error) {
	return r.mutateConnection(ctx, storyID, sourceID, targetID, updatedBy, false)
}

func (r *pgStoryNodeRepository) mutateConnection(ctx context.Context, storyID, sourceID, targetID, updatedBy uuid.UUID, add bool) (*models.StoryNode, *models.StoryNode, error) {
	sourceQuery := `
        UPDATE story_nodes SET
            target_node_ids = array_remove(target_node_ids, $3),
            updated_by = $4, updated_at = $5
        WHERE story_id = $1 AND id = $2
        RETURNING ` + nodeColumns
	targetQuery := `
        UPDATE story_nodes SET
            parent_node_ids = array_remove(parent_node_ids, $3),
            updated_by = $4, updated_at = $5
        WHERE story_id = $1 AND id = $2
        RETURNING ` + nodeColumns
	if add {
		sourceQuery = `
        UPDATE story_nodes SET
            target_node_ids = CASE
                WHEN $3 = ANY(target_node_ids) THEN target_node_ids
                ELSE array_append(target_node_ids, $3)
            END,
            updated_by = $4, updated_at = $5
        WHERE story_id = $1 AND id = $2
        RETURNING ` + nodeColumns
		targetQuery = `
        UPDATE story_nodes SET
            parent_node_ids = CASE
                WHEN $3 = ANY(parent_node_ids) THEN parent_node_ids
                ELSE array_append(parent_node_ids, $3)
            END,
            updated_by = $4, updated_at = $5
        WHERE story_id = $1 AND id = $2
        RETURNING ` + nodeColumns
	}

	logFields := []zap.Field{
		zap.String("storyID", storyID.String()),
		zap.String("sourceID", sourceID.String()),
		zap.String("targetID", targetID.String()),
		zap.Bool("add", add),
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	source, err := scanNode(tx.QueryRow(ctx, sourceQuery, storyID, sourceID, targetID, updatedBy, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, models.ErrNodeNotFound
		}
		r.logger.Error("Failed to mutate source node edges", append(logFields, zap.Error(err))...)
		return nil, nil, fmt.Errorf("ошибка изменения связей узла %s: %w", sourceID, err)
	}

	target, err := scanNode(tx.QueryRow(ctx, targetQuery, storyID, targetID, sourceID, updatedBy, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, models.ErrNodeNotFound
		}
		r.logger.Error("Failed to mutate target node edges", append(logFields, zap.Error(err))...)
		return nil, nil, fmt.Errorf("ошибка изменения связей узла %s: %w", targetID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("ошибка коммита транзакции: %w", err)
	}
	r.logger.Info("Connection mutated successfully", logFields...)
	return source, target, nil
}

func (r *pgStoryNodeRepository) UpdatePosition(ctx context.Context, storyID, nodeID uuid.UUID, pos models.Position, updatedBy uuid.UUID) (*models.StoryNode, error) {
	query := `
        UPDATE story_nodes SET
            position_x = $3, position_y = $4, updated_by = $5, updated_at = $6
        WHERE story_id = $1 AND id = $2
        RETURNING ` + nodeColumns
	node, err := scanNode(r.db.QueryRow(ctx, query, storyID, nodeID, pos.X, pos.Y, updatedBy, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNodeNotFound
		}
		r.logger.Error("Failed to update node position",
			zap.String("storyID", storyID.String()), zap.String("nodeID", nodeID.String()), zap.Error(err))
		return nil, fmt.Errorf("ошибка перемещения узла %s: %w", nodeID, err)
	}
	return node, nil
}

func (r *pgStoryNodeRepository) AddActiveContributor(ctx context.Context, nodeID, userID uuid.UUID) (*models.StoryNode, error) {
	query := `
        UPDATE story_nodes SET
            active_contributors = CASE
                WHEN $2 = ANY(active_contributors) THEN active_contributors
                ELSE array_append(active_contributors, $2)
            END,
            updated_at = $3
        WHERE id = $1
        RETURNING ` + nodeColumns
	return r.mutateNodePresence(ctx, query, nodeID, userID, "add")
}

func (r *pgStoryNodeRepository) RemoveActiveContributor(ctx context.Context, nodeID, userID uuid.UUID) (*models.StoryNode, error) {
	query := `
        UPDATE story_nodes SET
            active_contributors = array_remove(active_contributors, $2),
            updated_at = $3
        WHERE id = $1
        RETURNING ` + nodeColumns
	return r.mutateNodePresence(ctx, query, nodeID, userID, "remove")
}

func (r *pgStoryNodeRepository) mutateNodePresence(ctx context.Context, query string, nodeID, userID uuid.UUID, op string) (*models.StoryNode, error) {
	logFields := []zap.Field{
		zap.String("nodeID", nodeID.String()),
		zap.String("userID", userID.String()),
		zap.String("op", op),
	}
	node, err := scanNode(r.db.QueryRow(ctx, query, nodeID, userID, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Node not found while mutating presence", logFields...)
			return nil, models.ErrNodeNotFound
		}
		r.logger.Error("Failed to mutate node presence", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("ошибка изменения присутствия в узле %s: %w", nodeID, err)
	}
	r.logger.Debug("Node presence mutated", logFields...)
	return node, nil
}

// RemoveContributorFromVersion снимает присутствие пользователя со всех
// узлов версии. Вызывается при дисконнекте, когда клиент не успел
// послать leave-node.
func (r *pgStoryNodeRepository) RemoveContributorFromVersion(ctx context.Context, versionID, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE story_nodes SET
            active_contributors = array_remove(active_contributors, $2),
            updated_at = $3
        WHERE version_id = $1 AND $2 = ANY(active_contributors)`,
		versionID, userID, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to remove contributor from version nodes",
			zap.String("versionID", versionID.String()), zap.String("userID", userID.String()), zap.Error(err))
		return 0, fmt.Errorf("ошибка снятия присутствия с узлов версии %s: %w", versionID, err)
	}
	return tag.RowsAffected(), nil
}
