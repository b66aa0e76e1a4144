package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"self-sim-server/internal/interfaces"
	"self-sim-server/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.SceneRepository = (*pgSceneRepository)(nil)

type pgSceneRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgSceneRepository creates a new PostgreSQL-backed SceneRepository.
func NewPgSceneRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.SceneRepository {
	return &pgSceneRepository{
		db:     db,
		logger: logger.Named("PgSceneRepo"),
	}
}

const createSceneQuery = `
INSERT INTO scenes (id, speaker, bg, text, choices, meta, is_end, is_start)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const getSceneByIDQuery = `
SELECT id, speaker, bg, text, choices, meta, is_end, is_start, created_at, updated_at
FROM scenes
WHERE id = $1`

const listScenesQuery = `
SELECT id, speaker, bg, text, choices, meta, is_end, is_start, created_at, updated_at
FROM scenes
ORDER BY id ASC`

const getStartSceneIDQuery = `
SELECT id FROM scenes WHERE is_start ORDER BY id ASC LIMIT 1`

const updateSceneQuery = `
UPDATE scenes
SET speaker = $2, bg = $3, text = $4, choices = $5, meta = $6, is_end = $7, is_start = $8, updated_at = now()
WHERE id = $1`

const deleteSceneQuery = `DELETE FROM scenes WHERE id = $1`

// Create inserts a new scene. A duplicate id is a conflict, never an overwrite.
func (r *pgSceneRepository) Create(ctx context.Context, scene *models.Scene) error {
	choicesJSON, metaJSON, err := encodeSceneJSON(scene)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, createSceneQuery,
		scene.ID, scene.Speaker, scene.Background, scene.Text,
		choicesJSON, metaJSON, scene.End, scene.Start,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			r.logger.Warn("Attempted to create duplicate scene", zap.String("sceneID", scene.ID))
			return models.ErrSceneAlreadyExists
		}
		r.logger.Error("Failed to create scene", zap.Error(err), zap.String("sceneID", scene.ID))
		return fmt.Errorf("failed to create scene: %w", err)
	}
	r.logger.Info("Scene created", zap.String("sceneID", scene.ID))
	return nil
}

// GetByID retrieves a single scene.
func (r *pgSceneRepository) GetByID(ctx context.Context, id string) (*models.Scene, error) {
	scene, err := scanScene(r.db.QueryRow(ctx, getSceneByIDQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Scene not found", zap.String("sceneID", id))
			return nil, models.ErrSceneNotFound
		}
		r.logger.Error("Failed to get scene by id", zap.Error(err), zap.String("sceneID", id))
		return nil, fmt.Errorf("failed to get scene %s: %w", id, err)
	}
	return scene, nil
}

// ListAll returns every stored scene ordered by id.
func (r *pgSceneRepository) ListAll(ctx context.Context) ([]models.Scene, error) {
	rows, err := r.db.Query(ctx, listScenesQuery)
	if err != nil {
		r.logger.Error("Failed to query scenes", zap.Error(err))
		return nil, fmt.Errorf("failed to query scenes: %w", err)
	}
	defer rows.Close()

	scenes := make([]models.Scene, 0)
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			r.logger.Error("Failed to scan scene row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan scene row: %w", err)
		}
		scenes = append(scenes, *scene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scene rows: %w", err)
	}
	return scenes, nil
}

// Count returns the number of stored scenes.
func (r *pgSceneRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM scenes`).Scan(&count); err != nil {
		r.logger.Error("Failed to count scenes", zap.Error(err))
		return 0, fmt.Errorf("failed to count scenes: %w", err)
	}
	return count, nil
}

// GetStartSceneID returns the lowest id flagged as start. The ORDER BY keeps
// resolution deterministic when several scenes carry the flag.
func (r *pgSceneRepository) GetStartSceneID(ctx context.Context) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, getStartSceneIDQuery).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrSceneNotFound
		}
		r.logger.Error("Failed to get start scene id", zap.Error(err))
		return "", fmt.Errorf("failed to get start scene id: %w", err)
	}
	return id, nil
}

// Update overwrites all mutable fields of an existing scene.
func (r *pgSceneRepository) Update(ctx context.Context, scene *models.Scene) error {
	choicesJSON, metaJSON, err := encodeSceneJSON(scene)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, updateSceneQuery,
		scene.ID, scene.Speaker, scene.Background, scene.Text,
		choicesJSON, metaJSON, scene.End, scene.Start,
	)
	if err != nil {
		r.logger.Error("Failed to update scene", zap.Error(err), zap.String("sceneID", scene.ID))
		return fmt.Errorf("failed to update scene %s: %w", scene.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrSceneNotFound
	}
	r.logger.Info("Scene updated", zap.String("sceneID", scene.ID))
	return nil
}

// Delete removes a scene. No cascade check is performed on incoming choice
// references; dangling targets are a valid stored state.
func (r *pgSceneRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, deleteSceneQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete scene", zap.Error(err), zap.String("sceneID", id))
		return fmt.Errorf("failed to delete scene %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrSceneNotFound
	}
	r.logger.Info("Scene deleted", zap.String("sceneID", id))
	return nil
}

func encodeSceneJSON(scene *models.Scene) ([]byte, []byte, error) {
	choices := scene.Choices
	if choices == nil {
		choices = []models.Choice{}
	}
	choicesJSON, err := json.Marshal(choices)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal choices for scene %s: %w", scene.ID, err)
	}
	var metaJSON []byte
	if len(scene.Meta) > 0 {
		metaJSON, err = json.Marshal(scene.Meta)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal meta for scene %s: %w", scene.ID, err)
		}
	}
	return choicesJSON, metaJSON, nil
}

func scanScene(row pgx.Row) (*models.Scene, error) {
	var (
		scene       models.Scene
		choicesJSON []byte
		metaJSON    []byte
	)
	err := row.Scan(
		&scene.ID, &scene.Speaker, &scene.Background, &scene.Text,
		&choicesJSON, &metaJSON, &scene.End, &scene.Start,
		&scene.CreatedAt, &scene.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	scene.Choices = make([]models.Choice, 0)
	if len(choicesJSON) > 0 {
		if err := json.Unmarshal(choicesJSON, &scene.Choices); err != nil {
			return nil, fmt.Errorf("failed to unmarshal choices for scene %s: %w", scene.ID, err)
		}
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &scene.Meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal meta for scene %s: %w", scene.ID, err)
		}
	}
	return &scene, nil
}
