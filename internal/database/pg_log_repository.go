package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"self-sim-server/internal/interfaces"
	"self-sim-server/internal/models"
)

var _ interfaces.LogRepository = (*pgLogRepository)(nil)

type pgLogRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgLogRepository creates a new PostgreSQL-backed LogRepository.
func NewPgLogRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.LogRepository {
	return &pgLogRepository{
		db:     db,
		logger: logger.Named("PgLogRepo"),
	}
}

const createLogQuery = `
INSERT INTO logs (timestamp, data, user_id, scene_id)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`

const getLastLogByUserQuery = `
SELECT id, timestamp, data, user_id, scene_id, created_at
FROM logs
WHERE user_id = $1
ORDER BY id DESC
LIMIT 1`

const deleteLogsByUserQuery = `DELETE FROM logs WHERE user_id = $1`

// Create appends a log entry and fills in its generated id. Entries are
// append-only; identical submissions always produce distinct rows.
func (r *pgLogRepository) Create(ctx context.Context, entry *models.Log) error {
	err := r.db.QueryRow(ctx, createLogQuery,
		entry.Timestamp, entry.Data, entry.UserID, entry.SceneID,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create log entry", zap.Error(err), zap.String("userID", entry.UserID.String()))
		return fmt.Errorf("failed to create log entry: %w", err)
	}
	r.logger.Debug("Log entry created", zap.Int64("logID", entry.ID), zap.String("userID", entry.UserID.String()))
	return nil
}

// GetLastByUser returns the most recently recorded entry for a user.
func (r *pgLogRepository) GetLastByUser(ctx context.Context, userID uuid.UUID) (*models.Log, error) {
	var entry models.Log
	err := pgxscan.Get(ctx, r.db, &entry, getLastLogByUserQuery, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrLogNotFound
		}
		r.logger.Error("Failed to get last log entry", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to get last log entry: %w", err)
	}
	return &entry, nil
}

// DeleteByUser removes every entry belonging to a user and reports the count.
func (r *pgLogRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteLogsByUserQuery, userID)
	if err != nil {
		r.logger.Error("Failed to delete log entries", zap.Error(err), zap.String("userID", userID.String()))
		return 0, fmt.Errorf("failed to delete log entries: %w", err)
	}
	deleted := tag.RowsAffected()
	r.logger.Info("Log entries deleted", zap.Int64("count", deleted), zap.String("userID", userID.String()))
	return deleted, nil
}
