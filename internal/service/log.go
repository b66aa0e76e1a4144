package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"self-sim-server/internal/models"
)

// LogService records and retrieves per-user choice logs.
type LogService interface {
	// Record appends a log entry and returns its generated id. Entries are
	// never deduplicated; identical submissions get distinct ids.
	Record(ctx context.Context, userID uuid.UUID, timestamp string, sceneID *string, data json.RawMessage) (int64, error)
	// GetLast returns the most recent entry for a user, or
	// models.ErrLogNotFound when nothing has been recorded yet.
	GetLast(ctx context.Context, userID uuid.UUID) (*models.Log, error)
	// DeleteByUser removes all log entries for a user and returns the count.
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
