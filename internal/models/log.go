package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Log is one immutable record of a player's choice events. Data is owned by
// the client and stored verbatim; Timestamp is whatever the client sent.
type Log struct {
	ID        int64           `db:"id" json:"id"`
	Timestamp string          `db:"timestamp" json:"timestamp"`
	Data      json.RawMessage `db:"data" json:"data"`
	UserID    uuid.UUID       `db:"user_id" json:"userId"`
	SceneID   *string         `db:"scene_id" json:"sceneId,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}
