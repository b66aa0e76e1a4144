package interfaces

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"self-sim-server/internal/models"
)

// DBTX abstracts a pgx pool, connection or transaction so repositories can run
// inside whichever unit of work the caller provides.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SceneRepository persists Scene records.
type SceneRepository interface {
	Create(ctx context.Context, scene *models.Scene) error
	GetByID(ctx context.Context, id string) (*models.Scene, error)
	ListAll(ctx context.Context) ([]models.Scene, error)
	Count(ctx context.Context) (int64, error)
	// GetStartSceneID returns the lowest id among scenes flagged as start,
	// or models.ErrSceneNotFound when no scene carries the flag.
	GetStartSceneID(ctx context.Context) (string, error)
	Update(ctx context.Context, scene *models.Scene) error
	Delete(ctx context.Context, id string) error
}

// LogRepository persists immutable choice-log entries.
type LogRepository interface {
	Create(ctx context.Context, entry *models.Log) error
	GetLastByUser(ctx context.Context, userID uuid.UUID) (*models.Log, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// UserRepository persists registered players.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserCount(ctx context.Context) (int64, error)
}

// TokenRepository tracks issued token UUIDs so tokens stay revocable.
type TokenRepository interface {
	SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error
	GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error)
	GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error)
	DeleteTokens(ctx context.Context, accessUUID, refreshUUID string) (int64, error)
}
