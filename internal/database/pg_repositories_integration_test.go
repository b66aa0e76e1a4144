package database_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"self-sim-server/internal/database"
	"self-sim-server/internal/models"
)

func TestPgRepositories(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	logger := zap.NewNop()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(t, err, "Failed to start postgres container")
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.ApplyMigrations(connStr, logger))

	sceneRepo := database.NewPgSceneRepository(pool, logger)
	logRepo := database.NewPgLogRepository(pool, logger)
	userRepo := database.NewPgUserRepository(pool, logger)

	t.Run("scene lifecycle", func(t *testing.T) {
		scene, err := models.NewScene("scene1", "나", "bedroom.png", "눈을 뜬다.",
			[]models.Choice{{Label: "일어난다", Target: "scene2"}}, false, true)
		require.NoError(t, err)
		scene.Meta = map[string]any{"music": "ambient.ogg"}

		require.NoError(t, sceneRepo.Create(ctx, scene))
		assert.ErrorIs(t, sceneRepo.Create(ctx, scene), models.ErrSceneAlreadyExists)

		got, err := sceneRepo.GetByID(ctx, "scene1")
		require.NoError(t, err)
		assert.Equal(t, scene.Choices, got.Choices)
		assert.Equal(t, "ambient.ogg", got.Meta["music"])
		assert.True(t, got.Start)

		startID, err := sceneRepo.GetStartSceneID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "scene1", startID)

		got.Text = "다시 쓴 텍스트"
		require.NoError(t, sceneRepo.Update(ctx, got))
		updated, err := sceneRepo.GetByID(ctx, "scene1")
		require.NoError(t, err)
		assert.Equal(t, "다시 쓴 텍스트", updated.Text)

		count, err := sceneRepo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		require.NoError(t, sceneRepo.Delete(ctx, "scene1"))
		assert.ErrorIs(t, sceneRepo.Delete(ctx, "scene1"), models.ErrSceneNotFound)
		_, err = sceneRepo.GetByID(ctx, "scene1")
		assert.ErrorIs(t, err, models.ErrSceneNotFound)
	})

	t.Run("user uniqueness and count", func(t *testing.T) {
		user := &models.User{Username: "player", PasswordHash: "hash", Roles: []string{models.RoleUser}}
		require.NoError(t, userRepo.CreateUser(ctx, user))
		require.NotEqual(t, uuid.Nil, user.ID)

		dup := &models.User{Username: "player", PasswordHash: "otherhash", Roles: []string{models.RoleUser}}
		assert.ErrorIs(t, userRepo.CreateUser(ctx, dup), models.ErrUserAlreadyExists)

		got, err := userRepo.GetUserByUsername(ctx, "player")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		count, err := userRepo.GetUserCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("log append and last lookup", func(t *testing.T) {
		user := &models.User{Username: "logger", PasswordHash: "hash", Roles: []string{models.RoleUser}}
		require.NoError(t, userRepo.CreateUser(ctx, user))

		sceneID := "scene1"
		first := &models.Log{Timestamp: "t1", Data: json.RawMessage(`[{"choice":0}]`), UserID: user.ID, SceneID: &sceneID}
		second := &models.Log{Timestamp: "t2", Data: json.RawMessage(`[{"choice":0}]`), UserID: user.ID, SceneID: &sceneID}
		require.NoError(t, logRepo.Create(ctx, first))
		require.NoError(t, logRepo.Create(ctx, second))
		assert.NotEqual(t, first.ID, second.ID)

		last, err := logRepo.GetLastByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, last.ID)
		assert.Equal(t, "t2", last.Timestamp)

		deleted, err := logRepo.DeleteByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		_, err = logRepo.GetLastByUser(ctx, user.ID)
		assert.ErrorIs(t, err, models.ErrLogNotFound)
	})
}
