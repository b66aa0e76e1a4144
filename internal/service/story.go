package service

import (
	"context"

	"self-sim-server/internal/models"
)

// StoryService exposes the story graph to players and administrators.
type StoryService interface {
	// GetAllScenes returns every scene keyed by id.
	GetAllScenes(ctx context.Context) (map[string]models.Scene, error)
	// GetScene returns a single scene or models.ErrSceneNotFound.
	GetScene(ctx context.Context, id string) (*models.Scene, error)
	// GetStartSceneID resolves the entry point of the story graph. With no
	// scenes stored it returns models.ErrNoScenes.
	GetStartSceneID(ctx context.Context) (string, error)
	// SeedScenes loads markdown scene documents from dir into an empty store.
	// A non-empty store is left untouched. Returns the number of scenes
	// inserted; any unparseable document fails the whole seed.
	SeedScenes(ctx context.Context, dir string) (int, error)

	// Admin operations.
	CreateScene(ctx context.Context, scene *models.Scene) error
	UpdateScene(ctx context.Context, id string, upd *models.SceneUpdate) (*models.Scene, error)
	DeleteScene(ctx context.Context, id string) error
}
