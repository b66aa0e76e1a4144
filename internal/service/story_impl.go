package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"self-sim-server/internal/interfaces"
	"self-sim-server/internal/models"
	"self-sim-server/internal/schemas"
)

var _ StoryService = (*storyServiceImpl)(nil)

type storyServiceImpl struct {
	sceneRepo interfaces.SceneRepository
	logger    *zap.Logger
}

// NewStoryService creates a new instance of storyServiceImpl.
func NewStoryService(sceneRepo interfaces.SceneRepository, logger *zap.Logger) StoryService {
	return &storyServiceImpl{
		sceneRepo: sceneRepo,
		logger:    logger.Named("StoryService"),
	}
}

// GetAllScenes returns every scene keyed by id.
func (s *storyServiceImpl) GetAllScenes(ctx context.Context) (map[string]models.Scene, error) {
	scenes, err := s.sceneRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Scene, len(scenes))
	for _, scene := range scenes {
		byID[scene.ID] = scene
	}
	return byID, nil
}

// GetScene returns a single scene.
func (s *storyServiceImpl) GetScene(ctx context.Context, id string) (*models.Scene, error) {
	return s.sceneRepo.GetByID(ctx, id)
}

// GetStartSceneID resolves the story entry point. A scene flagged as start
// wins; ties go to the lowest id. Without any flagged scene the lowest scene
// id is the start. The result is stable across restarts for the same content.
func (s *storyServiceImpl) GetStartSceneID(ctx context.Context) (string, error) {
	id, err := s.sceneRepo.GetStartSceneID(ctx)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, models.ErrSceneNotFound) {
		return "", err
	}

	// No scene carries the start flag; fall back to the lowest id.
	scenes, err := s.sceneRepo.ListAll(ctx)
	if err != nil {
		return "", err
	}
	id, ok := resolveStartID(scenes)
	if !ok {
		return "", models.ErrNoScenes
	}
	return id, nil
}

// resolveStartID applies the start resolution rules to an in-memory scene
// list: lowest flagged id first, then lowest id overall.
func resolveStartID(scenes []models.Scene) (string, bool) {
	if len(scenes) == 0 {
		return "", false
	}
	ids := make([]string, 0, len(scenes))
	var flagged []string
	for _, scene := range scenes {
		ids = append(ids, scene.ID)
		if scene.Start {
			flagged = append(flagged, scene.ID)
		}
	}
	if len(flagged) > 0 {
		sort.Strings(flagged)
		return flagged[0], true
	}
	sort.Strings(ids)
	return ids[0], true
}

// SeedScenes populates an empty store from markdown documents under dir.
// Seeding is all-or-nothing at the parse level: one malformed document aborts
// the whole run so a half-loaded story never goes live.
func (s *storyServiceImpl) SeedScenes(ctx context.Context, dir string) (int, error) {
	count, err := s.sceneRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check scene count before seeding: %w", err)
	}
	if count > 0 {
		s.logger.Info("Scene store already populated, skipping seed", zap.Int64("sceneCount", count))
		return 0, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed directory %s: %w", dir, err)
	}

	seeded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return seeded, fmt.Errorf("failed to read seed document %s: %w", path, err)
		}
		scene, err := schemas.ParseSceneMarkdown(string(raw))
		if err != nil {
			return seeded, fmt.Errorf("failed to parse seed document %s: %w", path, err)
		}
		if err := s.sceneRepo.Create(ctx, scene); err != nil {
			return seeded, fmt.Errorf("failed to store seed scene %s: %w", scene.ID, err)
		}
		s.logger.Debug("Seeded scene", zap.String("sceneID", scene.ID), zap.String("file", entry.Name()))
		seeded++
	}

	s.logger.Info("Scene store seeded", zap.Int("sceneCount", seeded), zap.String("dir", dir))
	return seeded, nil
}

// CreateScene stores a new scene authored by an administrator.
func (s *storyServiceImpl) CreateScene(ctx context.Context, scene *models.Scene) error {
	return s.sceneRepo.Create(ctx, scene)
}

// UpdateScene applies a partial update to an existing scene. The merged result
// passes through the same validation as a freshly created scene.
func (s *storyServiceImpl) UpdateScene(ctx context.Context, id string, upd *models.SceneUpdate) (*models.Scene, error) {
	existing, err := s.sceneRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Speaker != nil {
		existing.Speaker = *upd.Speaker
	}
	if upd.Background != nil {
		existing.Background = *upd.Background
	}
	if upd.Text != nil {
		existing.Text = *upd.Text
	}
	if upd.Choices != nil {
		existing.Choices = *upd.Choices
	}
	if upd.Meta != nil {
		existing.Meta = *upd.Meta
	}
	if upd.End != nil {
		existing.End = *upd.End
	}
	if upd.Start != nil {
		existing.Start = *upd.Start
	}

	merged, err := models.NewScene(existing.ID, existing.Speaker, existing.Background, existing.Text, existing.Choices, existing.End, existing.Start)
	if err != nil {
		return nil, err
	}
	merged.Meta = existing.Meta

	if err := s.sceneRepo.Update(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// DeleteScene removes a scene unconditionally. Incoming references from other
// scenes and recorded logs are allowed to dangle.
func (s *storyServiceImpl) DeleteScene(ctx context.Context, id string) error {
	return s.sceneRepo.Delete(ctx, id)
}
