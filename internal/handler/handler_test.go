package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"self-sim-server/internal/config"
	"self-sim-server/internal/models"
	"self-sim-server/internal/service"
)

// fakeAuthService resolves bearer tokens from a fixed map.
type fakeAuthService struct {
	claimsByToken map[string]*models.Claims
	users         map[uuid.UUID]*models.User
}

func (f *fakeAuthService) Register(_ context.Context, username, _ string) (*models.User, error) {
	return &models.User{ID: uuid.New(), Username: username, Roles: []string{models.RoleUser}}, nil
}

func (f *fakeAuthService) Login(context.Context, string, string) (*models.TokenDetails, error) {
	return &models.TokenDetails{AccessToken: "at", RefreshToken: "rt", TokenType: "bearer"}, nil
}

func (f *fakeAuthService) Logout(context.Context, string, string) error { return nil }

func (f *fakeAuthService) Refresh(context.Context, string) (*models.TokenDetails, error) {
	return nil, models.ErrTokenInvalid
}

func (f *fakeAuthService) VerifyAccessToken(_ context.Context, token string) (*models.Claims, error) {
	claims, ok := f.claimsByToken[token]
	if !ok {
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}

func (f *fakeAuthService) GetUser(_ context.Context, userID uuid.UUID) (*models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}

// fakeStoryService is an in-memory StoryService.
type fakeStoryService struct {
	scenes  map[string]*models.Scene
	startID string
}

func (f *fakeStoryService) GetAllScenes(context.Context) (map[string]models.Scene, error) {
	out := make(map[string]models.Scene, len(f.scenes))
	for id, scene := range f.scenes {
		out[id] = *scene
	}
	return out, nil
}

func (f *fakeStoryService) GetScene(_ context.Context, id string) (*models.Scene, error) {
	scene, ok := f.scenes[id]
	if !ok {
		return nil, models.ErrSceneNotFound
	}
	return scene, nil
}

func (f *fakeStoryService) GetStartSceneID(context.Context) (string, error) {
	if f.startID == "" {
		return "", models.ErrNoScenes
	}
	return f.startID, nil
}

func (f *fakeStoryService) SeedScenes(context.Context, string) (int, error) { return 0, nil }

func (f *fakeStoryService) CreateScene(_ context.Context, scene *models.Scene) error {
	if _, ok := f.scenes[scene.ID]; ok {
		return models.ErrSceneAlreadyExists
	}
	f.scenes[scene.ID] = scene
	return nil
}

func (f *fakeStoryService) UpdateScene(_ context.Context, id string, upd *models.SceneUpdate) (*models.Scene, error) {
	scene, ok := f.scenes[id]
	if !ok {
		return nil, models.ErrSceneNotFound
	}
	if upd.Text != nil {
		scene.Text = *upd.Text
	}
	if upd.End != nil {
		scene.End = *upd.End
	}
	return scene, nil
}

func (f *fakeStoryService) DeleteScene(_ context.Context, id string) error {
	if _, ok := f.scenes[id]; !ok {
		return models.ErrSceneNotFound
	}
	delete(f.scenes, id)
	return nil
}

// fakeLogService records entries in memory.
type fakeLogService struct {
	nextID int64
	last   map[uuid.UUID]*models.Log
}

func (f *fakeLogService) Record(_ context.Context, userID uuid.UUID, timestamp string, sceneID *string, data json.RawMessage) (int64, error) {
	f.nextID++
	if f.last == nil {
		f.last = make(map[uuid.UUID]*models.Log)
	}
	f.last[userID] = &models.Log{ID: f.nextID, Timestamp: timestamp, SceneID: sceneID, Data: data, UserID: userID}
	return f.nextID, nil
}

func (f *fakeLogService) GetLast(_ context.Context, userID uuid.UUID) (*models.Log, error) {
	entry, ok := f.last[userID]
	if !ok {
		return nil, models.ErrLogNotFound
	}
	return entry, nil
}

func (f *fakeLogService) DeleteByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	if _, ok := f.last[userID]; !ok {
		return 0, nil
	}
	delete(f.last, userID)
	return 1, nil
}

var (
	_ service.AuthService  = (*fakeAuthService)(nil)
	_ service.StoryService = (*fakeStoryService)(nil)
	_ service.LogService   = (*fakeLogService)(nil)
)

type testEnv struct {
	router *gin.Engine
	story  *fakeStoryService
	logs   *fakeLogService

	playerID uuid.UUID
	adminID  uuid.UUID
}

const (
	playerToken = "player-token"
	adminToken  = "admin-token"
)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	playerID := uuid.New()
	adminID := uuid.New()

	auth := &fakeAuthService{
		claimsByToken: map[string]*models.Claims{
			playerToken: {UserID: playerID, Roles: []string{models.RoleUser}},
			adminToken:  {UserID: adminID, Roles: []string{models.RoleUser, models.RoleAdmin}},
		},
		users: map[uuid.UUID]*models.User{
			playerID: {ID: playerID, Username: "player", Roles: []string{models.RoleUser}},
			adminID:  {ID: adminID, Username: "admin", Roles: []string{models.RoleUser, models.RoleAdmin}},
		},
	}

	scene1, err := models.NewScene("scene1", "나", "bedroom.png", "눈을 뜬다.", []models.Choice{{Label: "일어난다", Target: "scene2"}}, false, true)
	require.NoError(t, err)
	story := &fakeStoryService{scenes: map[string]*models.Scene{"scene1": scene1}, startID: "scene1"}
	logs := &fakeLogService{}

	h := NewAPIHandler(auth, story, logs, &config.Config{})
	router := gin.New()
	h.RegisterRoutes(router)

	return &testEnv{router: router, story: story, logs: logs, playerID: playerID, adminID: adminID}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestGetStoryStart(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/story/start", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "scene1", resp["startId"])
}

func TestGetStoryStartEmptyStore(t *testing.T) {
	env := newTestEnv(t)
	env.story.startID = ""

	w := env.do(http.MethodGet, "/story/start", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSceneNotFound(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/story/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSceneWireFormat(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/story/scene1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "scene1", resp["id"])
	choices, ok := resp["choices"].([]any)
	require.True(t, ok)
	require.Len(t, choices, 1)
	choice := choices[0].(map[string]any)
	assert.Equal(t, "일어난다", choice["text"])
	assert.Equal(t, "scene2", choice["next"])
}

func TestMeRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/me", "bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeReportsAdminFlag(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/me", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp meResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.IsAdmin)
	assert.Equal(t, "admin", resp.Username)
}

func TestAdminCreateSceneRequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)
	body := createSceneRequest{ID: "scene9", Text: "new text"}

	w := env.do(http.MethodPost, "/admin/story", playerToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/admin/story", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminCreateScene(t *testing.T) {
	env := newTestEnv(t)
	body := createSceneRequest{ID: "scene9", Speaker: "나", Text: "new text", Choices: []models.Choice{{Label: "go", Target: "scene1"}}}

	w := env.do(http.MethodPost, "/admin/story", adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, env.story.scenes, "scene9")

	// Re-insertion with the same id is a conflict, not an overwrite.
	w = env.do(http.MethodPost, "/admin/story", adminToken, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminUpdateScene(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPut, "/admin/story/scene1", adminToken, map[string]any{"text": "changed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "changed", env.story.scenes["scene1"].Text)

	w = env.do(http.MethodPut, "/admin/story/ghost", adminToken, map[string]any{"text": "changed"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminDeleteScene(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodDelete, "/admin/story/scene1", adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotContains(t, env.story.scenes, "scene1")

	w = env.do(http.MethodDelete, "/admin/story/scene1", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateLog(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"timestamp": "2026-08-30T10:00:00Z",
		"log":       []map[string]any{{"scene": "scene1", "choice": 0}},
		"scene_id":  "scene1",
	}
	w := env.do(http.MethodPost, "/log", playerToken, body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string `json:"status"`
		LogID  int64  `json:"log_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(1), resp.LogID)
}

func TestCreateLogRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodPost, "/log", "", map[string]any{"log": []any{}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetLastLog(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/log/last", playerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body := map[string]any{"timestamp": "t1", "log": []any{}, "scene_id": "scene1"}
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/log", playerToken, body).Code)

	w = env.do(http.MethodGet, "/log/last", playerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp logEntryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.SceneID)
	assert.Equal(t, "scene1", *resp.SceneID)
}

func TestDeleteLogs(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{"timestamp": "t1", "log": []any{}}
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/log", playerToken, body).Code)

	w := env.do(http.MethodDelete, "/log", playerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/log/last", playerToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]registerRequest{
		"short username":   {Username: "ab", Password: "password1"},
		"bad characters":   {Username: "bad name!", Password: "password1"},
		"short password":   {Username: "player", Password: "p1"},
		"digitless":        {Username: "player", Password: "passwordonly"},
		"letterless":       {Username: "player", Password: "12345678"},
		"missing password": {Username: "player"},
		"missing username": {Password: "password1"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/register", "", req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	w := env.do(http.MethodPost, "/register", "", registerRequest{Username: "player", Password: "password1"})
	assert.Equal(t, http.StatusCreated, w.Code)
}
