package handler

import (
	"encoding/json"
	"regexp"

	"self-sim-server/internal/models"
)

// --- Request/Response Structs ---

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type meResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles,omitempty"`
	IsAdmin  bool     `json:"is_admin"`
}

type createSceneRequest struct {
	ID      string          `json:"id" binding:"required"`
	Speaker string          `json:"speaker"`
	Bg      string          `json:"bg"`
	Text    string          `json:"text" binding:"required"`
	Choices []models.Choice `json:"choices"`
	Meta    map[string]any  `json:"meta"`
	End     bool            `json:"end"`
	Start   bool            `json:"start"`
}

type createLogRequest struct {
	Timestamp string          `json:"timestamp"`
	Log       json.RawMessage `json:"log"`
	SceneID   *string         `json:"scene_id"`
}

type logEntryResponse struct {
	ID        int64           `json:"id"`
	Timestamp string          `json:"timestamp"`
	SceneID   *string         `json:"scene_id"`
	Log       json.RawMessage `json:"log"`
}

// --- Validation constants ---

const (
	minUsernameLength = 3
	maxUsernameLength = 30
	minPasswordLength = 8
	maxPasswordLength = 100
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
