package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"self-sim-server/internal/config"
	"self-sim-server/internal/service"
)

// APIHandler wires the HTTP surface to the underlying services.
type APIHandler struct {
	authService  service.AuthService
	storyService service.StoryService
	logService   service.LogService
	cfg          *config.Config
}

func NewAPIHandler(authService service.AuthService, storyService service.StoryService, logService service.LogService, cfg *config.Config) *APIHandler {
	return &APIHandler{
		authService:  authService,
		storyService: storyService,
		logService:   logService,
		cfg:          cfg,
	}
}

func (h *APIHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public story reads.
	router.GET("/story", h.getStory)
	router.GET("/story/start", h.getStoryStart)
	router.GET("/story/:scene_id", h.getScene)

	// Identity lifecycle.
	router.POST("/register", h.register)
	router.POST("/token", h.login)
	router.POST("/token/refresh", h.refresh)
	router.POST("/logout", h.AuthMiddleware(), h.logout)
	router.GET("/me", h.AuthMiddleware(), h.getMe)

	// Per-user choice logs.
	logGroup := router.Group("/log")
	logGroup.Use(h.AuthMiddleware())
	{
		logGroup.POST("", h.createLog)
		logGroup.GET("/last", h.getLastLog)
		logGroup.DELETE("", h.deleteLogs)
	}

	// Scene administration.
	adminGroup := router.Group("/admin/story")
	adminGroup.Use(h.AuthMiddleware(), h.RequireAdminRoleMiddleware())
	{
		adminGroup.GET("", h.listScenes)
		adminGroup.POST("", h.createScene)
		adminGroup.GET("/:scene_id", h.getSceneAdmin)
		adminGroup.PUT("/:scene_id", h.updateScene)
		adminGroup.DELETE("/:scene_id", h.deleteScene)
	}
}
