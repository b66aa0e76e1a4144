package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"self-sim-server/internal/models"
)

func (h *APIHandler) listScenes(c *gin.Context) {
	scenes, err := h.storyService.GetAllScenes(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	// Admins get the same view as players, as a flat list.
	out := make([]models.Scene, 0, len(scenes))
	for _, scene := range scenes {
		out = append(out, scene)
	}
	c.JSON(http.StatusOK, out)
}

func (h *APIHandler) getSceneAdmin(c *gin.Context) {
	scene, err := h.storyService.GetScene(c.Request.Context(), c.Param("scene_id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scene)
}

func (h *APIHandler) createScene(c *gin.Context) {
	var req createSceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	scene, err := models.NewScene(req.ID, req.Speaker, req.Bg, req.Text, req.Choices, req.End, req.Start)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	scene.Meta = req.Meta

	if err := h.storyService.CreateScene(c.Request.Context(), scene); err != nil {
		handleServiceError(c, err)
		return
	}

	sceneWritesTotal.WithLabelValues("create").Inc()
	c.JSON(http.StatusCreated, scene)
}

func (h *APIHandler) updateScene(c *gin.Context) {
	var req models.SceneUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	scene, err := h.storyService.UpdateScene(c.Request.Context(), c.Param("scene_id"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	sceneWritesTotal.WithLabelValues("update").Inc()
	c.JSON(http.StatusOK, scene)
}

func (h *APIHandler) deleteScene(c *gin.Context) {
	if err := h.storyService.DeleteScene(c.Request.Context(), c.Param("scene_id")); err != nil {
		handleServiceError(c, err)
		return
	}

	sceneWritesTotal.WithLabelValues("delete").Inc()
	c.Status(http.StatusNoContent)
}
