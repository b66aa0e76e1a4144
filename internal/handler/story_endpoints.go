package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *APIHandler) getStory(c *gin.Context) {
	scenes, err := h.storyService.GetAllScenes(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scenes)
}

func (h *APIHandler) getStoryStart(c *gin.Context) {
	startID, err := h.storyService.GetStartSceneID(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"startId": startID})
}

func (h *APIHandler) getScene(c *gin.Context) {
	scene, err := h.storyService.GetScene(c.Request.Context(), c.Param("scene_id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scene)
}
