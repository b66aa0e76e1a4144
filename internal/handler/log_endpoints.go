package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"self-sim-server/internal/models"
)

func (h *APIHandler) createLog(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}

	var req createLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	logID, err := h.logService.Record(c.Request.Context(), userID, req.Timestamp, req.SceneID, req.Log)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	logEntriesTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "log_id": logID})
}

func (h *APIHandler) getLastLog(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}

	entry, err := h.logService.GetLast(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, logEntryResponse{
		ID:        entry.ID,
		Timestamp: entry.Timestamp,
		SceneID:   entry.SceneID,
		Log:       entry.Data,
	})
}

func (h *APIHandler) deleteLogs(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return
	}

	deleted, err := h.logService.DeleteByUser(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "deleted": deleted})
}
