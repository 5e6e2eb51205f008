package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StartScheduler starts the scheduled sync and reconcile jobs
func (h *Handlers) StartScheduler(c *gin.Context) {
	if err := h.scheduler.Start(); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "scheduler_error",
			Message: "Failed to start scheduler",
			Code:    http.StatusInternalServerError,
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scheduler started successfully",
		"status":  "running",
	})
}

// StopScheduler stops the scheduled jobs
func (h *Handlers) StopScheduler(c *gin.Context) {
	if err := h.scheduler.Stop(); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "scheduler_error",
			Message: "Failed to stop scheduler",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scheduler stopped successfully",
		"status":  "stopped",
	})
}

// RunSyncOnce runs the scheduled sync cycle for every enabled credential
func (h *Handlers) RunSyncOnce(c *gin.Context) {
	result, err := h.scheduler.RunSyncOnce(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RunReconcileOnce reconciles every user that owns prospects
func (h *Handlers) RunReconcileOnce(c *gin.Context) {
	result, err := h.scheduler.RunReconcileOnce(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSchedulerStatus returns the current scheduler status
func (h *Handlers) GetSchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.Status())
}
