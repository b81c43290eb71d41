package handlers

import (
	"errors"
	"net/http"

	"taskdeck/services/tasks"
	"taskdeck/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TaskHandler exposes the snooze/complete mutation hooks.
type TaskHandler struct {
	Service tasks.TaskService
}

func NewTaskHandler(svc tasks.TaskService) *TaskHandler {
	return &TaskHandler{Service: svc}
}

type snoozePayload struct {
	NotificationID string `json:"notificationId"`
}

// SnoozeTaskHandler pushes the task's reminder out by the fixed snooze
// offset. The write always wins over a concurrent evaluation.
func (h *TaskHandler) SnoozeTaskHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	taskID := c.Param("id")

	var payload snoozePayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid payload", err.Error())
			return
		}
	}

	task, err := h.Service.Snooze(c.Request.Context(), userID, taskID, payload.NotificationID)
	if err != nil {
		if errors.Is(err, tasks.ErrNotTaskOwner) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		utils.GetLogger().Error("snooze failed", zap.String("taskId", taskID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to snooze task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "task": task})
}

// CompleteTaskHandler marks the task done and, for recurring tasks, spawns
// the next occurrence.
func (h *TaskHandler) CompleteTaskHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	taskID := c.Param("id")

	task, err := h.Service.Complete(c.Request.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, tasks.ErrNotTaskOwner) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		utils.GetLogger().Error("complete failed", zap.String("taskId", taskID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "task": task})
}
