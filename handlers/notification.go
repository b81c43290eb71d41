package handlers

import (
	"errors"
	"net/http"

	notificationRepo "taskdeck/database/repository/notification"
	"taskdeck/services/notification"
	"taskdeck/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NotificationHandler exposes the evaluation trigger and the in-app feed.
type NotificationHandler struct {
	Evaluator     notification.Evaluator
	Notifications notificationRepo.NotificationRepository
}

func NewNotificationHandler(evaluator notification.Evaluator, repo notificationRepo.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{Evaluator: evaluator, Notifications: repo}
}

// RunEvaluationHandler runs one evaluation cycle for the session user and
// returns the per-type creation counts.
func (h *NotificationHandler) RunEvaluationHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	counts, err := h.Evaluator.Evaluate(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, notification.ErrEvaluationInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": "evaluation already running"})
			return
		}
		utils.GetLogger().Error("evaluation failed", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation failed"})
		return
	}
	c.JSON(http.StatusOK, counts)
}

// RunSweepHandler runs an evaluation cycle over every user with open tasks.
// Internal trigger surface, typically hit by the scheduler or an operator.
func (h *NotificationHandler) RunSweepHandler(c *gin.Context) {
	counts, err := h.Evaluator.EvaluateAll(c.Request.Context())
	if err != nil {
		utils.GetLogger().Error("sweep failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notificationsCreated": counts.Total()})
}

// ListNotificationsHandler returns the session user's notification feed,
// newest first. ?includeDismissed=true includes dismissed records.
func (h *NotificationHandler) ListNotificationsHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	includeDismissed := c.Query("includeDismissed") == "true"
	notifs, err := h.Notifications.ListByUser(c.Request.Context(), userID, includeDismissed)
	if err != nil {
		utils.GetLogger().Error("listing notifications failed", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifs})
}

func (h *NotificationHandler) MarkReadHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := c.Param("id")
	if err := h.Notifications.MarkRead(c.Request.Context(), userID, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *NotificationHandler) DismissHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := c.Param("id")
	if err := h.Notifications.Dismiss(c.Request.Context(), userID, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
