package handlers

import (
	"net/http"

	subscriptionRepo "taskdeck/database/repository/subscription"
	"taskdeck/models"
	"taskdeck/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PushHandler manages the delivery endpoint registry.
type PushHandler struct {
	Subs subscriptionRepo.SubscriptionRepository
}

func NewPushHandler(repo subscriptionRepo.SubscriptionRepository) *PushHandler {
	return &PushHandler{Subs: repo}
}

type subscribePayload struct {
	Kind        string              `json:"kind" binding:"required"`
	Endpoint    string              `json:"endpoint"`
	Keys        *models.WebPushKeys `json:"keys"`
	DeviceToken string              `json:"deviceToken"`
	Platform    string              `json:"platform"`
}

// SubscribeHandler registers a delivery endpoint for the session user.
func (h *PushHandler) SubscribeHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var payload subscribePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	sub := models.PushSubscription{
		UserID: userID,
		Kind:   payload.Kind,
	}
	switch payload.Kind {
	case models.SubscriptionKindWeb:
		if payload.Endpoint == "" || payload.Keys == nil || payload.Keys.P256dh == "" || payload.Keys.Auth == "" {
			utils.JSONError(c, http.StatusBadRequest, "invalid payload", "web subscriptions require endpoint and keys")
			return
		}
		sub.Endpoint = payload.Endpoint
		sub.Keys = payload.Keys
	case models.SubscriptionKindNative:
		if payload.DeviceToken == "" {
			utils.JSONError(c, http.StatusBadRequest, "invalid payload", "native subscriptions require a device token")
			return
		}
		sub.DeviceToken = payload.DeviceToken
		sub.Platform = payload.Platform
	default:
		utils.JSONError(c, http.StatusBadRequest, "invalid payload", "kind must be web or native")
		return
	}

	id, err := h.Subs.Create(c.Request.Context(), sub)
	if err != nil {
		utils.GetLogger().Error("registering subscription failed", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register subscription"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UnsubscribeHandler removes one of the session user's endpoints.
func (h *PushHandler) UnsubscribeHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := c.Param("id")
	if err := h.Subs.DeleteByID(c.Request.Context(), userID, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
