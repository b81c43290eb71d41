package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	preferenceRepo "taskdeck/database/repository/preference"
	"taskdeck/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PreferenceHandler exposes the notification settings surface.
type PreferenceHandler struct {
	Prefs preferenceRepo.PreferenceRepository
}

func NewPreferenceHandler(repo preferenceRepo.PreferenceRepository) *PreferenceHandler {
	return &PreferenceHandler{Prefs: repo}
}

// GetPreferencesHandler returns the user's settings, creating the default
// record on first read. An X-Timezone header on this first contact records
// the client-detected timezone once; later values never overwrite it.
func (h *PreferenceHandler) GetPreferencesHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	if tz := c.GetHeader("X-Timezone"); tz != "" {
		if err := h.Prefs.SetDetectedTimezone(ctx, userID, tz); err != nil {
			utils.GetLogger().Debug("ignoring invalid detected timezone",
				zap.String("userId", userID), zap.String("tz", tz), zap.Error(err))
		}
	}

	pref, err := h.Prefs.GetOrCreate(ctx, userID)
	if err != nil {
		utils.GetLogger().Error("loading preferences failed", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load preferences"})
		return
	}
	c.JSON(http.StatusOK, pref)
}

// UpdatePreferencesHandler merges the request body over the stored record:
// unknown fields are ignored and missing fields keep their current values,
// so older clients never have their payloads rejected.
func (h *PreferenceHandler) UpdatePreferencesHandler(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	pref, err := h.Prefs.GetOrCreate(ctx, userID)
	if err != nil {
		utils.GetLogger().Error("loading preferences failed", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load preferences"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	// Unmarshal over the existing record: only supplied fields change.
	updated := *pref
	if err := json.Unmarshal(body, &updated); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	updated.ID = pref.ID
	updated.UserID = userID
	updated.CreatedAt = pref.CreatedAt

	saved, err := h.Prefs.Update(ctx, updated)
	if err != nil {
		utils.GetLogger().Error("updating preferences failed", zap.String("userId", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update preferences"})
		return
	}
	c.JSON(http.StatusOK, saved)
}
