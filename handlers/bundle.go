package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle aggregates the endpoint handlers wired in main and consumed
// by route registration.
type HandlerBundle struct {
	// Notification engine surface.
	RunEvaluationHandler gin.HandlerFunc
	RunSweepHandler      gin.HandlerFunc

	// In-app notification feed.
	ListNotificationsHandler   gin.HandlerFunc
	MarkNotificationRead       gin.HandlerFunc
	DismissNotificationHandler gin.HandlerFunc

	// Preferences.
	GetPreferencesHandler    gin.HandlerFunc
	UpdatePreferencesHandler gin.HandlerFunc

	// Push subscription registry.
	SubscribeHandler   gin.HandlerFunc
	UnsubscribeHandler gin.HandlerFunc

	// Mutation hooks.
	SnoozeTaskHandler   gin.HandlerFunc
	CompleteTaskHandler gin.HandlerFunc
}
