package models

import "time"

// Defaults applied when a preference record is created lazily or a stored
// record is missing fields written by an older client.
const (
	DefaultDailySummaryTime = "08:00"
	DefaultQuietHoursStart  = "22:00"
	DefaultQuietHoursEnd    = "07:00"
	DefaultTimezone         = "UTC"
)

// NotificationPreference holds one user's notification settings. Created with
// defaults on first evaluation or first preference read; the timezone is
// auto-detected once on first client contact and never overwritten.
type NotificationPreference struct {
	ID                       string    `json:"id" bson:"id"`
	UserID                   string    `json:"userId" bson:"userId"`
	EnableInAppNotifications bool      `json:"enableInAppNotifications" bson:"enableInAppNotifications"`
	EnableBrowserPush        bool      `json:"enableBrowserPush" bson:"enableBrowserPush"`
	EnableNativePush         bool      `json:"enableNativePush" bson:"enableNativePush"`
	QuietHoursEnabled        bool      `json:"quietHoursEnabled" bson:"quietHoursEnabled"`
	QuietHoursStart          string    `json:"quietHoursStart" bson:"quietHoursStart"` // local HH:MM
	QuietHoursEnd            string    `json:"quietHoursEnd" bson:"quietHoursEnd"`     // local HH:MM
	EnableOverdueSummary     bool      `json:"enableOverdueSummary" bson:"enableOverdueSummary"`
	EnableDailySummary       bool      `json:"enableDailySummary" bson:"enableDailySummary"`
	DailySummaryTime         string    `json:"dailySummaryTime" bson:"dailySummaryTime"` // local HH:MM
	ReminderTimings          []int     `json:"reminderTimings" bson:"reminderTimings"`   // minutes before dueDate
	Timezone                 string    `json:"timezone" bson:"timezone"`                 // IANA name
	TimezoneDetected         bool      `json:"timezoneDetected" bson:"timezoneDetected"` // set once, never re-detected
	CreatedAt                time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt                time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DefaultNotificationPreference returns the record created for a user who has
// never touched their settings.
func DefaultNotificationPreference(userID string) NotificationPreference {
	return NotificationPreference{
		UserID:                   userID,
		EnableInAppNotifications: true,
		EnableBrowserPush:        true,
		EnableNativePush:         true,
		QuietHoursEnabled:        false,
		QuietHoursStart:          DefaultQuietHoursStart,
		QuietHoursEnd:            DefaultQuietHoursEnd,
		EnableOverdueSummary:     true,
		EnableDailySummary:       true,
		DailySummaryTime:         DefaultDailySummaryTime,
		Timezone:                 DefaultTimezone,
	}
}

// ApplyDefaults fills fields an older client may have left empty, so a stored
// record never rejects on read.
func (p *NotificationPreference) ApplyDefaults() {
	if p.QuietHoursStart == "" {
		p.QuietHoursStart = DefaultQuietHoursStart
	}
	if p.QuietHoursEnd == "" {
		p.QuietHoursEnd = DefaultQuietHoursEnd
	}
	if p.DailySummaryTime == "" {
		p.DailySummaryTime = DefaultDailySummaryTime
	}
	if p.Timezone == "" {
		p.Timezone = DefaultTimezone
	}
}
