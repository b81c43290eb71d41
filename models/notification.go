package models

import "time"

// Notification types created by the rule engine.
const (
	NotificationTypeReminder     = "reminder"
	NotificationTypeOverdue      = "overdue"
	NotificationTypeDailySummary = "daily-summary"
)

// Metadata key stamping the local calendar date a daily summary covers.
const MetaSummaryDate = "summaryDate"

type Notification struct {
	ID           string            `json:"id" bson:"id"`
	UserID       string            `json:"userId" bson:"userId"`
	TaskID       string            `json:"taskId,omitempty" bson:"taskId,omitempty"`
	Type         string            `json:"type" bson:"type"`
	Title        string            `json:"title" bson:"title"`
	Message      string            `json:"message" bson:"message"`
	Read         bool              `json:"read" bson:"read"`
	Dismissed    bool              `json:"dismissed" bson:"dismissed"`
	SnoozedUntil *time.Time        `json:"snoozedUntil,omitempty" bson:"snoozedUntil,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt" bson:"updatedAt"`
}
