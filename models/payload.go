package models

// PushAction describes one action button the receiving client renders on a
// push notification (e.g. "Snooze", "Mark complete").
type PushAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// PushPayload is the channel-agnostic JSON body delivered to every endpoint.
// Reminder-type payloads additionally carry Actions and NotificationType so
// the client can render action buttons without a round-trip.
type PushPayload struct {
	Title            string       `json:"title"`
	Message          string       `json:"message"`
	NotificationID   string       `json:"notificationId,omitempty"`
	TaskID           string       `json:"taskId,omitempty"`
	Tag              string       `json:"tag,omitempty"`
	URL              string       `json:"url,omitempty"`
	Actions          []PushAction `json:"actions,omitempty"`
	NotificationType string       `json:"notificationType,omitempty"`
}

// EvalCounts summarizes one rule-engine run for a user.
type EvalCounts struct {
	Reminders      int `json:"reminders"`
	Overdue        int `json:"overdue"`
	DailySummaries int `json:"dailySummaries"`
}

// Total is the number of notifications the run created.
func (c EvalCounts) Total() int {
	return c.Reminders + c.Overdue + c.DailySummaries
}

// Add accumulates another user's counts into c during a sweep.
func (c *EvalCounts) Add(o EvalCounts) {
	c.Reminders += o.Reminders
	c.Overdue += o.Overdue
	c.DailySummaries += o.DailySummaries
}

// EvaluatePayload is the asynq task body for one per-user evaluation.
type EvaluatePayload struct {
	UserID string `json:"userId"`
}
