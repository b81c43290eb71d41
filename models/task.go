package models

import "time"

// RecurrenceRule describes how a completed task respawns.
type RecurrenceRule struct {
	Frequency string `json:"frequency" bson:"frequency"` // daily | weekly | monthly
	Interval  int    `json:"interval" bson:"interval"`   // every N units, min 1
	Active    bool   `json:"active" bson:"active"`
}

// Subtask is a checklist item nested inside a task.
type Subtask struct {
	ID    string `json:"id" bson:"id"`
	Title string `json:"title" bson:"title"`
	Done  bool   `json:"done" bson:"done"`
}

// StatusEntry records a column move in the task's history.
type StatusEntry struct {
	ColumnID string    `json:"columnId" bson:"columnId"`
	MovedAt  time.Time `json:"movedAt" bson:"movedAt"`
}

type Task struct {
	ID            string          `json:"id" bson:"id"`
	UserID        string          `json:"userId" bson:"userId"`
	BoardID       string          `json:"boardId" bson:"boardId"`
	ColumnID      string          `json:"columnId" bson:"columnId"`
	Title         string          `json:"title" bson:"title"`
	Description   string          `json:"description,omitempty" bson:"description,omitempty"`
	DueDate       *time.Time      `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	ReminderAt    *time.Time      `json:"reminderAt,omitempty" bson:"reminderAt,omitempty"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	Recurrence    *RecurrenceRule `json:"recurrence,omitempty" bson:"recurrence,omitempty"`
	Subtasks      []Subtask       `json:"subtasks,omitempty" bson:"subtasks,omitempty"`
	StatusHistory []StatusEntry   `json:"statusHistory,omitempty" bson:"statusHistory,omitempty"`
	CreatedAt     time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// Completed reports whether the task is done. A completed task must never
// generate reminder or overdue notifications.
func (t *Task) Completed() bool {
	return t.CompletedAt != nil
}
