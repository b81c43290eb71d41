package tasks

import (
	"time"

	"taskdeck/models"
)

// NextOccurrence computes the due date of the occurrence following `from`
// for an active recurrence rule. The second return value is false when the
// rule is inactive or its frequency is unknown.
func NextOccurrence(rule models.RecurrenceRule, from time.Time) (time.Time, bool) {
	if !rule.Active {
		return time.Time{}, false
	}
	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	switch rule.Frequency {
	case "daily":
		return from.AddDate(0, 0, interval), true
	case "weekly":
		return from.AddDate(0, 0, 7*interval), true
	case "monthly":
		return from.AddDate(0, interval, 0), true
	default:
		return time.Time{}, false
	}
}

// cloneForNextOccurrence builds the respawned task for a completed recurring
// task: subtask completion flags reset, fresh status history, no completion
// timestamp, no pending one-shot reminder.
func cloneForNextOccurrence(task models.Task, nextDue, now time.Time) models.Task {
	subtasks := make([]models.Subtask, len(task.Subtasks))
	for i, st := range task.Subtasks {
		st.Done = false
		subtasks[i] = st
	}

	// The clone lands in the column the task occupied before completion,
	// so the caller must snapshot the task before moving it.
	columnID := task.ColumnID

	return models.Task{
		UserID:      task.UserID,
		BoardID:     task.BoardID,
		ColumnID:    columnID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     &nextDue,
		Recurrence:  task.Recurrence,
		Subtasks:    subtasks,
		StatusHistory: []models.StatusEntry{
			{ColumnID: columnID, MovedAt: now},
		},
	}
}
