package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	boardRepo "taskdeck/database/repository/board"
	notificationRepo "taskdeck/database/repository/notification"
	taskRepo "taskdeck/database/repository/task"
	"taskdeck/models"
	"taskdeck/utils"

	"go.uber.org/zap"
)

// SnoozeOffset is how far a snoozed reminder is pushed out.
const SnoozeOffset = 24 * time.Hour

var ErrNotTaskOwner = errors.New("task does not belong to user")

// TaskService covers the user-triggered mutations that share state with the
// notification engine. Both must win any race against a concurrent
// evaluation: the snooze write to reminderAt is last and authoritative.
type TaskService interface {
	Snooze(ctx context.Context, userID, taskID, notificationID string) (*models.Task, error)
	Complete(ctx context.Context, userID, taskID string) (*models.Task, error)
}

// DefaultTaskService is the production implementation.
type DefaultTaskService struct {
	Tasks         taskRepo.TaskRepository
	Notifications notificationRepo.NotificationRepository
	Boards        boardRepo.BoardRepository

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (s *DefaultTaskService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Snooze sets the task's reminderAt to now plus the snooze offset,
// unconditionally overwriting whatever the engine may have set or cleared
// concurrently. When a notification ID is supplied, that notification is
// marked read and stamped with the snooze horizon.
func (s *DefaultTaskService) Snooze(ctx context.Context, userID, taskID, notificationID string) (*models.Task, error) {
	task, err := s.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("snooze: load task %s: %w", taskID, err)
	}
	if task.UserID != userID {
		return nil, ErrNotTaskOwner
	}

	until := s.now().Add(SnoozeOffset)
	// Last write wins: user intent supersedes anything a concurrent
	// evaluation did to reminderAt.
	if err := s.Tasks.SetReminderAt(ctx, taskID, until); err != nil {
		return nil, fmt.Errorf("snooze: set reminderAt on %s: %w", taskID, err)
	}
	task.ReminderAt = &until

	if notificationID != "" {
		if err := s.Notifications.MarkSnoozed(ctx, userID, notificationID, until); err != nil {
			// The reminder is already rescheduled; a stale notification
			// row is not worth failing the request over.
			utils.GetLogger().Warn("snooze: marking notification failed",
				zap.String("notificationId", notificationID), zap.Error(err))
		}
	}
	return task, nil
}

// Complete stamps completedAt and moves the task to its board's terminal
// column. If the task carries an active recurrence rule, the next occurrence
// is cloned from the pre-completion state.
func (s *DefaultTaskService) Complete(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := s.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("complete: load task %s: %w", taskID, err)
	}
	if task.UserID != userID {
		return nil, ErrNotTaskOwner
	}
	if task.Completed() {
		return task, nil
	}

	now := s.now()
	columnID := task.ColumnID
	if s.Boards != nil {
		if terminal, err := s.Boards.GetTerminalColumnID(ctx, task.BoardID); err == nil {
			columnID = terminal
		} else {
			utils.GetLogger().Warn("complete: resolving terminal column failed",
				zap.String("boardId", task.BoardID), zap.Error(err))
		}
	}

	if err := s.Tasks.SetCompleted(ctx, taskID, now, columnID); err != nil {
		return nil, fmt.Errorf("complete: update task %s: %w", taskID, err)
	}

	if task.Recurrence != nil {
		s.spawnNextOccurrence(ctx, *task, now)
	}

	completed := *task
	completed.CompletedAt = &now
	completed.ColumnID = columnID
	return &completed, nil
}

// spawnNextOccurrence clones a recurring task for its next due date. Clone
// failure is logged, not surfaced: the completion itself already stands.
func (s *DefaultTaskService) spawnNextOccurrence(ctx context.Context, task models.Task, now time.Time) {
	from := now
	if task.DueDate != nil {
		from = *task.DueDate
	}
	nextDue, ok := NextOccurrence(*task.Recurrence, from)
	if !ok {
		return
	}

	clone := cloneForNextOccurrence(task, nextDue, now)
	id, err := s.Tasks.Create(ctx, clone)
	if err != nil {
		utils.GetLogger().Warn("complete: cloning recurring task failed",
			zap.String("taskId", task.ID), zap.Error(err))
		return
	}
	utils.GetLogger().Info("spawned next occurrence",
		zap.String("taskId", task.ID),
		zap.String("cloneId", id),
		zap.Time("nextDue", nextDue))
}
