package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	notificationRepo "taskdeck/database/repository/notification"
	preferenceRepo "taskdeck/database/repository/preference"
	taskRepo "taskdeck/database/repository/task"
	"taskdeck/models"
	"taskdeck/utils"

	"go.uber.org/zap"
)

// Evaluator decides which notifications are due for a user and creates them
// exactly once per logical trigger.
type Evaluator interface {
	Evaluate(ctx context.Context, userID string) (models.EvalCounts, error)
	EvaluateAll(ctx context.Context) (models.EvalCounts, error)
}

// ErrEvaluationInFlight is returned when another evaluation already holds
// the user's lock. Callers treat it as "nothing to do", not a failure.
var ErrEvaluationInFlight = errors.New("evaluation already in flight")

// EvalLocker serializes evaluations per user so the sweep worker and a
// user-triggered run never race on the same one-shot reminders.
type EvalLocker interface {
	Acquire(ctx context.Context, userID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, userID string)
}

// DefaultEvaluator is the production rule engine. Evaluations for different
// users are independent; within one user the passes run sequentially because
// later dedup checks must see notifications created by earlier passes.
type DefaultEvaluator struct {
	Tasks         taskRepo.TaskRepository
	Notifications notificationRepo.NotificationRepository
	Preferences   preferenceRepo.PreferenceRepository
	Dispatcher    Dispatcher

	// Locks serializes evaluations per user; nil disables locking.
	Locks EvalLocker

	// LockTTL caps how long a lock can outlive a crashed evaluation.
	LockTTL time.Duration

	// EvalTimeout bounds one user's evaluation; exceeded passes are
	// abandoned without rolling back notifications already created.
	EvalTimeout time.Duration

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (e *DefaultEvaluator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Evaluate runs the four scheduling passes for one user:
//
//  1. one-shot reminders (reminderAt consumed on firing, consumed even when
//     quiet hours suppress creation so no backlog accumulates)
//  2. legacy timing-offset reminders (at most one live reminder per task)
//  3. overdue notifications (dedup by existence)
//  4. daily summary (dedup by local calendar date, ignores quiet hours)
//
// A failure on one task is logged and skipped; it never aborts the rest of
// the user's evaluation.
func (e *DefaultEvaluator) Evaluate(ctx context.Context, userID string) (models.EvalCounts, error) {
	if e.EvalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.EvalTimeout)
		defer cancel()
	}

	var counts models.EvalCounts
	logger := utils.GetLogger()
	now := e.now()

	if e.Locks != nil {
		ttl := e.LockTTL
		if ttl <= 0 {
			ttl = 2 * time.Minute
		}
		locked, err := e.Locks.Acquire(ctx, userID, ttl)
		if err != nil {
			logger.Warn("eval lock unavailable, evaluating anyway",
				zap.String("userId", userID), zap.Error(err))
		} else if !locked {
			return counts, ErrEvaluationInFlight
		} else {
			defer e.Locks.Release(context.WithoutCancel(ctx), userID)
		}
	}

	pref, err := e.Preferences.GetOrCreate(ctx, userID)
	if err != nil {
		return counts, fmt.Errorf("load preferences for %s: %w", userID, err)
	}

	// Master switch off: strict no-op, not even reminderAt consumption.
	if !pref.EnableInAppNotifications {
		return counts, nil
	}

	suppressed := InQuietHours(now, pref.Timezone, pref.QuietHoursEnabled, pref.QuietHoursStart, pref.QuietHoursEnd)

	e.oneShotPass(ctx, userID, pref, now, suppressed, &counts)
	if ctx.Err() != nil {
		return counts, ctx.Err()
	}

	dueTasks := e.loadDueTasks(ctx, userID, pref)

	if !suppressed {
		e.offsetPass(ctx, userID, pref, dueTasks, now, &counts)
		if ctx.Err() != nil {
			return counts, ctx.Err()
		}

		if pref.EnableOverdueSummary {
			e.overduePass(ctx, userID, pref, dueTasks, now, &counts)
			if ctx.Err() != nil {
				return counts, ctx.Err()
			}
		}
	}

	if pref.EnableDailySummary {
		e.dailySummaryPass(ctx, userID, pref, now, &counts)
	}

	if counts.Total() > 0 {
		logger.Info("evaluation created notifications",
			zap.String("userId", userID),
			zap.Int("reminders", counts.Reminders),
			zap.Int("overdue", counts.Overdue),
			zap.Int("dailySummaries", counts.DailySummaries))
	}
	return counts, ctx.Err()
}

// EvaluateAll sweeps every user owning incomplete tasks. One user's failure
// does not abort the others; their counts are summed.
func (e *DefaultEvaluator) EvaluateAll(ctx context.Context) (models.EvalCounts, error) {
	var total models.EvalCounts
	logger := utils.GetLogger()

	userIDs, err := e.Tasks.ListOwnerIDs(ctx)
	if err != nil {
		return total, fmt.Errorf("list task owners: %w", err)
	}
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		counts, err := e.Evaluate(ctx, userID)
		total.Add(counts)
		if err != nil && !errors.Is(err, ErrEvaluationInFlight) {
			logger.Warn("sweep: evaluation failed", zap.String("userId", userID), zap.Error(err))
		}
	}
	return total, nil
}

// oneShotPass fires every reminder whose reminderAt has arrived. The
// timestamp is consumed before the notification is created, so a trigger
// fires at most once even across crashes; quiet hours suppress the record
// but still consume the timestamp.
func (e *DefaultEvaluator) oneShotPass(ctx context.Context, userID string, pref *models.NotificationPreference, now time.Time, suppressed bool, counts *models.EvalCounts) {
	logger := utils.GetLogger()

	tasks, err := e.Tasks.ListOpenWithReminderDue(ctx, userID, now)
	if err != nil {
		logger.Warn("one-shot pass: listing tasks failed", zap.String("userId", userID), zap.Error(err))
		return
	}

	for _, task := range tasks {
		if ctx.Err() != nil {
			return
		}
		if err := e.Tasks.ClearReminderAt(ctx, task.ID); err != nil {
			logger.Warn("one-shot pass: consuming reminderAt failed",
				zap.String("taskId", task.ID), zap.Error(err))
			continue
		}
		if suppressed {
			continue
		}

		n := models.Notification{
			UserID:  userID,
			TaskID:  task.ID,
			Type:    models.NotificationTypeReminder,
			Title:   "Task reminder",
			Message: task.Title,
		}
		id, err := e.Notifications.Create(ctx, n)
		if err != nil {
			logger.Warn("one-shot pass: creating notification failed",
				zap.String("taskId", task.ID), zap.Error(err))
			continue
		}
		e.deliver(ctx, userID, pref, reminderPayload(id, task, n.Title))
		counts.Reminders++
	}
}

// loadDueTasks fetches the user's incomplete tasks with a due date, shared
// by the offset and overdue passes. Returns nil (and logs) on failure.
func (e *DefaultEvaluator) loadDueTasks(ctx context.Context, userID string, pref *models.NotificationPreference) []models.Task {
	if len(pref.ReminderTimings) == 0 && !pref.EnableOverdueSummary {
		return nil
	}
	tasks, err := e.Tasks.ListOpenWithDueDate(ctx, userID)
	if err != nil {
		utils.GetLogger().Warn("listing due tasks failed", zap.String("userId", userID), zap.Error(err))
		return nil
	}
	return tasks
}

// offsetPass creates reminders from the configured minute offsets before a
// task's due date. A task with any live reminder notification is skipped,
// and the first elapsed offset wins, so at most one reminder per task is
// retained at a time.
func (e *DefaultEvaluator) offsetPass(ctx context.Context, userID string, pref *models.NotificationPreference, tasks []models.Task, now time.Time, counts *models.EvalCounts) {
	if len(pref.ReminderTimings) == 0 {
		return
	}
	logger := utils.GetLogger()

	for _, task := range tasks {
		if ctx.Err() != nil {
			return
		}
		if task.DueDate == nil || !task.DueDate.After(now) {
			continue
		}

		exists, err := e.Notifications.ExistsForTask(ctx, userID, task.ID, models.NotificationTypeReminder)
		if err != nil {
			logger.Warn("offset pass: dedup check failed", zap.String("taskId", task.ID), zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		for _, offset := range pref.ReminderTimings {
			trigger := task.DueDate.Add(-time.Duration(offset) * time.Minute)
			if trigger.After(now) {
				continue
			}

			n := models.Notification{
				UserID:  userID,
				TaskID:  task.ID,
				Type:    models.NotificationTypeReminder,
				Title:   fmt.Sprintf("Task due in %s", formatDuration(task.DueDate.Sub(now))),
				Message: task.Title,
			}
			id, err := e.Notifications.Create(ctx, n)
			if err != nil {
				logger.Warn("offset pass: creating notification failed",
					zap.String("taskId", task.ID), zap.Error(err))
				break
			}
			e.deliver(ctx, userID, pref, reminderPayload(id, task, n.Title))
			counts.Reminders++
			break
		}
	}
}

// overduePass creates at most one overdue notification per task, dedup by
// existence of a live overdue record.
func (e *DefaultEvaluator) overduePass(ctx context.Context, userID string, pref *models.NotificationPreference, tasks []models.Task, now time.Time, counts *models.EvalCounts) {
	logger := utils.GetLogger()

	for _, task := range tasks {
		if ctx.Err() != nil {
			return
		}
		if task.DueDate == nil || !task.DueDate.Before(now) {
			continue
		}

		exists, err := e.Notifications.ExistsForTask(ctx, userID, task.ID, models.NotificationTypeOverdue)
		if err != nil {
			logger.Warn("overdue pass: dedup check failed", zap.String("taskId", task.ID), zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		n := models.Notification{
			UserID:  userID,
			TaskID:  task.ID,
			Type:    models.NotificationTypeOverdue,
			Title:   "Task is overdue",
			Message: task.Title,
		}
		id, err := e.Notifications.Create(ctx, n)
		if err != nil {
			logger.Warn("overdue pass: creating notification failed",
				zap.String("taskId", task.ID), zap.Error(err))
			continue
		}
		e.deliver(ctx, userID, pref, models.PushPayload{
			Title:          n.Title,
			Message:        n.Message,
			NotificationID: id,
			TaskID:         task.ID,
			Tag:            "overdue-" + task.ID,
			URL:            "/tasks/" + task.ID,
		})
		counts.Overdue++
	}
}

// dailySummaryPass creates one summary per user per local calendar day once
// the configured local time has passed and at least one task is due or
// overdue. Quiet hours do not apply here.
func (e *DefaultEvaluator) dailySummaryPass(ctx context.Context, userID string, pref *models.NotificationPreference, now time.Time, counts *models.EvalCounts) {
	logger := utils.GetLogger()

	threshold, err := ParseClock(pref.DailySummaryTime)
	if err != nil {
		logger.Warn("daily summary: bad dailySummaryTime",
			zap.String("userId", userID), zap.String("value", pref.DailySummaryTime))
		return
	}
	if localMinutes(now, pref.Timezone) < threshold {
		return
	}

	today := LocalDate(now, pref.Timezone)
	exists, err := e.Notifications.ExistsDailySummary(ctx, userID, today)
	if err != nil {
		logger.Warn("daily summary: dedup check failed", zap.String("userId", userID), zap.Error(err))
		return
	}
	if exists {
		return
	}

	dueCount, err := e.Tasks.CountDueOrOverdue(ctx, userID, now)
	if err != nil {
		logger.Warn("daily summary: counting due tasks failed", zap.String("userId", userID), zap.Error(err))
		return
	}
	if dueCount == 0 {
		return
	}

	n := models.Notification{
		UserID:   userID,
		Type:     models.NotificationTypeDailySummary,
		Title:    "Daily task summary",
		Message:  fmt.Sprintf("You have %d %s due or overdue.", dueCount, pluralTask(dueCount)),
		Metadata: map[string]string{models.MetaSummaryDate: today},
	}
	id, err := e.Notifications.Create(ctx, n)
	if err != nil {
		logger.Warn("daily summary: creating notification failed", zap.String("userId", userID), zap.Error(err))
		return
	}
	e.deliver(ctx, userID, pref, models.PushPayload{
		Title:          n.Title,
		Message:        n.Message,
		NotificationID: id,
		Tag:            "daily-summary-" + today,
		URL:            "/notifications",
	})
	counts.DailySummaries++
}

// deliver fans the notification out; delivery failures never fail the
// evaluation.
func (e *DefaultEvaluator) deliver(ctx context.Context, userID string, pref *models.NotificationPreference, payload models.PushPayload) {
	if e.Dispatcher == nil {
		return
	}
	sent, err := e.Dispatcher.Deliver(ctx, userID, pref, payload)
	if err != nil {
		utils.GetLogger().Warn("delivery failed", zap.String("userId", userID), zap.Error(err))
		return
	}
	utils.GetLogger().Debug("delivered notification",
		zap.String("userId", userID), zap.Int("endpoints", sent))
}

// reminderPayload builds the payload for reminder-type notifications,
// including the action buttons the client renders without a round-trip.
func reminderPayload(notificationID string, task models.Task, title string) models.PushPayload {
	return models.PushPayload{
		Title:          title,
		Message:        task.Title,
		NotificationID: notificationID,
		TaskID:         task.ID,
		Tag:            "reminder-" + task.ID,
		URL:            "/tasks/" + task.ID,
		Actions: []models.PushAction{
			{Action: "snooze", Title: "Snooze"},
			{Action: "complete", Title: "Mark complete"},
		},
		NotificationType: models.NotificationTypeReminder,
	}
}

// formatDuration renders a positive duration like "2h30m" or "45m".
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

func pluralTask(n int64) string {
	if n == 1 {
		return "task"
	}
	return "tasks"
}
