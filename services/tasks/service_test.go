package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taskdeck/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*models.Task
}

func newMemTaskRepo(tasks ...*models.Task) *memTaskRepo {
	r := &memTaskRepo{tasks: map[string]*models.Task{}}
	for _, t := range tasks {
		r.tasks[t.ID] = t
	}
	return r
}

func (r *memTaskRepo) GetByID(_ context.Context, id string) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *t
	return &cp, nil
}

func (r *memTaskRepo) Create(_ context.Context, task models.Task) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.ID == "" {
		task.ID = "clone-1"
	}
	r.tasks[task.ID] = &task
	return task.ID, nil
}

func (r *memTaskRepo) ListOpenWithReminderDue(_ context.Context, _ string, _ time.Time) ([]models.Task, error) {
	return nil, nil
}

func (r *memTaskRepo) ListOpenWithDueDate(_ context.Context, _ string) ([]models.Task, error) {
	return nil, nil
}

func (r *memTaskRepo) CountDueOrOverdue(_ context.Context, _ string, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *memTaskRepo) ListOwnerIDs(_ context.Context) ([]string, error) { return nil, nil }

func (r *memTaskRepo) ClearReminderAt(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return errors.New("not found")
	}
	t.ReminderAt = nil
	return nil
}

func (r *memTaskRepo) SetReminderAt(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return errors.New("not found")
	}
	t.ReminderAt = &at
	return nil
}

func (r *memTaskRepo) SetCompleted(_ context.Context, id string, at time.Time, columnID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return errors.New("not found")
	}
	t.CompletedAt = &at
	t.ColumnID = columnID
	t.StatusHistory = append(t.StatusHistory, models.StatusEntry{ColumnID: columnID, MovedAt: at})
	return nil
}

type memNotificationRepo struct {
	mu     sync.Mutex
	notifs map[string]*models.Notification
}

func newMemNotificationRepo(notifs ...*models.Notification) *memNotificationRepo {
	r := &memNotificationRepo{notifs: map[string]*models.Notification{}}
	for _, n := range notifs {
		r.notifs[n.ID] = n
	}
	return r
}

func (r *memNotificationRepo) Create(_ context.Context, n models.Notification) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifs[n.ID] = &n
	return n.ID, nil
}

func (r *memNotificationRepo) GetByID(_ context.Context, id string) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *n
	return &cp, nil
}

func (r *memNotificationRepo) ListByUser(_ context.Context, _ string, _ bool) ([]models.Notification, error) {
	return nil, nil
}

func (r *memNotificationRepo) ExistsForTask(_ context.Context, _, _, _ string) (bool, error) {
	return false, nil
}

func (r *memNotificationRepo) ExistsDailySummary(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

func (r *memNotificationRepo) MarkRead(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifs[id]
	if !ok || n.UserID != userID {
		return errors.New("not found")
	}
	n.Read = true
	return nil
}

func (r *memNotificationRepo) Dismiss(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifs[id]
	if !ok || n.UserID != userID {
		return errors.New("not found")
	}
	n.Dismissed = true
	return nil
}

func (r *memNotificationRepo) MarkSnoozed(_ context.Context, userID, id string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifs[id]
	if !ok || n.UserID != userID {
		return errors.New("not found")
	}
	n.Read = true
	n.SnoozedUntil = &until
	return nil
}

type memBoardRepo struct {
	terminal string
	err      error
}

func (r *memBoardRepo) GetTerminalColumnID(_ context.Context, _ string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.terminal, nil
}

var now = time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

func newService(tasks *memTaskRepo, notifs *memNotificationRepo, boards *memBoardRepo) *DefaultTaskService {
	return &DefaultTaskService{
		Tasks:         tasks,
		Notifications: notifs,
		Boards:        boards,
		Now:           func() time.Time { return now },
	}
}

func ts(t time.Time) *time.Time { return &t }

func TestSnoozeSetsReminder(t *testing.T) {
	task := &models.Task{ID: "t1", UserID: "u1", Title: "pay rent"}
	repo := newMemTaskRepo(task)
	notifs := newMemNotificationRepo(&models.Notification{ID: "n1", UserID: "u1", TaskID: "t1", Type: models.NotificationTypeReminder})
	svc := newService(repo, notifs, &memBoardRepo{terminal: "done"})

	updated, err := svc.Snooze(context.Background(), "u1", "t1", "n1")
	require.NoError(t, err)

	want := now.Add(SnoozeOffset)
	require.NotNil(t, updated.ReminderAt)
	assert.Equal(t, want, *updated.ReminderAt)
	assert.Equal(t, want, *repo.tasks["t1"].ReminderAt)

	n := notifs.notifs["n1"]
	assert.True(t, n.Read)
	require.NotNil(t, n.SnoozedUntil)
	assert.Equal(t, want, *n.SnoozedUntil)
}

func TestSnoozeWithoutNotification(t *testing.T) {
	task := &models.Task{ID: "t1", UserID: "u1"}
	repo := newMemTaskRepo(task)
	svc := newService(repo, newMemNotificationRepo(), &memBoardRepo{terminal: "done"})

	_, err := svc.Snooze(context.Background(), "u1", "t1", "")
	require.NoError(t, err)
	require.NotNil(t, repo.tasks["t1"].ReminderAt)
}

func TestSnoozeRejectsForeignTask(t *testing.T) {
	task := &models.Task{ID: "t1", UserID: "someone-else"}
	svc := newService(newMemTaskRepo(task), newMemNotificationRepo(), &memBoardRepo{terminal: "done"})

	_, err := svc.Snooze(context.Background(), "u1", "t1", "")
	assert.ErrorIs(t, err, ErrNotTaskOwner)
}

// The engine consuming a one-shot reminder and the user snoozing right after
// must end with the snooze value: user intent wins the race.
func TestSnoozeWinsRaceAgainstEngineClear(t *testing.T) {
	task := &models.Task{ID: "t1", UserID: "u1", ReminderAt: ts(now.Add(-time.Minute))}
	repo := newMemTaskRepo(task)
	svc := newService(repo, newMemNotificationRepo(), &memBoardRepo{terminal: "done"})

	// Engine fires the reminder and consumes the timestamp...
	require.NoError(t, repo.ClearReminderAt(context.Background(), "t1"))
	// ...then the user snoozes from the delivered notification.
	_, err := svc.Snooze(context.Background(), "u1", "t1", "")
	require.NoError(t, err)

	got := repo.tasks["t1"].ReminderAt
	require.NotNil(t, got, "snooze value must survive the engine's clear")
	assert.Equal(t, now.Add(SnoozeOffset), *got)
}

func TestCompleteMovesToTerminalColumn(t *testing.T) {
	task := &models.Task{ID: "t1", UserID: "u1", BoardID: "b1", ColumnID: "doing"}
	repo := newMemTaskRepo(task)
	svc := newService(repo, newMemNotificationRepo(), &memBoardRepo{terminal: "done"})

	completed, err := svc.Complete(context.Background(), "u1", "t1")
	require.NoError(t, err)

	require.NotNil(t, completed.CompletedAt)
	assert.Equal(t, now, *completed.CompletedAt)
	assert.Equal(t, "done", completed.ColumnID)
	assert.Equal(t, "done", repo.tasks["t1"].ColumnID)
}

func TestCompleteIsIdempotent(t *testing.T) {
	done := now.Add(-time.Hour)
	task := &models.Task{ID: "t1", UserID: "u1", CompletedAt: &done, ColumnID: "done"}
	repo := newMemTaskRepo(task)
	svc := newService(repo, newMemNotificationRepo(), &memBoardRepo{terminal: "done"})

	completed, err := svc.Complete(context.Background(), "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, done, *completed.CompletedAt, "already-completed tasks keep their timestamp")
	assert.Len(t, repo.tasks, 1, "no clone for an already-completed task")
}

func TestCompleteSpawnsNextOccurrence(t *testing.T) {
	due := now.Add(-2 * time.Hour)
	task := &models.Task{
		ID: "t1", UserID: "u1", BoardID: "b1", ColumnID: "doing",
		Title:      "water plants",
		DueDate:    &due,
		Recurrence: &models.RecurrenceRule{Frequency: "weekly", Interval: 1, Active: true},
		Subtasks: []models.Subtask{
			{ID: "s1", Title: "front room", Done: true},
			{ID: "s2", Title: "balcony", Done: false},
		},
	}
	repo := newMemTaskRepo(task)
	svc := newService(repo, newMemNotificationRepo(), &memBoardRepo{terminal: "done"})

	_, err := svc.Complete(context.Background(), "u1", "t1")
	require.NoError(t, err)

	clone, ok := repo.tasks["clone-1"]
	require.True(t, ok, "recurring task must spawn its next occurrence")
	assert.Nil(t, clone.CompletedAt)
	assert.Nil(t, clone.ReminderAt)
	assert.Equal(t, "u1", clone.UserID)
	assert.Equal(t, "doing", clone.ColumnID, "clone lands in the pre-completion column")
	require.NotNil(t, clone.DueDate)
	assert.Equal(t, due.AddDate(0, 0, 7), *clone.DueDate)
	require.Len(t, clone.Subtasks, 2)
	assert.False(t, clone.Subtasks[0].Done, "subtask completion flags reset")
	assert.False(t, clone.Subtasks[1].Done)
	require.Len(t, clone.StatusHistory, 1, "fresh status history")
}

func TestCompleteNonRecurringDoesNotClone(t *testing.T) {
	task := &models.Task{ID: "t1", UserID: "u1", ColumnID: "doing"}
	repo := newMemTaskRepo(task)
	svc := newService(repo, newMemNotificationRepo(), &memBoardRepo{terminal: "done"})

	_, err := svc.Complete(context.Background(), "u1", "t1")
	require.NoError(t, err)
	assert.Len(t, repo.tasks, 1)
}

func TestCompleteInactiveRecurrenceDoesNotClone(t *testing.T) {
	task := &models.Task{
		ID: "t1", UserID: "u1", ColumnID: "doing",
		Recurrence: &models.RecurrenceRule{Frequency: "daily", Interval: 1, Active: false},
	}
	repo := newMemTaskRepo(task)
	svc := newService(repo, newMemNotificationRepo(), &memBoardRepo{terminal: "done"})

	_, err := svc.Complete(context.Background(), "u1", "t1")
	require.NoError(t, err)
	assert.Len(t, repo.tasks, 1)
}

func TestCompleteFallsBackWhenBoardLookupFails(t *testing.T) {
	task := &models.Task{ID: "t1", UserID: "u1", ColumnID: "doing"}
	repo := newMemTaskRepo(task)
	svc := newService(repo, newMemNotificationRepo(), &memBoardRepo{err: errors.New("board gone")})

	completed, err := svc.Complete(context.Background(), "u1", "t1")
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)
	assert.Equal(t, "doing", completed.ColumnID, "column unchanged when terminal lookup fails")
}
