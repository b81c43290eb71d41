package taskRepo

import (
	"context"
	"time"

	"taskdeck/database"
	"taskdeck/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// TaskRepository covers the task reads and writes the notification core and
// the snooze/complete hooks need. Board/task CRUD lives elsewhere.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Create(ctx context.Context, task models.Task) (string, error)

	// ListOpenWithReminderDue returns incomplete tasks whose one-shot
	// reminderAt is set and at or before now.
	ListOpenWithReminderDue(ctx context.Context, userID string, now time.Time) ([]models.Task, error)
	// ListOpenWithDueDate returns incomplete tasks that have a due date.
	ListOpenWithDueDate(ctx context.Context, userID string) ([]models.Task, error)
	// CountDueOrOverdue counts incomplete tasks with dueDate at or before now.
	CountDueOrOverdue(ctx context.Context, userID string, now time.Time) (int64, error)
	// ListOwnerIDs returns the distinct owners of incomplete tasks, for the
	// all-users sweep.
	ListOwnerIDs(ctx context.Context) ([]string, error)

	// ClearReminderAt consumes a one-shot reminder so it cannot refire.
	ClearReminderAt(ctx context.Context, id string) error
	SetReminderAt(ctx context.Context, id string, at time.Time) error
	SetCompleted(ctx context.Context, id string, at time.Time, columnID string) error
}

type mongoTaskRepo struct {
	coll *mongo.Collection
}

// NewMongoTaskRepo returns a TaskRepository backed by MongoDB.
func NewMongoTaskRepo() TaskRepository {
	db := database.MongoClient.Database(database.Name)
	return &mongoTaskRepo{coll: db.Collection("tasks")}
}
