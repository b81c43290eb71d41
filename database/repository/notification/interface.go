package notificationRepo

import (
	"context"
	"time"

	"taskdeck/database"
	"taskdeck/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// NotificationRepository persists notification records and answers the dedup
// existence checks the rule engine relies on.
type NotificationRepository interface {
	Create(ctx context.Context, n models.Notification) (string, error)
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	ListByUser(ctx context.Context, userID string, includeDismissed bool) ([]models.Notification, error)

	// ExistsForTask reports whether an unconsumed (not dismissed)
	// notification of the given type references the task.
	ExistsForTask(ctx context.Context, userID, taskID, notifType string) (bool, error)
	// ExistsDailySummary reports whether a daily summary stamped with the
	// given local calendar date already exists for the user.
	ExistsDailySummary(ctx context.Context, userID, localDate string) (bool, error)

	MarkRead(ctx context.Context, userID, id string) error
	Dismiss(ctx context.Context, userID, id string) error
	MarkSnoozed(ctx context.Context, userID, id string, until time.Time) error
}

type mongoNotificationRepo struct {
	coll *mongo.Collection
}

// NewMongoNotificationRepo returns a NotificationRepository backed by MongoDB.
func NewMongoNotificationRepo() NotificationRepository {
	db := database.MongoClient.Database(database.Name)
	return &mongoNotificationRepo{coll: db.Collection("notifications")}
}
