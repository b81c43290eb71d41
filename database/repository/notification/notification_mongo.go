package notificationRepo

import (
	"context"
	"errors"
	"time"

	"taskdeck/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotificationNotFound = errors.New("notification not found")

func (r *mongoNotificationRepo) Create(ctx context.Context, n models.Notification) (string, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now()
	n.UpdatedAt = time.Now()

	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return "", err
	}
	return n.ID, nil
}

func (r *mongoNotificationRepo) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *mongoNotificationRepo) ListByUser(ctx context.Context, userID string, includeDismissed bool) ([]models.Notification, error) {
	filter := bson.M{"userId": userID}
	if !includeDismissed {
		filter["dismissed"] = false
	}
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifs []models.Notification
	if err := cursor.All(ctx, &notifs); err != nil {
		return nil, err
	}
	return notifs, nil
}

func (r *mongoNotificationRepo) ExistsForTask(ctx context.Context, userID, taskID, notifType string) (bool, error) {
	filter := bson.M{
		"userId":    userID,
		"taskId":    taskID,
		"type":      notifType,
		"dismissed": false,
	}
	count, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *mongoNotificationRepo) ExistsDailySummary(ctx context.Context, userID, localDate string) (bool, error) {
	filter := bson.M{
		"userId":                       userID,
		"type":                         models.NotificationTypeDailySummary,
		"metadata." + models.MetaSummaryDate: localDate,
	}
	count, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *mongoNotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	return r.updateOne(ctx, userID, id, bson.M{"read": true})
}

func (r *mongoNotificationRepo) Dismiss(ctx context.Context, userID, id string) error {
	return r.updateOne(ctx, userID, id, bson.M{"dismissed": true})
}

func (r *mongoNotificationRepo) MarkSnoozed(ctx context.Context, userID, id string, until time.Time) error {
	return r.updateOne(ctx, userID, id, bson.M{"read": true, "snoozedUntil": until})
}

func (r *mongoNotificationRepo) updateOne(ctx context.Context, userID, id string, set bson.M) error {
	set["updatedAt"] = time.Now()
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id, "userId": userID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
