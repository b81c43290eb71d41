package taskRepo

import (
	"context"
	"errors"
	"time"

	"taskdeck/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

var ErrTaskNotFound = errors.New("task not found")

func (r *mongoTaskRepo) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *mongoTaskRepo) Create(ctx context.Context, task models.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()

	if _, err := r.coll.InsertOne(ctx, task); err != nil {
		return "", err
	}
	return task.ID, nil
}

func (r *mongoTaskRepo) ListOpenWithReminderDue(ctx context.Context, userID string, now time.Time) ([]models.Task, error) {
	filter := bson.M{
		"userId":      userID,
		"completedAt": bson.M{"$exists": false},
		"reminderAt":  bson.M{"$lte": now},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *mongoTaskRepo) ListOpenWithDueDate(ctx context.Context, userID string) ([]models.Task, error) {
	filter := bson.M{
		"userId":      userID,
		"completedAt": bson.M{"$exists": false},
		"dueDate":     bson.M{"$exists": true},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *mongoTaskRepo) CountDueOrOverdue(ctx context.Context, userID string, now time.Time) (int64, error) {
	filter := bson.M{
		"userId":      userID,
		"completedAt": bson.M{"$exists": false},
		"dueDate":     bson.M{"$lte": now},
	}
	return r.coll.CountDocuments(ctx, filter)
}

func (r *mongoTaskRepo) ListOwnerIDs(ctx context.Context) ([]string, error) {
	filter := bson.M{"completedAt": bson.M{"$exists": false}}
	raw, err := r.coll.Distinct(ctx, "userId", filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *mongoTaskRepo) ClearReminderAt(ctx context.Context, id string) error {
	update := bson.M{
		"$unset": bson.M{"reminderAt": ""},
		"$set":   bson.M{"updatedAt": time.Now()},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *mongoTaskRepo) SetReminderAt(ctx context.Context, id string, at time.Time) error {
	update := bson.M{
		"$set": bson.M{"reminderAt": at, "updatedAt": time.Now()},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *mongoTaskRepo) SetCompleted(ctx context.Context, id string, at time.Time, columnID string) error {
	update := bson.M{
		"$set": bson.M{
			"completedAt": at,
			"columnId":    columnID,
			"updatedAt":   time.Now(),
		},
		"$push": bson.M{
			"statusHistory": models.StatusEntry{ColumnID: columnID, MovedAt: at},
		},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}
