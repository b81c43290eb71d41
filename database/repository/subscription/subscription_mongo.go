package subscriptionRepo

import (
	"context"
	"errors"
	"time"

	"taskdeck/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

func (r *mongoSubscriptionRepo) ListByUser(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []models.PushSubscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *mongoSubscriptionRepo) Create(ctx context.Context, sub models.PushSubscription) (string, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	sub.CreatedAt = time.Now()

	if _, err := r.coll.InsertOne(ctx, sub); err != nil {
		return "", err
	}
	return sub.ID, nil
}

func (r *mongoSubscriptionRepo) DeleteByID(ctx context.Context, userID, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id, "userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// DeleteByEndpoint prunes a web subscription the push service reported gone.
// Deleting an already-deleted endpoint is not an error.
func (r *mongoSubscriptionRepo) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"endpoint": endpoint})
	return err
}

// DeleteByDeviceToken prunes a native subscription whose token the gateway
// reported unregistered.
func (r *mongoSubscriptionRepo) DeleteByDeviceToken(ctx context.Context, token string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"deviceToken": token})
	return err
}
