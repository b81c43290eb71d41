package subscriptionRepo

import (
	"context"

	"taskdeck/database"
	"taskdeck/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// SubscriptionRepository is the registry of push delivery endpoints. The
// delivery dispatcher is the only writer besides client registration: it
// deletes records the remote channel reports as permanently gone.
type SubscriptionRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.PushSubscription, error)
	Create(ctx context.Context, sub models.PushSubscription) (string, error)
	DeleteByID(ctx context.Context, userID, id string) error
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	DeleteByDeviceToken(ctx context.Context, token string) error
}

type mongoSubscriptionRepo struct {
	coll *mongo.Collection
}

// NewMongoSubscriptionRepo returns a SubscriptionRepository backed by MongoDB.
func NewMongoSubscriptionRepo() SubscriptionRepository {
	db := database.MongoClient.Database(database.Name)
	return &mongoSubscriptionRepo{coll: db.Collection("push_subscriptions")}
}
