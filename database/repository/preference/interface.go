package preferenceRepo

import (
	"context"

	"taskdeck/database"
	"taskdeck/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// PreferenceRepository manages per-user notification settings. Records are
// created lazily with defaults; they are never hard-deleted outside a full
// account wipe.
type PreferenceRepository interface {
	// GetOrCreate returns the user's preference record, inserting the
	// default one if none exists yet.
	GetOrCreate(ctx context.Context, userID string) (*models.NotificationPreference, error)
	Update(ctx context.Context, pref models.NotificationPreference) (*models.NotificationPreference, error)
	// SetDetectedTimezone records the client-detected timezone once; it is
	// a no-op if a timezone was already detected or chosen.
	SetDetectedTimezone(ctx context.Context, userID, tz string) error
}

type mongoPreferenceRepo struct {
	coll *mongo.Collection
}

// NewMongoPreferenceRepo returns a PreferenceRepository backed by MongoDB.
func NewMongoPreferenceRepo() PreferenceRepository {
	db := database.MongoClient.Database(database.Name)
	return &mongoPreferenceRepo{coll: db.Collection("notification_preferences")}
}
