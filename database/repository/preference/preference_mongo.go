package preferenceRepo

import (
	"context"
	"time"

	"taskdeck/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (r *mongoPreferenceRepo) GetOrCreate(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&pref)
	if err == nil {
		pref.ApplyDefaults()
		return &pref, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	pref = models.DefaultNotificationPreference(userID)
	pref.ID = uuid.New().String()
	pref.CreatedAt = time.Now()
	pref.UpdatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, pref); err != nil {
		// A concurrent evaluation may have inserted first; re-read.
		var existing models.NotificationPreference
		if ferr := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&existing); ferr == nil {
			existing.ApplyDefaults()
			return &existing, nil
		}
		return nil, err
	}
	return &pref, nil
}

func (r *mongoPreferenceRepo) Update(ctx context.Context, pref models.NotificationPreference) (*models.NotificationPreference, error) {
	pref.ApplyDefaults()
	pref.UpdatedAt = time.Now()
	// A timezone written through settings counts as chosen, so auto-detect
	// never overwrites it afterwards.
	pref.TimezoneDetected = true

	update := bson.M{"$set": bson.M{
		"enableInAppNotifications": pref.EnableInAppNotifications,
		"enableBrowserPush":        pref.EnableBrowserPush,
		"enableNativePush":         pref.EnableNativePush,
		"quietHoursEnabled":        pref.QuietHoursEnabled,
		"quietHoursStart":          pref.QuietHoursStart,
		"quietHoursEnd":            pref.QuietHoursEnd,
		"enableOverdueSummary":     pref.EnableOverdueSummary,
		"enableDailySummary":       pref.EnableDailySummary,
		"dailySummaryTime":         pref.DailySummaryTime,
		"reminderTimings":          pref.ReminderTimings,
		"timezone":                 pref.Timezone,
		"timezoneDetected":         pref.TimezoneDetected,
		"updatedAt":                pref.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"userId": pref.UserID}, update)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		if pref.ID == "" {
			pref.ID = uuid.New().String()
		}
		pref.CreatedAt = time.Now()
		if _, err := r.coll.InsertOne(ctx, pref); err != nil {
			return nil, err
		}
	}
	return &pref, nil
}

func (r *mongoPreferenceRepo) SetDetectedTimezone(ctx context.Context, userID, tz string) error {
	if tz == "" {
		return nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return err
	}
	filter := bson.M{"userId": userID, "timezoneDetected": bson.M{"$ne": true}}
	update := bson.M{"$set": bson.M{
		"timezone":         tz,
		"timezoneDetected": true,
		"updatedAt":        time.Now(),
	}}
	_, err := r.coll.UpdateOne(ctx, filter, update)
	return err
}
