package models

import "time"

// Push subscription kinds.
const (
	SubscriptionKindWeb    = "web"
	SubscriptionKindNative = "native"
)

// WebPushKeys are the client encryption keys of a browser subscription.
type WebPushKeys struct {
	P256dh string `json:"p256dh" bson:"p256dh"`
	Auth   string `json:"auth" bson:"auth"`
}

// PushSubscription is one registered delivery endpoint. Web subscriptions
// carry an endpoint URL plus keys; native subscriptions carry a device token
// for the mobile push gateway. Endpoints are not deduplicated — every record
// is dispatched independently.
type PushSubscription struct {
	ID          string       `json:"id" bson:"id"`
	UserID      string       `json:"userId" bson:"userId"`
	Kind        string       `json:"kind" bson:"kind"`
	Endpoint    string       `json:"endpoint,omitempty" bson:"endpoint,omitempty"`
	Keys        *WebPushKeys `json:"keys,omitempty" bson:"keys,omitempty"`
	DeviceToken string       `json:"deviceToken,omitempty" bson:"deviceToken,omitempty"`
	Platform    string       `json:"platform,omitempty" bson:"platform,omitempty"` // android | ios
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
}
