package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"taskdeck/models"

	"firebase.google.com/go/v4/messaging"
	webpush "github.com/SherClockHolmes/webpush-go"
)

// vapidWebPushSender sends Web Push messages signed with the deployment's
// VAPID key pair.
type vapidWebPushSender struct {
	publicKey  string
	privateKey string
	subscriber string
}

// NewVAPIDWebPushSender returns the web channel sender, or nil when the key
// pair is not configured.
func NewVAPIDWebPushSender(publicKey, privateKey, subscriber string) WebPushSender {
	if publicKey == "" || privateKey == "" {
		return nil
	}
	return &vapidWebPushSender{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
	}
}

func (s *vapidWebPushSender) Send(ctx context.Context, sub models.PushSubscription, payload models.PushPayload) error {
	if sub.Endpoint == "" || sub.Keys == nil {
		return fmt.Errorf("web subscription %s has no endpoint or keys", sub.ID)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             3600,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return ErrEndpointGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service rejected send: status %d", resp.StatusCode)
	}
	return nil
}

// fcmPushSender sends native pushes through Firebase Cloud Messaging.
type fcmPushSender struct {
	client *messaging.Client
}

// NewFCMPushSender returns the native channel sender, or nil when the FCM
// client was not initialized.
func NewFCMPushSender(client *messaging.Client) NativePushSender {
	if client == nil {
		return nil
	}
	return &fcmPushSender{client: client}
}

func (s *fcmPushSender) Send(ctx context.Context, sub models.PushSubscription, payload models.PushPayload) error {
	if sub.DeviceToken == "" {
		return fmt.Errorf("native subscription %s has no device token", sub.ID)
	}

	data := map[string]string{}
	if payload.NotificationID != "" {
		data["notificationId"] = payload.NotificationID
	}
	if payload.TaskID != "" {
		data["taskId"] = payload.TaskID
	}
	if payload.Tag != "" {
		data["tag"] = payload.Tag
	}
	if payload.URL != "" {
		data["url"] = payload.URL
	}
	if payload.NotificationType != "" {
		data["notificationType"] = payload.NotificationType
	}
	if len(payload.Actions) > 0 {
		if actions, err := json.Marshal(payload.Actions); err == nil {
			data["actions"] = string(actions)
		}
	}

	msg := &messaging.Message{
		Token: sub.DeviceToken,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Message,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "reminders",
				Sound:     "default",
				Tag:       payload.Tag,
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	if _, err := s.client.Send(ctx, msg); err != nil {
		if messaging.IsUnregistered(err) {
			return ErrEndpointGone
		}
		return err
	}
	return nil
}
