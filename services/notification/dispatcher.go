package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	subscriptionRepo "taskdeck/database/repository/subscription"
	"taskdeck/models"
	"taskdeck/utils"

	"go.uber.org/zap"
)

// ErrEndpointGone is returned by a channel sender when the remote service
// reports the endpoint or device token as permanently invalid. The
// dispatcher prunes the subscription and keeps going; any other send error
// leaves the subscription intact.
var ErrEndpointGone = errors.New("push endpoint gone")

// WebPushSender delivers one payload to a web (browser) subscription.
type WebPushSender interface {
	Send(ctx context.Context, sub models.PushSubscription, payload models.PushPayload) error
}

// NativePushSender delivers one payload to a native (mobile) subscription.
type NativePushSender interface {
	Send(ctx context.Context, sub models.PushSubscription, payload models.PushPayload) error
}

// Dispatcher fans one notification out to every registered endpoint.
type Dispatcher interface {
	// Deliver returns the number of endpoints successfully reached. A
	// partial failure still returns the successful count, not an error.
	// The preference's per-channel flags gate which endpoint kinds are
	// eligible; a nil preference leaves every configured channel open.
	Deliver(ctx context.Context, userID string, pref *models.NotificationPreference, payload models.PushPayload) (int, error)
}

// DefaultDispatcher is the production implementation. A nil channel sender
// means that channel is not configured for the deployment.
type DefaultDispatcher struct {
	Subs        subscriptionRepo.SubscriptionRepository
	Web         WebPushSender
	Native      NativePushSender
	SendTimeout time.Duration
}

func (d *DefaultDispatcher) Deliver(ctx context.Context, userID string, pref *models.NotificationPreference, payload models.PushPayload) (int, error) {
	web := d.Web
	native := d.Native
	if pref != nil {
		if !pref.EnableBrowserPush {
			web = nil
		}
		if !pref.EnableNativePush {
			native = nil
		}
	}
	if web == nil && native == nil {
		return 0, nil
	}

	subs, err := d.Subs.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(subs) == 0 {
		return 0, nil
	}

	timeout := d.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	logger := utils.GetLogger()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for _, sub := range subs {
		var sender interface {
			Send(ctx context.Context, sub models.PushSubscription, payload models.PushPayload) error
		}
		switch sub.Kind {
		case models.SubscriptionKindWeb:
			if web != nil {
				sender = web
			}
		case models.SubscriptionKindNative:
			if native != nil {
				sender = native
			}
		}
		if sender == nil {
			continue
		}

		wg.Add(1)
		go func(sub models.PushSubscription) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			err := sender.Send(sendCtx, sub, payload)
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}

			if errors.Is(err, ErrEndpointGone) {
				logger.Info("pruning dead push subscription",
					zap.String("userId", userID),
					zap.String("subscriptionId", sub.ID),
					zap.String("kind", sub.Kind))
				if derr := d.Subs.DeleteByID(ctx, userID, sub.ID); derr != nil {
					logger.Warn("failed to prune subscription",
						zap.String("subscriptionId", sub.ID), zap.Error(derr))
				}
				return
			}

			// Transient failure: keep the subscription, no retry here.
			logger.Warn("push send failed",
				zap.String("userId", userID),
				zap.String("subscriptionId", sub.ID),
				zap.String("kind", sub.Kind),
				zap.Error(err))
		}(sub)
	}
	wg.Wait()

	return success, nil
}
