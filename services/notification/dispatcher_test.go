package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taskdeck/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriptionRepo struct {
	mu     sync.Mutex
	subs   map[string]models.PushSubscription
	listed bool
}

func newFakeSubscriptionRepo(subs ...models.PushSubscription) *fakeSubscriptionRepo {
	r := &fakeSubscriptionRepo{subs: map[string]models.PushSubscription{}}
	for _, s := range subs {
		r.subs[s.ID] = s
	}
	return r
}

func (r *fakeSubscriptionRepo) ListByUser(_ context.Context, userID string) ([]models.PushSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listed = true
	var out []models.PushSubscription
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, sub models.PushSubscription) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.ID] = sub
	return sub.ID, nil
}

func (r *fakeSubscriptionRepo) DeleteByID(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.subs[id]; !ok || s.UserID != userID {
		return errors.New("not found")
	}
	delete(r.subs, id)
	return nil
}

func (r *fakeSubscriptionRepo) DeleteByEndpoint(_ context.Context, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.subs {
		if s.Endpoint == endpoint {
			delete(r.subs, id)
		}
	}
	return nil
}

func (r *fakeSubscriptionRepo) DeleteByDeviceToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.subs {
		if s.DeviceToken == token {
			delete(r.subs, id)
		}
	}
	return nil
}

// fakeSender fails sends whose subscription ID appears in errs.
type fakeSender struct {
	mu   sync.Mutex
	sent []string
	errs map[string]error
}

func (s *fakeSender) Send(_ context.Context, sub models.PushSubscription, _ models.PushPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errs[sub.ID]; ok {
		return err
	}
	s.sent = append(s.sent, sub.ID)
	return nil
}

func webSub(id, userID string) models.PushSubscription {
	return models.PushSubscription{
		ID: id, UserID: userID, Kind: models.SubscriptionKindWeb,
		Endpoint: "https://push.example/" + id,
		Keys:     &models.WebPushKeys{P256dh: "p", Auth: "a"},
	}
}

func nativeSub(id, userID string) models.PushSubscription {
	return models.PushSubscription{
		ID: id, UserID: userID, Kind: models.SubscriptionKindNative,
		DeviceToken: "tok-" + id, Platform: "android",
	}
}

func TestDeliverNoChannelsConfigured(t *testing.T) {
	subs := newFakeSubscriptionRepo(webSub("s1", "u1"))
	d := &DefaultDispatcher{Subs: subs}

	count, err := d.Deliver(context.Background(), "u1", nil, models.PushPayload{Title: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.False(t, subs.listed, "registry must not be touched when no channel is configured")
}

func TestDeliverFansOutAcrossChannels(t *testing.T) {
	subs := newFakeSubscriptionRepo(
		webSub("s1", "u1"),
		webSub("s2", "u1"),
		nativeSub("s3", "u1"),
		webSub("other", "u2"),
	)
	web := &fakeSender{}
	native := &fakeSender{}
	d := &DefaultDispatcher{Subs: subs, Web: web, Native: native}

	count, err := d.Deliver(context.Background(), "u1", nil, models.PushPayload{Title: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.ElementsMatch(t, []string{"s1", "s2"}, web.sent)
	assert.ElementsMatch(t, []string{"s3"}, native.sent)
}

func TestDeliverPrunesGoneEndpoints(t *testing.T) {
	subs := newFakeSubscriptionRepo(
		webSub("alive", "u1"),
		webSub("gone", "u1"),
	)
	web := &fakeSender{errs: map[string]error{"gone": ErrEndpointGone}}
	d := &DefaultDispatcher{Subs: subs, Web: web}

	count, err := d.Deliver(context.Background(), "u1", nil, models.PushPayload{Title: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, count, "success count excludes the pruned endpoint")

	_, stillThere := subs.subs["gone"]
	assert.False(t, stillThere, "gone endpoint must be pruned")
	_, alive := subs.subs["alive"]
	assert.True(t, alive)
}

func TestDeliverKeepsSubscriptionOnTransientFailure(t *testing.T) {
	subs := newFakeSubscriptionRepo(
		nativeSub("flaky", "u1"),
		nativeSub("ok", "u1"),
	)
	native := &fakeSender{errs: map[string]error{"flaky": errors.New("503 from gateway")}}
	d := &DefaultDispatcher{Subs: subs, Native: native}

	count, err := d.Deliver(context.Background(), "u1", nil, models.PushPayload{Title: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, kept := subs.subs["flaky"]
	assert.True(t, kept, "transient failures must not prune the subscription")
}

func TestDeliverSkipsUnconfiguredChannel(t *testing.T) {
	subs := newFakeSubscriptionRepo(
		webSub("s1", "u1"),
		nativeSub("s2", "u1"),
	)
	web := &fakeSender{}
	// Native channel not configured for this deployment.
	d := &DefaultDispatcher{Subs: subs, Web: web}

	count, err := d.Deliver(context.Background(), "u1", nil, models.PushPayload{Title: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.ElementsMatch(t, []string{"s1"}, web.sent)

	_, kept := subs.subs["s2"]
	assert.True(t, kept, "unconfigured channel must leave subscriptions intact")
}

func TestDeliverHonorsChannelPreferences(t *testing.T) {
	subs := newFakeSubscriptionRepo(
		webSub("s1", "u1"),
		nativeSub("s2", "u1"),
	)
	web := &fakeSender{}
	native := &fakeSender{}
	d := &DefaultDispatcher{Subs: subs, Web: web, Native: native}

	pref := models.DefaultNotificationPreference("u1")
	pref.EnableBrowserPush = false

	count, err := d.Deliver(context.Background(), "u1", &pref, models.PushPayload{Title: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Empty(t, web.sent, "disabled browser push must not reach web endpoints")
	assert.ElementsMatch(t, []string{"s2"}, native.sent)

	_, kept := subs.subs["s1"]
	assert.True(t, kept, "opting out of a channel must not prune its subscriptions")
}

func TestDeliverAllChannelsDisabledByPreference(t *testing.T) {
	subs := newFakeSubscriptionRepo(webSub("s1", "u1"), nativeSub("s2", "u1"))
	d := &DefaultDispatcher{Subs: subs, Web: &fakeSender{}, Native: &fakeSender{}}

	pref := models.DefaultNotificationPreference("u1")
	pref.EnableBrowserPush = false
	pref.EnableNativePush = false

	count, err := d.Deliver(context.Background(), "u1", &pref, models.PushPayload{Title: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.False(t, subs.listed, "registry must not be touched when every channel is opted out")
}

// stallingSender blocks until its per-send context is cancelled.
type stallingSender struct{}

func (stallingSender) Send(ctx context.Context, _ models.PushSubscription, _ models.PushPayload) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestDeliverTimesOutStalledEndpoint(t *testing.T) {
	subs := newFakeSubscriptionRepo(webSub("stalled", "u1"))
	d := &DefaultDispatcher{
		Subs:        subs,
		Web:         stallingSender{},
		SendTimeout: 50 * time.Millisecond,
	}

	start := time.Now()
	count, err := d.Deliver(context.Background(), "u1", nil, models.PushPayload{Title: "hi"})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 0, count, "a timed-out send must not count as delivered")
	assert.Less(t, elapsed, 2*time.Second, "fan-out must return once the send timeout fires")

	_, kept := subs.subs["stalled"]
	assert.True(t, kept, "a timeout is transient and must not prune the subscription")
}

func TestDeliverStalledEndpointDoesNotBlockOthers(t *testing.T) {
	subs := newFakeSubscriptionRepo(
		webSub("stalled", "u1"),
		nativeSub("fast", "u1"),
	)
	native := &fakeSender{}
	d := &DefaultDispatcher{
		Subs:        subs,
		Web:         stallingSender{},
		Native:      native,
		SendTimeout: 50 * time.Millisecond,
	}

	count, err := d.Deliver(context.Background(), "u1", nil, models.PushPayload{Title: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, count, "healthy endpoints still count despite a stalled one")
	assert.ElementsMatch(t, []string{"fast"}, native.sent)
}

func TestDeliverNoSubscriptions(t *testing.T) {
	d := &DefaultDispatcher{Subs: newFakeSubscriptionRepo(), Web: &fakeSender{}}

	count, err := d.Deliver(context.Background(), "u1", nil, models.PushPayload{Title: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
