package realtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/couchcryptid/disaster-watch-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chiangMai = domain.Geo{Lat: 18.7883, Lon: 98.9853}

func newTestHub() (*Hub, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), m), m
}

func quakeAt(g domain.Geo, radiusKM float64) domain.RealtimeAlert {
	return domain.RealtimeAlert{
		ID:                "rt-1",
		Title:             "แผ่นดินไหว",
		SeverityLevel:     5,
		AlertType:         domain.HazardEarthquake,
		Geo:               g,
		RadiusKM:          radiusKM,
		AffectedProvinces: []string{"เชียงใหม่"},
		Active:            true,
	}
}

func receive(t *testing.T, s *Subscription) domain.Toast {
	t.Helper()
	select {
	case toast := <-s.C():
		return toast
	case <-time.After(time.Second):
		t.Fatal("no toast received")
		return domain.Toast{}
	}
}

func assertNoToast(t *testing.T, s *Subscription) {
	t.Helper()
	select {
	case toast := <-s.C():
		t.Fatalf("unexpected toast %+v", toast)
	default:
	}
}

func TestHub_Broadcast_WithinRadius(t *testing.T) {
	h, m := newTestHub()
	near := h.Subscribe(context.Background(), SubscriberOptions{UserID: "u1", Location: &chiangMai})
	far := h.Subscribe(context.Background(), SubscriberOptions{UserID: "u2", Location: &domain.Geo{Lat: 7.88, Lon: 98.39}})

	n := h.Broadcast(quakeAt(chiangMai, 50))

	assert.Equal(t, 1, n)
	toast := receive(t, near)
	assert.Equal(t, "rt-1", toast.AlertID)
	require.NotNil(t, toast.DistanceKM)
	assert.InDelta(t, 0, *toast.DistanceKM, 1e-9)
	assert.True(t, toast.Notify)
	assert.True(t, toast.Sound)
	assertNoToast(t, far)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToastsDelivered))
}

func TestHub_Broadcast_PreferredAreaWithoutLocation(t *testing.T) {
	h, _ := newTestHub()
	prefs := domain.DefaultPreferences("u1")
	prefs.PreferredAreas = []string{"จังหวัดเชียงใหม่"}
	area := h.Subscribe(context.Background(), SubscriberOptions{UserID: "u1", Preferences: prefs})
	nowhere := h.Subscribe(context.Background(), SubscriberOptions{UserID: "u2"})

	h.Broadcast(quakeAt(domain.Geo{Lat: 0, Lon: 0}, 1))

	toast := receive(t, area)
	assert.Nil(t, toast.DistanceKM)
	assertNoToast(t, nowhere)
}

func TestHub_Broadcast_DisabledTypeIgnored(t *testing.T) {
	h, _ := newTestHub()
	prefs := domain.DefaultPreferences("u1")
	prefs.NotificationSettings[domain.HazardEarthquake] = false
	s := h.Subscribe(context.Background(), SubscriberOptions{UserID: "u1", Location: &chiangMai, Preferences: prefs})

	assert.Equal(t, 0, h.Broadcast(quakeAt(chiangMai, 50)))
	assertNoToast(t, s)
}

func TestHub_Broadcast_FullQueueDrops(t *testing.T) {
	h, m := newTestHub()
	s := h.Subscribe(context.Background(), SubscriberOptions{UserID: "u1", Location: &chiangMai, Buffer: 1})

	assert.Equal(t, 1, h.Broadcast(quakeAt(chiangMai, 50)))
	assert.Equal(t, 0, h.Broadcast(quakeAt(chiangMai, 50)))

	receive(t, s)
	assertNoToast(t, s)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToastsDropped))
}

func TestHub_Subscribe_ContextCancelTearsDown(t *testing.T) {
	h, m := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())
	s := h.Subscribe(ctx, SubscriberOptions{UserID: "u1", Location: &chiangMai})
	require.Equal(t, 1, h.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Subscribers))

	cancel()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription not torn down")
	}
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 0, h.Broadcast(quakeAt(chiangMai, 50)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Subscribers))

	s.Unsubscribe()
}

func TestSubscription_UpdateLocation(t *testing.T) {
	h, _ := newTestHub()
	s := h.Subscribe(context.Background(), SubscriberOptions{UserID: "u1"})
	alert := quakeAt(chiangMai, 50)
	alert.AffectedProvinces = nil

	assert.Equal(t, 0, h.Broadcast(alert))

	s.UpdateLocation(domain.Geo{Lat: 999, Lon: 0})
	assert.Equal(t, 0, h.Broadcast(alert), "invalid coordinates are ignored")

	s.UpdateLocation(chiangMai)
	assert.Equal(t, 1, h.Broadcast(alert))
}

func TestHub_ApplySettings_AllSessionsOfUser(t *testing.T) {
	h, _ := newTestHub()
	tab1 := h.Subscribe(context.Background(), SubscriberOptions{UserID: "u1", Location: &chiangMai})
	tab2 := h.Subscribe(context.Background(), SubscriberOptions{UserID: "u1", Location: &chiangMai})
	other := h.Subscribe(context.Background(), SubscriberOptions{UserID: "u2", Location: &chiangMai})

	muted := domain.DefaultSettings("u1")
	muted.SoundEnabled = false
	h.ApplySettings(muted)
	h.Broadcast(quakeAt(chiangMai, 50))

	assert.False(t, receive(t, tab1).Sound)
	assert.False(t, receive(t, tab2).Sound)
	assert.True(t, receive(t, other).Sound)
}

type fakeWatcher struct {
	ch  chan domain.Settings
	err error
}

func (f *fakeWatcher) Watch(context.Context) (<-chan domain.Settings, error) {
	return f.ch, f.err
}

func TestHub_FollowSettings(t *testing.T) {
	h, _ := newTestHub()
	s := h.Subscribe(context.Background(), SubscriberOptions{UserID: "u1", Location: &chiangMai})

	w := &fakeWatcher{ch: make(chan domain.Settings, 1)}
	off := domain.DefaultSettings("u1")
	off.NotificationsEnabled = false
	w.ch <- off
	close(w.ch)

	require.NoError(t, h.FollowSettings(context.Background(), w))

	h.Broadcast(quakeAt(chiangMai, 50))
	toast := receive(t, s)
	assert.False(t, toast.Notify)
	assert.False(t, toast.Sound)

	err := h.FollowSettings(context.Background(), &fakeWatcher{err: errors.New("redis down")})
	assert.EqualError(t, err, "redis down")
}

func TestHub_Close(t *testing.T) {
	h, _ := newTestHub()
	a := h.Subscribe(context.Background(), SubscriberOptions{UserID: "u1"})
	b := h.Subscribe(context.Background(), SubscriberOptions{UserID: "u2"})

	h.Close()

	<-a.Done()
	<-b.Done()
	assert.Equal(t, 0, h.Len())
}

func TestHub_SubscribeAfterClose(t *testing.T) {
	h, _ := newTestHub()
	h.Close()
	require.True(t, h.Closed())

	s := h.Subscribe(context.Background(), SubscriberOptions{UserID: "late"})

	select {
	case <-s.Done():
	default:
		t.Fatal("subscription after Close should already be done")
	}
	assert.Equal(t, 0, h.Len())
	s.Unsubscribe()
}
