package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/voice-notifier/internal/asset"
	"github.com/example/voice-notifier/internal/infrastructure/store"
	"github.com/example/voice-notifier/internal/infrastructure/store/mocks"
	"github.com/example/voice-notifier/internal/metrics"
	"github.com/example/voice-notifier/internal/voice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentNotice struct {
	TextChannelID string
	Notice        Notice
}

type mockMessenger struct {
	mu      sync.Mutex
	sent    []sentNotice
	failFor map[string]error
	block   map[string]chan struct{}
}

func (m *mockMessenger) Send(ctx context.Context, textChannelID string, n Notice) error {
	if ch, ok := m.block[textChannelID]; ok {
		<-ch
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[textChannelID]; ok {
		return err
	}
	m.sent = append(m.sent, sentNotice{TextChannelID: textChannelID, Notice: n})
	return nil
}

func (m *mockMessenger) channels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	for i, s := range m.sent {
		out[i] = s.TextChannelID
	}
	return out
}

func newTestDispatcher() (*Dispatcher, *mocks.MockSubscriptionStore, *mockMessenger, *metrics.Metrics) {
	registry := mocks.NewMockSubscriptionStore()
	messenger := &mockMessenger{}
	m := metrics.New(prometheus.NewRegistry())
	return NewDispatcher(registry, messenger, zap.NewNop(), m), registry, messenger, m
}

func joinEvent() voice.Event {
	return voice.Event{
		Kind:        voice.KindJoin,
		UserID:      "user-1",
		DisplayName: "alice",
		GuildID:     "guild-1",
		GuildName:   "Study Room",
		ChannelID:   "vc-general",
		ChannelName: "General",
		AvatarURL:   "https://cdn.example.com/a.png",
		OccurredAt:  time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
	}
}

func subscribe(registry *mocks.MockSubscriptionStore, textChannelIDs ...string) {
	for _, id := range textChannelIDs {
		registry.SetData(store.Subscription{GuildID: "guild-1", VoiceChannelID: "vc-general", TextChannelID: id})
	}
}

// ============================================
// Delivery
// ============================================

func TestDispatcher_DeliversToEverySubscriber(t *testing.T) {
	dispatcher, registry, messenger, m := newTestDispatcher()
	subscribe(registry, "tc-1", "tc-2", "tc-3")

	err := dispatcher.Dispatch(context.Background(), joinEvent(), asset.Ref{SourceURL: "https://cdn.example.com/a.png"})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tc-1", "tc-2", "tc-3"}, messenger.channels())
	n := messenger.sent[0].Notice
	assert.Equal(t, "alice", n.AuthorName)
	assert.Equal(t, "https://cdn.example.com/a.png", n.AuthorIconURL)
	assert.Equal(t, "<#vc-general> で通話を開始しました！", n.Title)
	assert.Equal(t, JoinColor, n.Color)
	assert.Equal(t, joinEvent().OccurredAt, n.Timestamp)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Notices.WithLabelValues(metrics.ResultOK)))
	require.Len(t, registry.FindCalls, 1)
	assert.Equal(t, mocks.FindCall{GuildID: "guild-1", VoiceChannelID: "vc-general"}, registry.FindCalls[0])
}

func TestDispatcher_FailureIsIsolated(t *testing.T) {
	dispatcher, registry, messenger, m := newTestDispatcher()
	subscribe(registry, "tc-1", "tc-gone", "tc-3")
	messenger.failFor = map[string]error{"tc-gone": errors.New("Unknown Channel")}

	err := dispatcher.Dispatch(context.Background(), joinEvent(), asset.Ref{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "tc-gone")
	assert.ElementsMatch(t, []string{"tc-1", "tc-3"}, messenger.channels())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notices.WithLabelValues(metrics.ResultFailed)))
}

func TestDispatcher_DeliveriesAreConcurrent(t *testing.T) {
	dispatcher, registry, messenger, _ := newTestDispatcher()
	subscribe(registry, "tc-slow", "tc-fast")
	release := make(chan struct{})
	messenger.block = map[string]chan struct{}{"tc-slow": release}

	done := make(chan error, 1)
	go func() {
		done <- dispatcher.Dispatch(context.Background(), joinEvent(), asset.Ref{})
	}()

	assert.Eventually(t, func() bool {
		return len(messenger.channels()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"tc-fast"}, messenger.channels())

	close(release)
	require.NoError(t, <-done)
	assert.ElementsMatch(t, []string{"tc-fast", "tc-slow"}, messenger.channels())
}

// ============================================
// No-op paths
// ============================================

func TestDispatcher_NoSubscribers(t *testing.T) {
	dispatcher, _, messenger, _ := newTestDispatcher()

	err := dispatcher.Dispatch(context.Background(), joinEvent(), asset.Ref{})

	assert.NoError(t, err)
	assert.Empty(t, messenger.channels())
}

func TestDispatcher_RegistryFailureFailsClosed(t *testing.T) {
	dispatcher, registry, messenger, _ := newTestDispatcher()
	subscribe(registry, "tc-1")
	registry.FindErr = errors.New("connection refused")

	err := dispatcher.Dispatch(context.Background(), joinEvent(), asset.Ref{})

	assert.NoError(t, err)
	assert.Empty(t, messenger.channels())
}

func TestDispatcher_IgnoresNonJoinEvents(t *testing.T) {
	dispatcher, registry, messenger, _ := newTestDispatcher()
	subscribe(registry, "tc-1")

	for _, kind := range []voice.Kind{voice.KindLeave, voice.KindMoveIn, voice.KindMuteOn, voice.KindVideoOn} {
		e := joinEvent()
		e.Kind = kind
		require.NoError(t, dispatcher.Dispatch(context.Background(), e, asset.Ref{}))
	}

	assert.Empty(t, messenger.channels())
	assert.Empty(t, registry.FindCalls)
}

func TestDispatcher_UsesHostedAvatarURLWhenAvailable(t *testing.T) {
	dispatcher, registry, messenger, _ := newTestDispatcher()
	subscribe(registry, "tc-1")

	err := dispatcher.Dispatch(context.Background(), joinEvent(), asset.Ref{
		SourceURL: "https://cdn.example.com/a.png",
		UploadID:  "upload-1",
		HostedURL: "https://files.example.com/upload-1",
	})

	require.NoError(t, err)
	require.Len(t, messenger.sent, 1)
	assert.Equal(t, "https://files.example.com/upload-1", messenger.sent[0].Notice.AuthorIconURL)
}
