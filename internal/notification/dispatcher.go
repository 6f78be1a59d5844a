package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/example/voice-notifier/internal/asset"
	"github.com/example/voice-notifier/internal/infrastructure/store"
	"github.com/example/voice-notifier/internal/metrics"
	"github.com/example/voice-notifier/internal/voice"
	"go.uber.org/zap"
)

// Messenger delivers a notice to a text channel.
type Messenger interface {
	Send(ctx context.Context, textChannelID string, n Notice) error
}

// Dispatcher posts join notices to every text channel subscribed to the
// voice channel that was joined.
type Dispatcher struct {
	registry  store.SubscriptionStore
	messenger Messenger
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewDispatcher creates a new join notice dispatcher.
func NewDispatcher(registry store.SubscriptionStore, messenger Messenger, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		messenger: messenger,
		logger:    logger,
		metrics:   m,
	}
}

// Dispatch delivers the join notice for e. Only Join events are dispatched.
// A registry failure is treated as having no subscribers. Deliveries run
// concurrently; the returned error joins the failed ones and never means the
// other subscribers were skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, e voice.Event, avatar asset.Ref) error {
	if e.Kind != voice.KindJoin {
		return nil
	}

	subs, err := d.registry.Find(ctx, e.GuildID, e.ChannelID)
	if err != nil {
		d.logger.Warn("subscription lookup failed, skipping notices",
			zap.String("guild_id", e.GuildID),
			zap.String("channel_id", e.ChannelID),
			zap.Error(err),
		)
		return nil
	}
	if len(subs) == 0 {
		d.logger.Debug("no subscribers for voice channel",
			zap.String("guild_id", e.GuildID),
			zap.String("channel_id", e.ChannelID),
		)
		return nil
	}

	notice := BuildJoinNotice(e, avatar.URL())

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, sub := range subs {
		wg.Add(1)
		go func(textChannelID string) {
			defer wg.Done()
			if err := d.messenger.Send(ctx, textChannelID, notice); err != nil {
				d.metrics.ObserveNotice(metrics.ResultFailed)
				mu.Lock()
				errs = append(errs, fmt.Errorf("notify text channel %s: %w", textChannelID, err))
				mu.Unlock()
				return
			}
			d.metrics.ObserveNotice(metrics.ResultOK)
		}(sub.TextChannelID)
	}
	wg.Wait()

	d.logger.Info("join notices dispatched",
		zap.String("user", e.DisplayName),
		zap.String("channel", e.ChannelName),
		zap.Int("subscribers", len(subs)),
		zap.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}
