package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/example/voice-notifier/internal/asset"
	"github.com/example/voice-notifier/internal/metrics"
	"github.com/example/voice-notifier/internal/voice"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Materializer turns an avatar URL into a reference usable by the sinks.
type Materializer interface {
	Materialize(ctx context.Context, sourceURL string) asset.Ref
}

// Dispatcher delivers join notices.
type Dispatcher interface {
	Dispatch(ctx context.Context, e voice.Event, avatar asset.Ref) error
}

// Recorder appends events to the history.
type Recorder interface {
	Record(ctx context.Context, e voice.Event, icon asset.Ref) error
}

// Pipeline processes voice state transitions: classify, materialize the
// avatar once, then notify and record every derived event concurrently.
// Nothing is shared between transitions.
type Pipeline struct {
	classifier *voice.Classifier
	assets     Materializer
	dispatcher Dispatcher
	recorder   Recorder
	logger     *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time

	inflight sync.WaitGroup
}

// New wires a pipeline. A nil assets disables avatar rehosting.
func New(classifier *voice.Classifier, assets Materializer, dispatcher Dispatcher, recorder Recorder, logger *zap.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		assets:     assets,
		dispatcher: dispatcher,
		recorder:   recorder,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

// Submit processes a transition in the background. receivedAt is the
// arrival time of the notification and becomes the time of every derived
// event. load resolves the snapshots inside the background goroutine. Use
// Wait to drain.
func (p *Pipeline) Submit(ctx context.Context, receivedAt time.Time, load func() (before, after voice.Snapshot)) {
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		before, after := load()
		p.handle(ctx, before, after, receivedAt)
	}()
}

// Wait blocks until every submitted transition has finished.
func (p *Pipeline) Wait() {
	p.inflight.Wait()
}

// Handle processes one transition and returns once all of its side effects
// have completed or failed. It returns the classified events.
func (p *Pipeline) Handle(ctx context.Context, before, after voice.Snapshot) []voice.Event {
	return p.handle(ctx, before, after, p.now())
}

func (p *Pipeline) handle(ctx context.Context, before, after voice.Snapshot, receivedAt time.Time) []voice.Event {
	p.metrics.ObserveTransition()

	events := p.classifier.Classify(before, after, receivedAt)
	if len(events) == 0 {
		return nil
	}

	logger := p.logger.With(
		zap.String("transition_id", uuid.NewString()),
		zap.String("user_id", events[0].UserID),
		zap.String("guild_id", events[0].GuildID),
	)

	avatars := p.materialize(ctx, events)

	var wg sync.WaitGroup
	for _, e := range events {
		p.metrics.ObserveEvent(string(e.Kind))
		ref := avatars[e.AvatarURL]

		logger.Debug("voice event",
			zap.String("kind", string(e.Kind)),
			zap.String("channel", e.ChannelName),
		)

		if e.Kind == voice.KindJoin {
			wg.Add(1)
			go func(e voice.Event) {
				defer wg.Done()
				if err := p.dispatcher.Dispatch(ctx, e, ref); err != nil {
					logger.Warn("join notice delivery failed",
						zap.String("channel_id", e.ChannelID),
						zap.Error(err),
					)
				}
			}(e)
		}

		wg.Add(1)
		go func(e voice.Event) {
			defer wg.Done()
			if err := p.recorder.Record(ctx, e, ref); err != nil {
				logger.Error("voice event dropped from history",
					zap.String("kind", string(e.Kind)),
					zap.String("user", e.DisplayName),
					zap.String("channel_id", e.ChannelID),
					zap.String("channel", e.ChannelName),
					zap.Time("occurred_at", e.OccurredAt),
					zap.Error(err),
				)
			}
		}(e)
	}
	wg.Wait()

	return events
}

// materialize resolves each distinct avatar URL once per transition.
func (p *Pipeline) materialize(ctx context.Context, events []voice.Event) map[string]asset.Ref {
	refs := make(map[string]asset.Ref, 1)
	for _, e := range events {
		if _, done := refs[e.AvatarURL]; done {
			continue
		}
		if p.assets == nil || e.AvatarURL == "" {
			refs[e.AvatarURL] = asset.Ref{SourceURL: e.AvatarURL}
			continue
		}
		refs[e.AvatarURL] = p.assets.Materialize(ctx, e.AvatarURL)
	}
	return refs
}
