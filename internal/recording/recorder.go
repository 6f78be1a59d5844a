package recording

import (
	"context"
	"fmt"

	"github.com/example/voice-notifier/internal/asset"
	"github.com/example/voice-notifier/internal/metrics"
	"github.com/example/voice-notifier/internal/voice"
	"go.uber.org/zap"
)

// Sink is the durable store event history is written to.
type Sink interface {
	CreateRecord(ctx context.Context, r Record) (string, error)
}

// Recorder writes one history record per event. Writes are attempted once.
type Recorder struct {
	sink    Sink
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewRecorder creates a recorder. A nil sink turns Record into a no-op.
func NewRecorder(sink Sink, logger *zap.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{
		sink:    sink,
		logger:  logger,
		metrics: m,
	}
}

// Enabled reports whether records are written anywhere.
func (r *Recorder) Enabled() bool {
	return r.sink != nil
}

// Record writes e with icon as its avatar. The returned error describes the
// dropped record; callers log it and carry on.
func (r *Recorder) Record(ctx context.Context, e voice.Event, icon asset.Ref) error {
	if r.sink == nil {
		r.metrics.ObserveRecord(metrics.ResultSkipped)
		return nil
	}

	rec := BuildRecord(e, icon)
	id, err := r.sink.CreateRecord(ctx, rec)
	if err != nil {
		r.metrics.ObserveRecord(metrics.ResultFailed)
		return fmt.Errorf("record %s for user %s in channel %s: %w", e.Kind, e.UserID, e.ChannelID, err)
	}

	r.metrics.ObserveRecord(metrics.ResultOK)
	r.logger.Info("recorded voice event",
		zap.String("record_id", id),
		zap.String("kind", string(e.Kind)),
		zap.String("user", e.DisplayName),
		zap.String("channel", e.ChannelName),
		zap.Bool("hosted_icon", icon.Hosted()),
	)
	return nil
}
