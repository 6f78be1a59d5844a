package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voicelog"

// Metrics holds the counters shared by the pipeline components.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Transitions prometheus.Counter
	Events      *prometheus.CounterVec
	Notices     *prometheus.CounterVec
	Records     *prometheus.CounterVec
	Assets      *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Voice state transitions received from the gateway.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Classified voice events by kind.",
		}, []string{"kind"}),
		Notices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notices_total",
			Help:      "Join notices delivered to subscribed text channels.",
		}, []string{"result"}),
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Event history records written to the sink.",
		}, []string{"result"}),
		Assets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_total",
			Help:      "Avatar materializations by outcome.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.Transitions, m.Events, m.Notices, m.Records, m.Assets)
	}
	return m
}

const (
	ResultOK       = "ok"
	ResultFailed   = "failed"
	ResultSkipped  = "skipped"
	ResultHosted   = "hosted"
	ResultFallback = "fallback"
)

func (m *Metrics) ObserveTransition() {
	if m == nil {
		return
	}
	m.Transitions.Inc()
}

func (m *Metrics) ObserveEvent(kind string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveNotice(result string) {
	if m == nil {
		return
	}
	m.Notices.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRecord(result string) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveAsset(result string) {
	if m == nil {
		return
	}
	m.Assets.WithLabelValues(result).Inc()
}
