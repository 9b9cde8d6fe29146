// Package metrics exposes extraction counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lobevents"

// Recorder counts processed messages, classified events and gating outcomes.
type Recorder struct {
	Messages      *prometheus.CounterVec
	Events        *prometheus.CounterVec
	Records       *prometheus.CounterVec
	DroppedEvents prometheus.Counter
	Malformed     prometheus.Counter
}

// New registers the collectors on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		Messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Feed messages applied to the order book",
			},
			[]string{"kind"},
		),
		Events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_classified_total",
				Help:      "Market events classified, before mid-price gating",
			},
			[]string{"kind"},
		),
		Records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Processed messages by mid-price gate outcome",
			},
			[]string{"outcome"},
		),
		DroppedEvents: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_dropped_total",
				Help:      "Classified events discarded because their message was not surfaced",
			},
		),
		Malformed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "malformed_lines_total",
				Help:      "Input lines skipped as malformed",
			},
		),
	}
}

func (r *Recorder) ObserveMessage(kind string) {
	r.Messages.WithLabelValues(kind).Inc()
}

func (r *Recorder) ObserveEvent(kind string) {
	r.Events.WithLabelValues(kind).Inc()
}

func (r *Recorder) ObserveRecord(surfaced bool, events int) {
	if surfaced {
		r.Records.WithLabelValues("surfaced").Inc()
		return
	}
	r.Records.WithLabelValues("gated").Inc()
	r.DroppedEvents.Add(float64(events))
}

// ObserveSkip matches the feed decoder's skip hook.
func (r *Recorder) ObserveSkip(int, error) {
	r.Malformed.Inc()
}
