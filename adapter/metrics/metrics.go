// Package metrics exports xdelay dispatcher lifecycle events as Prometheus
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trickstertwo/xdelay"
)

// Observer is an xdelay.Observer backed by Prometheus collectors.
type Observer struct {
	events     *prometheus.CounterVec
	queued     prometheus.Gauge
	flushTime  prometheus.Histogram
	deliveries *prometheus.HistogramVec
}

var _ xdelay.Observer = (*Observer)(nil)

// NewObserver creates the collectors under namespace and registers them
// on reg.
func NewObserver(namespace string, reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "xdelay",
				Name:      "events_total",
				Help:      "Dispatcher lifecycle events by type",
			},
			[]string{"type"},
		),
		queued: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "xdelay",
				Name:      "queued_entries",
				Help:      "Delayed entries waiting for flush",
			},
		),
		flushTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "xdelay",
				Name:      "flush_duration_seconds",
				Help:      "Duration of Flush calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		deliveries: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "xdelay",
				Name:      "delivery_duration_seconds",
				Help:      "Duration of single delayed deliveries in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}

	for _, c := range []prometheus.Collector{o.events, o.queued, o.flushTime, o.deliveries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *Observer) OnEvent(e xdelay.Event) {
	o.events.WithLabelValues(string(e.Type)).Inc()

	switch e.Type {
	case xdelay.EventDelayed, xdelay.EventFlushStart:
		o.queued.Set(float64(e.Queued))
	case xdelay.EventDelivered:
		o.queued.Set(float64(e.Queued))
		o.deliveries.WithLabelValues("ok").Observe(e.Duration.Seconds())
	case xdelay.EventDeliveryFailed:
		o.queued.Set(float64(e.Queued))
		o.deliveries.WithLabelValues("failed").Observe(e.Duration.Seconds())
	case xdelay.EventFlushDone:
		o.queued.Set(float64(e.Queued))
		o.flushTime.Observe(e.Duration.Seconds())
	}
}
