// Package metrics exports machine lifecycle events as prometheus metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/viant/fluxchart/service/lifecycle"
)

const (
	namespace = "fluxchart"
	subsystem = "machine"
)

// Collector holds machine metrics registered with one registerer.
type Collector struct {
	started     *prometheus.CounterVec
	finished    *prometheus.CounterVec
	running     *prometheus.GaugeVec
	entered     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	faults      *prometheus.CounterVec
	duration    *prometheus.HistogramVec

	mux    sync.Mutex
	starts map[string]time.Time
}

// New registers machine metrics with registerer; nil uses the default registerer.
func New(registerer prometheus.Registerer) *Collector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)
	return &Collector{
		started: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "started_total",
			Help:      "Total number of started machine runs",
		}, []string{"chart"}),
		finished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "finished_total",
			Help:      "Total number of finished machine runs by outcome",
		}, []string{"chart", "outcome"}),
		running: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "running",
			Help:      "Number of running machines",
		}, []string{"chart"}),
		entered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "state_entered_total",
			Help:      "Total number of state entries",
		}, []string{"chart", "state"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transitions_total",
			Help:      "Total number of event driven transitions",
		}, []string{"chart"}),
		faults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "faults_total",
			Help:      "Total number of faults raised by state callbacks",
		}, []string{"chart", "case"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "run_duration_seconds",
			Help:      "Duration of machine runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"chart", "outcome"}),
		starts: map[string]time.Time{},
	}
}

// Listener returns a lifecycle listener labelling metrics with chart.
func (c *Collector) Listener(chart string) lifecycle.Listener {
	return lifecycle.ListenerFunc(func(evt lifecycle.Event) error {
		c.observe(chart, evt)
		return nil
	})
}

func (c *Collector) observe(chart string, evt lifecycle.Event) {
	switch actual := evt.(type) {
	case *lifecycle.Started:
		c.started.WithLabelValues(chart).Inc()
		c.running.WithLabelValues(chart).Inc()
		c.mux.Lock()
		c.starts[actual.MachineID] = actual.CreatedAt
		c.mux.Unlock()
	case *lifecycle.Entered:
		c.entered.WithLabelValues(chart, actual.StateID).Inc()
	case *lifecycle.EventHandled:
		if actual.ToStateID != "" {
			c.transitions.WithLabelValues(chart).Inc()
		}
	case *lifecycle.FaultRaised:
		c.faults.WithLabelValues(chart, string(actual.Case)).Inc()
	case *lifecycle.Finished:
		value := actual.Outcome.String()
		c.finished.WithLabelValues(chart, value).Inc()
		c.running.WithLabelValues(chart).Dec()
		c.mux.Lock()
		startedAt, ok := c.starts[actual.MachineID]
		delete(c.starts, actual.MachineID)
		c.mux.Unlock()
		if ok {
			c.duration.WithLabelValues(chart, value).Observe(actual.CreatedAt.Sub(startedAt).Seconds())
		}
	}
}
