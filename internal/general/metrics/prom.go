package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"geo-dispatch/internal/ports"
)

// PromMetrics records dispatch activity in Prometheus collectors.
type PromMetrics struct {
	dispatches *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	conflicts  prometheus.Counter
	excluded   *prometheus.CounterVec
	nodes      prometheus.Gauge
}

// NewPromMetrics registers dispatch metrics on reg. A nil registerer defaults to
// the global Prometheus registerer. Collectors already registered are reused.
func NewPromMetrics(reg prometheus.Registerer) (*PromMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PromMetrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_requests_total",
			Help: "Dispatch requests by outcome",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dispatch_duration_seconds",
			Help:    "Time spent assigning a driver to an order",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_booking_conflicts_total",
			Help: "Booking attempts lost to a concurrent writer",
		}),
		excluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_candidates_excluded_total",
			Help: "Drivers dropped from ranking by reason",
		}, []string{"reason"}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "road_graph_nodes",
			Help: "Number of location nodes in the road graph",
		}),
	}

	var err error
	if m.dispatches, err = register(reg, m.dispatches); err != nil {
		return nil, err
	}
	if m.latency, err = register(reg, m.latency); err != nil {
		return nil, err
	}
	if m.conflicts, err = register(reg, m.conflicts); err != nil {
		return nil, err
	}
	if m.excluded, err = register(reg, m.excluded); err != nil {
		return nil, err
	}
	if m.nodes, err = register(reg, m.nodes); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *PromMetrics) ObserveDispatch(outcome string, seconds float64) {
	m.dispatches.WithLabelValues(outcome).Inc()
	m.latency.WithLabelValues(outcome).Observe(seconds)
}

func (m *PromMetrics) IncBookingConflict() {
	m.conflicts.Inc()
}

func (m *PromMetrics) IncCandidateExcluded(reason string) {
	m.excluded.WithLabelValues(reason).Inc()
}

func (m *PromMetrics) SetGraphNodes(n int) {
	m.nodes.Set(float64(n))
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) ObserveDispatch(string, float64) {}

func (Nop) IncBookingConflict() {}

func (Nop) IncCandidateExcluded(string) {}

func (Nop) SetGraphNodes(int) {}

var (
	_ ports.DispatchMetrics = (*PromMetrics)(nil)
	_ ports.DispatchMetrics = Nop{}
)
