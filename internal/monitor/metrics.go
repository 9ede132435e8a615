package monitor

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Geun-Oh/vcilog/internal/entry"
	"github.com/Geun-Oh/vcilog/internal/logger"
)

// Metrics exports pipeline counters to Prometheus.
type Metrics struct {
	registry *prometheus.Registry

	received *prometheus.CounterVec
	levels   *prometheus.CounterVec
	matched  prometheus.Counter
	alerts   *prometheus.CounterVec
}

// NewMetrics registers the vcilog collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		received: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vcilog_entries_received_total",
				Help: "Entries received by kind",
			},
			[]string{"kind"},
		),
		levels: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vcilog_entries_level_total",
				Help: "Entries received by rounded level",
			},
			[]string{"level"},
		),
		matched: factory.NewCounter(prometheus.CounterOpts{
			Name: "vcilog_entries_matched_total",
			Help: "Entries that passed the filter condition",
		}),
		alerts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vcilog_alerts_total",
				Help: "Alert rule hits by rule name",
			},
			[]string{"rule"},
		),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveEntry counts a received entry.
func (m *Metrics) ObserveEntry(e *entry.Entry) {
	m.received.WithLabelValues(e.Kind().String()).Inc()
	m.levels.WithLabelValues(e.Level().Round().String()).Inc()
}

// ObserveMatch counts an entry that passed the condition.
func (m *Metrics) ObserveMatch() { m.matched.Inc() }

// ObserveAlert counts a hit of rule.
func (m *Metrics) ObserveAlert(rule string) { m.alerts.WithLabelValues(rule).Inc() }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return m.serve(ctx, ln)
}

func (m *Metrics) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Get(ctx).Infow("metrics server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
