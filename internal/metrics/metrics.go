// Package metrics exposes confirmation metrics in the Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cosmossdk.io/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "txconfirm"

// Metrics holds the confirmation collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	confirmations          *prometheus.CounterVec
	latency                prometheus.Histogram
	headRetries            prometheus.Counter
	reconstructionFailures prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_total",
			Help:      "Finished confirmations by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confirmation_duration_seconds",
			Help:      "Time from submission to resolution of a confirmation.",
			Buckets:   []float64{1, 3, 6, 12, 24, 36, 60, 120, 300},
		}),
		headRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "head_retries_total",
			Help:      "Heads observed before the execution block was available.",
		}),
		reconstructionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconstruction_failures_total",
			Help:      "Confirmations whose extrinsic was missing from the reconstructed execution order.",
		}),
	}
	m.registry.MustRegister(m.confirmations, m.latency, m.headRetries, m.reconstructionFailures)
	return m
}

// ObserveConfirmation records the outcome and latency of one confirmation.
func (m *Metrics) ObserveConfirmation(outcome string, elapsed time.Duration) {
	m.confirmations.WithLabelValues(outcome).Inc()
	m.latency.Observe(elapsed.Seconds())
}

// IncHeadRetries increments the head retry counter.
func (m *Metrics) IncHeadRetries() {
	m.headRetries.Inc()
}

// IncReconstructionFailures increments the reconstruction failure counter.
func (m *Metrics) IncReconstructionFailures() {
	m.reconstructionFailures.Inc()
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler serving the collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
