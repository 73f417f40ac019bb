package slink2dali

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uuss-seismo/slink2dali/internal/adapters/datalink"
	"github.com/uuss-seismo/slink2dali/internal/adapters/metrics"
	"github.com/uuss-seismo/slink2dali/internal/adapters/observability"
	"github.com/uuss-seismo/slink2dali/internal/adapters/queue"
	"github.com/uuss-seismo/slink2dali/internal/adapters/seedlink"
	"github.com/uuss-seismo/slink2dali/internal/app/pipeline"
	"github.com/uuss-seismo/slink2dali/internal/domain"
	"github.com/uuss-seismo/slink2dali/internal/ports"
)

// RuntimeOption customizes the dependencies NewRuntime wires up, mirroring
// a functional-options runtime builder.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	source           Source
	sinks            []Sink
	observability    Observability
	metricsCollector *MetricsCollector
}

// WithSource injects a custom packet source in place of the built-in
// SEEDLink client.
func WithSource(s Source) RuntimeOption {
	return func(o *runtimeOverrides) { o.source = s }
}

// WithSinks injects a custom set of sinks in place of the built-in DataLink
// publishers (one per cfg.DataLink entry).
func WithSinks(sinks ...Sink) RuntimeOption {
	return func(o *runtimeOverrides) { o.sinks = sinks }
}

// WithObservability overrides the default log+Prometheus observability
// backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) { o.observability = obs }
}

// WithMetricsCollector overrides the default per-stream metrics collector.
func WithMetricsCollector(c *MetricsCollector) RuntimeOption {
	return func(o *runtimeOverrides) { o.metricsCollector = c }
}

// Runtime wires the SEEDLink source, DataLink sinks, stream metrics, and
// pipeline coordinator together and exposes the /metrics + /healthz HTTP
// mux alongside it.
type Runtime struct {
	cfg         *Config
	obs         ports.Observability
	coordinator *pipeline.Coordinator
	metricsSrv  *http.Server
}

// NewRuntime bootstraps the default adapters (SEEDLink source, DataLink
// sinks, Prometheus-backed observability and stream metrics) from cfg.
// RuntimeOption values override any of them, e.g. for tests or embedding
// this pipeline with a different transport.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewLogObs(cfg.General.LogLevel)
	}

	metricsCollector := overrides.metricsCollector
	if metricsCollector == nil {
		metricsCollector = metrics.NewCollector()
	}

	ingress := queue.NewBoundedQueue[*domain.Packet](pipeline.DefaultIngressQueueSize)

	source := overrides.source
	if source == nil {
		src, err := seedlink.NewSource(cfg.SEEDLink.ToOptions(), ingress, obs)
		if err != nil {
			return nil, fmt.Errorf("build seedlink source: %w", err)
		}
		source = src
	}

	sinks := overrides.sinks
	if sinks == nil {
		for i, dl := range cfg.DataLink {
			snk, err := datalink.NewSink(dl.ToOptions(), obs)
			if err != nil {
				return nil, fmt.Errorf("build datalink sink %d: %w", i, err)
			}
			sinks = append(sinks, snk)
		}
	}
	if len(sinks) == 0 {
		return nil, fmt.Errorf("at least one sink is required")
	}

	coordinator := pipeline.NewCoordinator(pipeline.Options{}, source, sinks, metricsCollector, obs, ingress)

	return &Runtime{
		cfg:         cfg,
		obs:         obs,
		coordinator: coordinator,
	}, nil
}

// Run starts the /metrics + /healthz HTTP server and the pipeline
// coordinator, then blocks until ctx is cancelled or a component reports a
// Fatal error. It always shuts the HTTP server down before returning.
func (r *Runtime) Run(ctx context.Context) error {
	r.startMetrics()
	defer r.shutdownMetrics()

	return r.coordinator.Run(ctx)
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}

	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.obs.LogError("metrics server exited", err)
		}
	}()
}

func (r *Runtime) shutdownMetrics() {
	if r.metricsSrv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.metricsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		r.obs.LogWarn("metrics server shutdown error", "err", err)
	}
}
