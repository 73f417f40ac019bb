// Package pipeline hosts the coordinator that owns the ingress queue, fans
// out collected packets to every configured sink, and supervises the
// SEEDLink source and DataLink sinks for a Fatal exit. Grounded on a
// collect-then-forward goroutine shape and a dedicated polling goroutine
// watching worker health, generalized from one sink to N and from a
// channel-based queue to the shared adapters/queue.BoundedQueue.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/uuss-seismo/slink2dali/internal/adapters/metrics"
	"github.com/uuss-seismo/slink2dali/internal/adapters/queue"
	"github.com/uuss-seismo/slink2dali/internal/domain"
	"github.com/uuss-seismo/slink2dali/internal/ports"
)

// DefaultIngressQueueSize is the coordinator's bounded ingress queue
// capacity when Options.IngressQueueSize is left unset.
const DefaultIngressQueueSize = 8192

// DefaultTabulateInterval is how often stream metrics are tabulated and
// reset when Options.TabulateInterval is left unset.
const DefaultTabulateInterval = 60 * time.Second

// errPollInterval is the poll cadence for each Task's Err channel.
const errPollInterval = 5 * time.Millisecond

// fanoutIdleSleep is how long the fan-out loop sleeps after finding the
// ingress queue empty before polling it again.
const fanoutIdleSleep = 25 * time.Millisecond

// Options configures a Coordinator.
type Options struct {
	IngressQueueSize int
	TabulateInterval time.Duration
}

func (o *Options) applyDefaults() {
	if o.IngressQueueSize <= 0 {
		o.IngressQueueSize = DefaultIngressQueueSize
	}
	if o.TabulateInterval <= 0 {
		o.TabulateInterval = DefaultTabulateInterval
	}
}

// Coordinator owns the ingress queue and fans out every packet the source
// collects to every registered sink, tracking per-stream metrics along the
// way.
type Coordinator struct {
	opts    Options
	source  ports.Task
	sinks   []ports.PacketSink
	ingress *queue.BoundedQueue[*domain.Packet]
	metrics *metrics.Collector
	obs     ports.Observability
}

// NewCoordinator returns a Coordinator wired to source and sinks. The
// source must enqueue into Ingress() -- callers construct the source with
// the coordinator's ingress queue as its PacketReceiver before calling
// NewCoordinator.
func NewCoordinator(opts Options, source ports.Task, sinks []ports.PacketSink, metricsCollector *metrics.Collector, obs ports.Observability, ingress *queue.BoundedQueue[*domain.Packet]) *Coordinator {
	opts.applyDefaults()
	return &Coordinator{
		opts:    opts,
		source:  source,
		sinks:   sinks,
		ingress: ingress,
		metrics: metricsCollector,
		obs:     obs,
	}
}

// Ingress returns the queue the source should enqueue collected packets
// into.
func (c *Coordinator) Ingress() *queue.BoundedQueue[*domain.Packet] { return c.ingress }

// Run starts the source and every sink, fans out packets until ctx is
// cancelled or any Task reports a Fatal error, then stops every component
// in reverse start order and returns. A Fatal error from any Task is
// returned to the caller; a context cancellation returns nil.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.source.Start(); err != nil {
		return fmt.Errorf("start source: %w", err)
	}
	started := []ports.Task{c.source}
	defer func() {
		for i := len(started) - 1; i >= 0; i-- {
			started[i].Stop()
		}
	}()

	for _, sink := range c.sinks {
		if err := sink.Start(); err != nil {
			return fmt.Errorf("start sink: %w", err)
		}
		started = append(started, sink)
	}

	fanoutDone := make(chan struct{})
	fanoutStop := make(chan struct{})
	go c.fanout(fanoutStop, fanoutDone)
	defer func() {
		close(fanoutStop)
		<-fanoutDone
	}()

	tabulateStop := make(chan struct{})
	tabulateDone := make(chan struct{})
	go c.tabulateLoop(tabulateStop, tabulateDone)
	defer func() {
		close(tabulateStop)
		<-tabulateDone
	}()

	ticker := time.NewTicker(errPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.pollForFatal(); err != nil {
				c.obs.LogCritical("pipeline: fatal task error, shutting down", err)
				return err
			}
		}
	}
}

func (c *Coordinator) pollForFatal() error {
	select {
	case err, ok := <-c.source.Err():
		if ok && err != nil {
			return fmt.Errorf("source: %w", err)
		}
	default:
	}
	for _, sink := range c.sinks {
		select {
		case err, ok := <-sink.Err():
			if ok && err != nil {
				return fmt.Errorf("sink: %w", err)
			}
		default:
		}
	}
	return nil
}

// fanout drains the ingress queue, updates per-stream metrics, and hands
// each packet to every sink. Packets are immutable once collected, so the
// same pointer is safely shared across all sinks rather than copied.
func (c *Coordinator) fanout(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}
		packet, ok := c.ingress.Dequeue()
		if !ok {
			select {
			case <-stop:
				return
			case <-time.After(fanoutIdleSleep):
			}
			continue
		}
		if err := c.metrics.Update(packet, time.Now()); err != nil {
			c.obs.LogWarn("pipeline: metrics update failed", "err", err)
		}
		for _, sink := range c.sinks {
			sink.Enqueue(packet)
		}
	}
}

func (c *Coordinator) tabulateLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.opts.TabulateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, snap := range c.metrics.TabulateAndReset(c.opts.TabulateInterval) {
				c.obs.LogInfo("pipeline: stream metrics",
					"stream", snap.Stream,
					"total", snap.Total,
					"valid", snap.Valid,
					"future", snap.Future,
					"expired", snap.Expired,
					"mean", snap.Mean,
					"stddev", snap.StdDev,
					"avg_latency", snap.AverageLatency,
				)
			}
		}
	}
}
