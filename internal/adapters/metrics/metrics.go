// Package metrics aggregates per-stream packet statistics and exposes them
// through Prometheus, replacing static named counters
// (internal/adapters/observability.PromObs) with per-stream CounterVec and
// GaugeVec instances keyed by the "stream" label, since this pipeline has
// an open-ended set of streams rather than a fixed sensor roster. Running
// sums and the Bessel-corrected variance/std computation are grounded on
// original_source/include/uSEEDLinkToRingServer/streamMetrics.hpp.
package metrics

import (
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/uuss-seismo/slink2dali/internal/domain"
)

// expiryWindow matches streamMetrics.hpp's six-month staleness threshold
// for classifying a packet as "expired" rather than "valid".
const expiryWindow = 6 * 30 * 24 * time.Hour

// slot holds the running sums for one stream between TabulateAndReset
// calls. All fields are guarded by mu.
type slot struct {
	mu sync.Mutex

	total uint64
	valid uint64
	future uint64
	expired uint64

	// mostRecentEnd is the highest end time (nanoseconds since epoch) seen
	// among packets already classified valid for this stream. A packet
	// that is neither future nor expired and whose end time does not
	// advance past it is a duplicate or retransmission: it still counts
	// toward total but is excluded from every per-class bucket and from
	// the running sums.
	mostRecentEnd int64

	sampleCount uint64
	sumValue float64
	sumSquared float64
	sumLatencySecs float64
}

// Collector owns one slot per stream and the Prometheus vectors their
// snapshots are published to.
type Collector struct {
	mu sync.Mutex
	slots map[string]*slot

	total *prometheus.CounterVec
	valid *prometheus.CounterVec
	future *prometheus.CounterVec
	expired *prometheus.CounterVec

	mean *prometheus.GaugeVec
	stddev *prometheus.GaugeVec
	latency *prometheus.GaugeVec
}

// NewCollector builds and registers the per-stream Prometheus vectors.
func NewCollector() *Collector {
	c := &Collector{
		slots: make(map[string]*slot),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slink2dali_packets_total",
			Help: "Total packets observed per stream.",
		}, []string{"stream"}),
		valid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slink2dali_packets_valid_total",
			Help: "Packets classified as valid (not future, not expired, end time past the stream's most recent valid end time) per stream.",
		}, []string{"stream"}),
		future: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slink2dali_packets_future_total",
			Help: "Packets with an end time after collection time per stream.",
		}, []string{"stream"}),
		expired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slink2dali_packets_expired_total",
			Help: "Packets older than the expiry window per stream.",
		}, []string{"stream"}),
		mean: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "slink2dali_sample_mean",
			Help: "Mean sample value over the last tabulation interval per stream.",
		}, []string{"stream"}),
		stddev: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "slink2dali_sample_stddev",
			Help: "Bessel-corrected sample standard deviation over the last tabulation interval per stream.",
		}, []string{"stream"}),
		latency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "slink2dali_latency_seconds",
			Help: "Average collection latency (now - packet end time) over the last tabulation interval per stream.",
		}, []string{"stream"}),
	}
	prometheus.MustRegister(c.total, c.valid, c.future, c.expired, c.mean, c.stddev, c.latency)
	return c
}

func (c *Collector) slotFor(stream string) *slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[stream]
	if !ok {
		s = &slot{}
		c.slots[stream] = s
	}
	return s
}

// Update classifies packet's freshness relative to now and accumulates its
// samples into the running sums for its stream.
func (c *Collector) Update(packet *domain.Packet, now time.Time) error {
	identifier, err := packet.Identifier()
	if err != nil {
		return err
	}
	key, err := identifier.MetricsKey()
	if err != nil {
		return err
	}
	endNanos, err := packet.EndTime()
	if err != nil {
		return err
	}
	sum, err := packet.SumSamples()
	if err != nil {
		return err
	}
	sumSquared, err := packet.SumSquaredSamples()
	if err != nil {
		return err
	}

	end := time.Unix(0, endNanos)
	latency := now.Sub(end)

	s := c.slotFor(key)
	s.mu.Lock()
	s.total++
	c.total.WithLabelValues(key).Inc()
	switch {
	case end.After(now):
		s.future++
		c.future.WithLabelValues(key).Inc()
	case now.Sub(end) > expiryWindow:
		s.expired++
		c.expired.WithLabelValues(key).Inc()
	case endNanos <= s.mostRecentEnd:
		// Duplicate or retransmitted packet: already counted in total
		// above, but left out of every per-class bucket and running sum.
	default:
		s.valid++
		c.valid.WithLabelValues(key).Inc()
		s.mostRecentEnd = endNanos
		s.sampleCount += uint64(packet.NumberOfSamples())
		s.sumValue += sum
		s.sumSquared += sumSquared
		s.sumLatencySecs += latency.Seconds()
	}
	s.mu.Unlock()
	return nil
}

// Snapshot is one stream's tabulated statistics over the interval since the
// previous TabulateAndReset call.
type Snapshot struct {
	Stream string
	Total uint64
	Valid uint64
	Future uint64
	Expired uint64
	Mean float64
	StdDev float64
	AverageLatency time.Duration
}

// TabulateAndReset computes the mean, Bessel-corrected standard deviation
// and average latency for every stream seen so far, publishes them to the
// Prometheus gauges, and resets each slot's counters and running sums so
// the next interval starts clean. interval is used
// as AverageLatency for a stream with no valid samples this interval,
// since there is no latency sample to average.
func (c *Collector) TabulateAndReset(interval time.Duration) []Snapshot {
	c.mu.Lock()
	keys := make([]string, 0, len(c.slots))
	for k := range c.slots {
		keys = append(keys, k)
	}
	slots := make(map[string]*slot, len(c.slots))
	for k, v := range c.slots {
		slots[k] = v
	}
	c.mu.Unlock()

	snapshots := make([]Snapshot, 0, len(keys))
	for _, key := range keys {
		s := slots[key]
		s.mu.Lock()
		snap := Snapshot{Stream: key, Total: s.total, Valid: s.valid, Future: s.future, Expired: s.expired}
		if s.sampleCount > 0 {
			n := float64(s.sampleCount)
			mean := s.sumValue / n
			variance := s.sumSquared/n - mean*mean
			if variance < 0 {
				variance = 0
			}
			var stdDev float64
			if s.sampleCount > 1 {
				besselCorrection := n / (n - 1)
				stdDev = math.Sqrt(variance) * besselCorrection
			}
			snap.Mean = mean
			snap.StdDev = stdDev
			snap.AverageLatency = time.Duration(s.sumLatencySecs / float64(s.valid) * float64(time.Second))
		} else {
			snap.AverageLatency = interval
		}
		s.total, s.valid, s.future, s.expired = 0, 0, 0, 0
		s.sampleCount, s.sumValue, s.sumSquared, s.sumLatencySecs = 0, 0, 0, 0
		s.mu.Unlock()

		c.mean.WithLabelValues(key).Set(snap.Mean)
		c.stddev.WithLabelValues(key).Set(snap.StdDev)
		c.latency.WithLabelValues(key).Set(snap.AverageLatency.Seconds())
		snapshots = append(snapshots, snap)
	}
	return snapshots
}
