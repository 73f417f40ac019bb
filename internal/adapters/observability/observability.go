// Package observability implements ports.Observability on top of the
// standard library log package and github.com/prometheus/client_golang,
// generalizing internal/adapters/observability.PromObs (static
// named counters/gauges, log.Printf at the call site) to the generic
// stream-keyed counters/gauges the coordinator and sources/sinks call into.
package observability

import (
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
)

// Level orders the four log severities this package understands.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
	LevelCritical
)

func parseLevel(s string) Level {
	switch s {
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "critical", "fatal":
		return LevelCritical
	default:
		return LevelInfo
	}
}

// LogObs logs through the standard library log package at or above a
// configured minimum level, and publishes counters/gauges keyed by
// (stream, name) label pairs to a pair of Prometheus vectors, registering
// its instruments up front.
type LogObs struct {
	minLevel Level
	logger *log.Logger
	counters *prometheus.CounterVec
	gauges *prometheus.GaugeVec
}

// NewLogObs builds a LogObs filtering below minLevel ("info", "warn",
// "error", or "critical"; unrecognized values behave like "info") and
// registers its Prometheus instruments against the default registerer.
func NewLogObs(minLevel string) *LogObs {
	counters := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slink2dali_events_total",
		Help: "Named counter events emitted by the bridge, labeled by stream and event name.",
	}, []string{"stream", "name"})
	gauges := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slink2dali_gauge",
		Help: "Named gauge values emitted by the bridge, labeled by stream and gauge name.",
	}, []string{"stream", "name"})
	prometheus.MustRegister(counters, gauges)

	return &LogObs{
		minLevel: parseLevel(minLevel),
		logger: log.New(os.Stderr, "", log.LstdFlags),
		counters: counters,
		gauges: gauges,
	}
}

func (o *LogObs) LogInfo(msg string, keyvals ...any) {
	if o.minLevel > LevelInfo {
		return
	}
	o.logger.Printf("INFO: %s %v", msg, keyvals)
}

func (o *LogObs) LogWarn(msg string, keyvals ...any) {
	if o.minLevel > LevelWarn {
		return
	}
	o.logger.Printf("WARN: %s %v", msg, keyvals)
}

func (o *LogObs) LogError(msg string, err error, keyvals ...any) {
	if o.minLevel > LevelError {
		return
	}
	o.logger.Printf("ERROR: %s: %v %v", msg, err, keyvals)
}

func (o *LogObs) LogCritical(msg string, err error, keyvals ...any) {
	o.logger.Printf("CRITICAL: %s: %v %v", msg, err, keyvals)
}

func (o *LogObs) IncCounter(stream, name string, delta float64) {
	o.counters.WithLabelValues(stream, name).Add(delta)
}

func (o *LogObs) SetGauge(stream, name string, value float64) {
	o.gauges.WithLabelValues(stream, name).Set(value)
}
