// Package slink2dali is the public façade over the bridge's hexagonal
// internals: functional options plus a Conf/Run builder, and type aliases
// so embedders can depend on this package alone instead of reaching into
// internal/.
package slink2dali

import (
	"github.com/uuss-seismo/slink2dali/internal/adapters/datalink"
	"github.com/uuss-seismo/slink2dali/internal/adapters/metrics"
	"github.com/uuss-seismo/slink2dali/internal/adapters/seedlink"
	"github.com/uuss-seismo/slink2dali/internal/app/config"
	"github.com/uuss-seismo/slink2dali/internal/domain"
	"github.com/uuss-seismo/slink2dali/internal/ports"
)

// Config is the full, loaded pipeline configuration.
type Config = config.Config

// Observability is the logging/metrics facade the runtime calls into.
type Observability = ports.Observability

// Task is a long-running component the runtime supervises: a Source or a
// Sink.
type Task = ports.Task

// Source collects packets from a SEEDLink server and hands them to the
// runtime's ingress queue.
type Source = ports.Task

// Sink is a component the runtime fans collected packets out to.
type Sink = ports.PacketSink

// Packet is one stream's decoded data record.
type Packet = domain.Packet

// StreamIdentifier names one SEEDLink stream (network/station/location/channel).
type StreamIdentifier = domain.StreamIdentifier

// SEEDLinkOptions configures the built-in SEEDLink source.
type SEEDLinkOptions = seedlink.Options

// DataLinkOptions configures one built-in DataLink sink.
type DataLinkOptions = datalink.Options

// MetricsCollector aggregates and publishes per-stream packet statistics.
type MetricsCollector = metrics.Collector
