// Package slink2dali re-exports pkg/slink2dali's public API at the module
// root, mirroring root api.go, so callers can depend on
// github.com/uuss-seismo/slink2dali directly instead of its pkg subpackage.
package slink2dali

import (
	base "github.com/uuss-seismo/slink2dali/pkg/slink2dali"
)

// Re-exported errors for convenience.
var (
	ErrInvalidArgument = base.ErrInvalidArgument
	ErrNetworkTransient = base.ErrNetworkTransient
	ErrNetworkFatal = base.ErrNetworkFatal
	ErrFatal = base.ErrFatal
)

// Type aliases so consumers can import github.com/uuss-seismo/slink2dali
// directly.
type (
	Config = base.Config
	Observability = base.Observability
	Task = base.Task
	Source = base.Source
	Sink = base.Sink
	Packet = base.Packet
	StreamIdentifier = base.StreamIdentifier
	SEEDLinkOptions = base.SEEDLinkOptions
	DataLinkOptions = base.DataLinkOptions
	MetricsCollector = base.MetricsCollector
	Flow = base.Flow
	FlowOption = base.FlowOption
	Runtime = base.Runtime
	RuntimeOption = base.RuntimeOption
)

// LoadConfig reads and validates the YAML configuration file at path.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Conf loads YAML from disk and returns a Flow builder.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

// ConfFromConfig bootstraps a Flow from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

// WithFlowOptions appends RuntimeOption values during Conf.
func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

// NewRuntime bootstraps a Runtime directly from a loaded Config.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

// WithSource injects a custom packet source in place of the built-in
// SEEDLink client.
func WithSource(s Source) RuntimeOption {
	return base.WithSource(s)
}

// WithSinks injects a custom set of sinks in place of the built-in DataLink
// publishers.
func WithSinks(sinks ...Sink) RuntimeOption {
	return base.WithSinks(sinks...)
}

// WithObservability overrides the default log+Prometheus observability
// backend.
func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

// WithMetricsCollector overrides the default per-stream metrics collector.
func WithMetricsCollector(c *MetricsCollector) RuntimeOption {
	return base.WithMetricsCollector(c)
}
