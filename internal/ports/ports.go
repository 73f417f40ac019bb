// Package ports declares the interfaces the coordinator depends on so real
// network adapters and test fakes are interchangeable, following a
// hexagonal ports-and-adapters layout.
package ports

import "github.com/uuss-seismo/slink2dali/internal/domain"

// Task is a long-running goroutine the coordinator supervises: the SEEDLink
// source and each DataLink sink implement it. The coordinator's own fan-out
// loop is a plain goroutine, not a Task.
type Task interface {
	// Start launches the task's goroutine(s) and returns once they are
	// running (or immediately with an error if setup failed).
	Start() error
	// Stop requests cooperative termination and blocks until the task's
	// goroutine(s) have exited.
	Stop()
	// Err returns a channel that receives at most one value: a non-nil
	// error if the task exited on its own (a Fatal condition the
	// coordinator must propagate), or is closed with no value on a clean
	// Stop-initiated exit.
	Err() <-chan error
}

// PacketReceiver accepts a decoded Packet. The coordinator's ingress queue
// and every DataLink sink's outbound queue both satisfy it, so the SEEDLink
// source and the fan-out loop can hand off packets without knowing which
// kind of queue is on the other end.
type PacketReceiver interface {
	Enqueue(packet *domain.Packet)
}

// PacketSink receives Packets from the fan-out loop. It combines Task and
// PacketReceiver; DataLink sinks and test fakes both implement it.
type PacketSink interface {
	Task
	PacketReceiver
}

// Observability is the logging/metrics facade the coordinator, source, and
// sinks call into: leveled logging plus named per-stream counters and
// gauges.
type Observability interface {
	LogInfo(msg string, keyvals ...any)
	LogWarn(msg string, keyvals ...any)
	LogError(msg string, err error, keyvals ...any)
	LogCritical(msg string, err error, keyvals ...any)

	IncCounter(stream, name string, delta float64)
	SetGauge(stream, name string, value float64)
}
