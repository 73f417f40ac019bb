// Package datalink implements the DataLink sink: a reconnecting TCP client
// that publishes encoded MiniSEED-flavored records to a ring server with no
// acknowledgement, backed by a bounded drop-oldest queue. Grounded on
// original_source/include/uSEEDLinkToRingServer/{dataLinkClient,
// dataLinkClientOptions}.hpp for the option set and write-without-ack
// contract, and on internal/adapters/sink.TimescaleSink for
// the shape of a Task that owns its own queue-draining goroutine.
package datalink

import (
	"fmt"
	"time"

	"github.com/uuss-seismo/slink2dali/internal/domain"
)

const (
	DefaultPort = 16000
	DefaultMaxQueueSize = 8192
	DefaultRecordSize = 512
	MaxIdentifierLength = 199
	maxConsecutiveErrors = 32
	queueIdleSleep = 15 * time.Millisecond
)

// reconnectLadder is the fixed backoff schedule between connection
// attempts: immediate retry, then 5s, then 30s, then 60s. A connection
// still failing after the last step is reported as Fatal.
var reconnectLadder = []time.Duration{0, 5 * time.Second, 30 * time.Second, 60 * time.Second}

// Options configures a Sink.
type Options struct {
	Host string
	Port int
	Identifier string

	MaxQueueSize int
	RecordSize int
	WriteMSEED3 bool
}

func (o *Options) ApplyDefaults() {
	if o.Port <= 0 {
		o.Port = DefaultPort
	}
	if o.MaxQueueSize <= 0 {
		o.MaxQueueSize = DefaultMaxQueueSize
	}
	if o.RecordSize <= 0 || o.RecordSize > 512 {
		o.RecordSize = DefaultRecordSize
	}
}

func (o *Options) Validate() error {
	if o.Host == "" {
		return fmt.Errorf("host is required: %w", domain.ErrInvalidArgument)
	}
	if o.Identifier == "" {
		return fmt.Errorf("identifier is required: %w", domain.ErrInvalidArgument)
	}
	if len(o.Identifier) > MaxIdentifierLength {
		return fmt.Errorf("identifier exceeds %d characters: %w", MaxIdentifierLength, domain.ErrInvalidArgument)
	}
	if o.RecordSize < 1 || o.RecordSize > 512 {
		return fmt.Errorf("record size %d out of range [1, 512]: %w", o.RecordSize, domain.ErrInvalidArgument)
	}
	return nil
}
