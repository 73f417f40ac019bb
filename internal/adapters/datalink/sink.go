package datalink

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/uuss-seismo/slink2dali/internal/adapters/miniseed"
	"github.com/uuss-seismo/slink2dali/internal/adapters/queue"
	"github.com/uuss-seismo/slink2dali/internal/domain"
	"github.com/uuss-seismo/slink2dali/internal/ports"
)

// Sink is a DataLink client Task: it owns a bounded drop-oldest queue of
// packets, connects to a ring server, and writes each packet as one or
// more no-ack WRITE frames. A run of maxConsecutiveErrors write failures
// without an intervening success drops the connection, and the sink
// re-dials through the reconnect ladder; it reports a Fatal error through
// Err only once that ladder is exhausted.
type Sink struct {
	opts   Options
	obs    ports.Observability
	queue  *queue.BoundedQueue[*domain.Packet]
	encOpt miniseed.Options

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	errCh   chan error
	wg      sync.WaitGroup
}

// NewSink validates opts and returns a Sink ready to Start.
func NewSink(opts Options, obs ports.Observability) (*Sink, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	encOpt := miniseed.NewOptions()
	encOpt.MaxRecordLength = opts.RecordSize
	encOpt.UseV3 = opts.WriteMSEED3
	return &Sink{
		opts:   opts,
		obs:    obs,
		queue:  queue.NewBoundedQueue[*domain.Packet](opts.MaxQueueSize),
		encOpt: encOpt,
	}, nil
}

// Enqueue adds packet to the outbound queue, evicting the oldest queued
// packet first if the queue is at MaxQueueSize.
func (s *Sink) Enqueue(packet *domain.Packet) {
	s.queue.Enqueue(packet)
	if failed := s.queue.FailedToEnqueue(); failed > 0 {
		s.obs.SetGauge(s.opts.Identifier, "queue_dropped_total", float64(failed))
	}
}

func (s *Sink) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("datalink sink already started")
	}
	s.started = true
	s.stopCh = make(chan struct{})
	s.errCh = make(chan error, 1)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()
	return nil
}

func (s *Sink) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Sink) Err() <-chan error { return s.errCh }

func (s *Sink) addr() string {
	return fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
}

func (s *Sink) run() {
	defer s.wg.Done()
	defer close(s.errCh)

	attempt := 0
	for {
		if s.stopped() {
			return
		}

		conn, err := net.DialTimeout("tcp", s.addr(), 10*time.Second)
		if err != nil {
			s.obs.LogWarn("datalink: dial failed", "addr", s.addr(), "err", err)
			if !s.stepLadder(&attempt) {
				return
			}
			continue
		}
		if err := identify(conn, s.opts.Identifier); err != nil {
			conn.Close()
			s.obs.LogWarn("datalink: identify failed", "err", err)
			if !s.stepLadder(&attempt) {
				return
			}
			continue
		}
		attempt = 0

		fatal := s.drainUntilError(conn)
		conn.Close()
		if fatal != nil {
			s.errCh <- fatal
			return
		}
		if s.stopped() {
			return
		}
	}
}

// drainUntilError pops packets from the queue and writes them until
// maxConsecutiveErrors writes in a row have failed or the sink is stopped.
// A failed write is logged and counted, and the loop moves on to the next
// record. It returns nil in both cases; run then closes the connection
// and, unless the sink was stopped, re-dials through the reconnect ladder.
func (s *Sink) drainUntilError(conn net.Conn) error {
	consecutiveErrors := 0
	for {
		if s.stopped() {
			return nil
		}
		packet, ok := s.queue.Dequeue()
		if !ok {
			select {
			case <-s.stopCh:
				return nil
			case <-time.After(queueIdleSleep):
			}
			continue
		}

		records, err := miniseed.Encode(packet, s.encOpt)
		if err != nil {
			s.obs.LogError("datalink: encode failed", err)
			continue
		}
		identifier, err := packet.Identifier()
		if err != nil {
			s.obs.LogError("datalink: packet missing identifier", err)
			continue
		}
		streamName, err := identifier.DataLinkName()
		if err != nil {
			s.obs.LogError("datalink: packet identifier incomplete", err)
			continue
		}

		written := 0
		for _, record := range records {
			if err := writeFrame(conn, streamName, record.Data); err != nil {
				consecutiveErrors++
				s.obs.LogWarn("datalink: write failed", "stream", streamName, "err", err, "consecutive_errors", consecutiveErrors)
				if consecutiveErrors >= maxConsecutiveErrors {
					return nil
				}
				continue
			}
			written++
		}
		if written > 0 {
			consecutiveErrors = 0
			s.obs.IncCounter(s.opts.Identifier, "records_written_total", float64(written))
		}
	}
}

// stepLadder walks the reconnect ladder one step after a failed connection
// attempt: it sleeps for the next ladder delay and advances *attempt, or,
// once the ladder is exhausted, reports Fatal through errCh and returns
// false. It also returns false without reporting anything if Stop fires
// during the sleep.
func (s *Sink) stepLadder(attempt *int) bool {
	if *attempt >= len(reconnectLadder) {
		s.errCh <- fmt.Errorf("could not reconnect after %d attempts: %w", len(reconnectLadder), domain.ErrFatal)
		return false
	}
	if !s.sleepOrStop(reconnectLadder[*attempt]) {
		return false
	}
	*attempt++
	return true
}

func identify(conn net.Conn, identifier string) error {
	_, err := conn.Write([]byte("ID " + identifier + "\r\n"))
	if err != nil {
		return wrapTransient(err)
	}
	return nil
}

func (s *Sink) stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *Sink) sleepOrStop(d time.Duration) bool {
	if d <= 0 {
		return !s.stopped()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

var _ ports.PacketSink = (*Sink)(nil)
