package seedlink

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/uuss-seismo/slink2dali/internal/adapters/miniseed"
	"github.com/uuss-seismo/slink2dali/internal/ports"
)

// Source is a SEEDLink client Task: it dials a ring server, negotiates the
// configured selectors, and hands decoded packets to receiver until
// Stop is called. Connection failures are logged and retried on
// NetworkReconnectDelay rather than surfaced through Err, matching
// seedLinkClient.hpp's own retry-until-told-otherwise behavior. Err never
// carries a value: a second Start returns its error directly, decode
// failures are logged and skipped, and the channel is closed when the run
// loop exits after Stop.
type Source struct {
	opts     Options
	receiver ports.PacketReceiver
	obs      ports.Observability
	state    *stateStore

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	errCh   chan error
	wg      sync.WaitGroup
	seq     uint64
}

// NewSource validates opts and returns a Source ready to Start.
func NewSource(opts Options, receiver ports.PacketReceiver, obs ports.Observability) (*Source, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Source{
		opts:     opts,
		receiver: receiver,
		obs:      obs,
		state:    newStateStore(opts.StateFile),
	}, nil
}

func (s *Source) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("seedlink source already started")
	}
	s.started = true
	s.stopCh = make(chan struct{})
	s.errCh = make(chan error, 1)
	s.mu.Unlock()

	if s.opts.DeleteStateOnStart {
		if err := s.state.Delete(); err != nil {
			s.obs.LogWarn("seedlink: delete state on start failed", "err", err)
		}
	}
	if seq, err := s.state.Load(); err != nil {
		s.obs.LogWarn("seedlink: load state failed", "err", err)
	} else {
		s.seq = seq
	}

	s.wg.Add(1)
	go s.run()
	return nil
}

func (s *Source) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()

	if s.opts.DeleteStateOnStop {
		if err := s.state.Delete(); err != nil {
			s.obs.LogWarn("seedlink: delete state on stop failed", "err", err)
		}
		return
	}
	if err := s.state.Save(s.seq); err != nil {
		s.obs.LogWarn("seedlink: save state on stop failed", "err", err)
	}
}

func (s *Source) Err() <-chan error { return s.errCh }

func (s *Source) addr() string {
	return fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
}

func (s *Source) run() {
	defer s.wg.Done()
	defer close(s.errCh)

	packetsSinceSave := 0
	for {
		if s.stopped() {
			return
		}

		conn, err := net.DialTimeout("tcp", s.addr(), s.opts.NetworkTimeout)
		if err != nil {
			s.obs.LogWarn("seedlink: dial failed", "addr", s.addr(), "err", err)
			if !s.sleepOrStop(s.opts.NetworkReconnectDelay) {
				return
			}
			continue
		}

		r, err := handshake(conn, s.opts.Selectors, s.opts.NetworkTimeout)
		if err != nil {
			conn.Close()
			s.obs.LogWarn("seedlink: handshake failed", "addr", s.addr(), "err", err)
			if !s.sleepOrStop(s.opts.NetworkReconnectDelay) {
				return
			}
			continue
		}

		s.collectUntilDisconnect(conn, r, &packetsSinceSave)
		conn.Close()

		if s.stopped() {
			return
		}
		if !s.sleepOrStop(s.opts.NetworkReconnectDelay) {
			return
		}
	}
}

// collectUntilDisconnect polls conn at idleReadPoll cadence so Stop is
// never blocked behind one long read. lastActivity tracks the time of the
// last received packet; if NetworkTimeout is positive and that long
// elapses with nothing received, the connection is treated as dead and
// dropped so the caller's reconnect loop dials fresh.
func (s *Source) collectUntilDisconnect(conn net.Conn, r *bufio.Reader, packetsSinceSave *int) {
	lastActivity := time.Now()
	for {
		if s.stopped() {
			return
		}
		status, seq, payload, err := collectOne(conn, r, idleReadPoll)
		switch status {
		case StatusPacket:
			lastActivity = time.Now()
			packet, derr := miniseed.Decode(payload)
			if derr != nil {
				s.obs.LogError("seedlink: unpack failed", derr)
				continue
			}
			s.receiver.Enqueue(packet)
			s.seq = seq
			*packetsSinceSave++
			if *packetsSinceSave >= s.opts.StateFileUpdateInterval {
				if err := s.state.Save(s.seq); err != nil {
					s.obs.LogWarn("seedlink: periodic state save failed", "err", err)
				}
				*packetsSinceSave = 0
			}
		case StatusNoPacket:
			if s.opts.NetworkTimeout > 0 && time.Since(lastActivity) > s.opts.NetworkTimeout {
				s.obs.LogWarn("seedlink: network timeout, no packets received", "timeout", s.opts.NetworkTimeout)
				return
			}
		case StatusTooLarge:
			lastActivity = time.Now()
			s.obs.LogWarn("seedlink: record exceeded max size, discarded")
		case StatusTerminate:
			s.obs.LogWarn("seedlink: connection terminated by peer", "err", err)
			return
		case StatusOther:
			s.obs.LogError("seedlink: collect error", err)
			return
		}
	}
}

func (s *Source) stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *Source) sleepOrStop(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

var _ ports.Task = (*Source)(nil)
