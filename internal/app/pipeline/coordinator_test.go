package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/uuss-seismo/slink2dali/internal/adapters/metrics"
	"github.com/uuss-seismo/slink2dali/internal/adapters/queue"
	"github.com/uuss-seismo/slink2dali/internal/domain"
	"github.com/uuss-seismo/slink2dali/internal/ports"
)

type fakeObservability struct{}

func (fakeObservability) LogInfo(string, ...any)            {}
func (fakeObservability) LogWarn(string, ...any)             {}
func (fakeObservability) LogError(string, error, ...any)     {}
func (fakeObservability) LogCritical(string, error, ...any)  {}
func (fakeObservability) IncCounter(string, string, float64) {}
func (fakeObservability) SetGauge(string, string, float64)   {}

type fakeTask struct {
	mu      sync.Mutex
	errCh   chan error
	started bool
	stopped bool
}

func newFakeTask() *fakeTask { return &fakeTask{errCh: make(chan error, 1)} }

func (f *fakeTask) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}
func (f *fakeTask) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}
func (f *fakeTask) Err() <-chan error { return f.errCh }

type fakeSink struct {
	*fakeTask
	mu      sync.Mutex
	packets []*domain.Packet
}

func newFakeSink() *fakeSink { return &fakeSink{fakeTask: newFakeTask()} }

func (s *fakeSink) Enqueue(p *domain.Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packets = append(s.packets, p)
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.packets)
}

func testPacket(t *testing.T) *domain.Packet {
	t.Helper()
	identifier, err := domain.NewStreamIdentifier("UU", "MPU", "HHZ", "01")
	if err != nil {
		t.Fatalf("NewStreamIdentifier: %v", err)
	}
	p := &domain.Packet{}
	if err := p.SetIdentifier(identifier); err != nil {
		t.Fatalf("SetIdentifier: %v", err)
	}
	if err := p.SetSamplingRate(100); err != nil {
		t.Fatalf("SetSamplingRate: %v", err)
	}
	p.SetDataInt32([]int32{1, 2, 3})
	return p
}

func TestCoordinatorFansOutToAllSinks(t *testing.T) {
	source := newFakeTask()
	sinkA := newFakeSink()
	sinkB := newFakeSink()
	ingress := queue.NewBoundedQueue[*domain.Packet](16)

	c := NewCoordinator(Options{TabulateInterval: time.Hour}, source,
		[]ports.PacketSink{sinkA, sinkB}, metrics.NewCollector(), fakeObservability{}, ingress)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- c.Run(ctx) }()

	ingress.Enqueue(testPacket(t))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sinkA.count() >= 1 && sinkB.count() >= 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if sinkA.count() != 1 || sinkB.count() != 1 {
		t.Fatalf("sinkA=%d sinkB=%d, want 1 each", sinkA.count(), sinkB.count())
	}

	cancel()
	select {
	case err := <-runDone:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after context cancellation")
	}

	if !source.stopped {
		t.Fatalf("source was not stopped")
	}
	if !sinkA.stopped || !sinkB.stopped {
		t.Fatalf("sinks were not stopped")
	}
}

func TestCoordinatorPropagatesFatalSourceError(t *testing.T) {
	source := newFakeTask()
	ingress := queue.NewBoundedQueue[*domain.Packet](16)
	c := NewCoordinator(Options{TabulateInterval: time.Hour}, source, nil, metrics.NewCollector(), fakeObservability{}, ingress)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- c.Run(ctx) }()

	source.errCh <- domain.ErrFatal

	select {
	case err := <-runDone:
		if err == nil {
			t.Fatalf("Run returned nil, want a Fatal error")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after fatal source error")
	}
}
