package seedlink

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/uuss-seismo/slink2dali/internal/adapters/miniseed"
	"github.com/uuss-seismo/slink2dali/internal/domain"
)

type fakeObservability struct{}

func (fakeObservability) LogInfo(string, ...any)               {}
func (fakeObservability) LogWarn(string, ...any)                {}
func (fakeObservability) LogError(string, error, ...any)        {}
func (fakeObservability) LogCritical(string, error, ...any)     {}
func (fakeObservability) IncCounter(string, string, float64)    {}
func (fakeObservability) SetGauge(string, string, float64)      {}

type fakeReceiver struct {
	mu      sync.Mutex
	packets []*domain.Packet
}

func (r *fakeReceiver) Enqueue(p *domain.Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packets = append(r.packets, p)
}

func (r *fakeReceiver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.packets)
}

// serveOneHandshakeAndPacket answers exactly one HELLO/STATION/SELECT/DATA
// handshake, writes a single encoded record, then closes the connection.
func serveOneHandshakeAndPacket(t *testing.T, conn net.Conn, record miniseed.Record) {
	t.Helper()
	defer conn.Close()
	r := bufio.NewReader(conn)

	readLine := func() string {
		line, err := r.ReadString('\n')
		if err != nil {
			return ""
		}
		return strings.TrimRight(line, "\r\n")
	}
	writeLine := func(s string) {
		conn.Write([]byte(s + "\r\n"))
	}

	readLine() // HELLO
	writeLine("OK SEEDLink stub")
	readLine() // STATION
	writeLine("OK")
	readLine() // SELECT
	writeLine("OK")
	readLine() // DATA
	writeLine("OK")

	writeEnvelope(conn, 1, record.Data)
}

// serveUniStationHandshakeAndPacket answers a HELLO/DATA handshake with no
// STATION or SELECT lines in between, the uni-station negotiation an empty
// selector list requests, then writes a single record.
func serveUniStationHandshakeAndPacket(t *testing.T, conn net.Conn, record miniseed.Record) {
	t.Helper()
	defer conn.Close()
	r := bufio.NewReader(conn)

	readLine := func() string {
		line, err := r.ReadString('\n')
		if err != nil {
			return ""
		}
		return strings.TrimRight(line, "\r\n")
	}
	writeLine := func(s string) {
		conn.Write([]byte(s + "\r\n"))
	}

	readLine() // HELLO
	writeLine("OK SEEDLink stub")
	line := readLine() // DATA, straight after HELLO
	if line != "DATA" {
		t.Errorf("expected DATA immediately after HELLO in uni-station mode, got %q", line)
	}
	writeLine("OK")

	writeEnvelope(conn, 1, record.Data)
}

func TestSourceCollectsOnePacketOverLoopback(t *testing.T) {
	identifier, err := domain.NewStreamIdentifier("UU", "MPU", "HHZ", "01")
	if err != nil {
		t.Fatalf("NewStreamIdentifier: %v", err)
	}
	packet := &domain.Packet{}
	if err := packet.SetIdentifier(identifier); err != nil {
		t.Fatalf("SetIdentifier: %v", err)
	}
	if err := packet.SetSamplingRate(100); err != nil {
		t.Fatalf("SetSamplingRate: %v", err)
	}
	packet.SetDataInt32([]int32{1, 2, 3, 4, 5})

	records, err := miniseed.Encode(packet, miniseed.NewOptions())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		serveOneHandshakeAndPacket(t, conn, records[0])
	}()

	host, portStr, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("Atoi: %v", err)
	}

	opts := Options{
		Host:                  host,
		Port:                  port,
		NetworkTimeout:        2 * time.Second,
		NetworkReconnectDelay: 100 * time.Millisecond,
		Selectors: []StreamSelector{
			{Network: "UU", Station: "MPU", Channel: "HHZ", Location: "01"},
		},
	}
	receiver := &fakeReceiver{}
	source, err := NewSource(opts, receiver, fakeObservability{})
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if err := source.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer source.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if receiver.count() >= 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if receiver.count() != 1 {
		t.Fatalf("receiver collected %d packets, want 1", receiver.count())
	}
}

func TestSourceUniStationModeOmitsStationAndSelect(t *testing.T) {
	identifier, err := domain.NewStreamIdentifier("UU", "MPU", "HHZ", "01")
	if err != nil {
		t.Fatalf("NewStreamIdentifier: %v", err)
	}
	packet := &domain.Packet{}
	if err := packet.SetIdentifier(identifier); err != nil {
		t.Fatalf("SetIdentifier: %v", err)
	}
	if err := packet.SetSamplingRate(100); err != nil {
		t.Fatalf("SetSamplingRate: %v", err)
	}
	packet.SetDataInt32([]int32{1, 2, 3, 4, 5})

	records, err := miniseed.Encode(packet, miniseed.NewOptions())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		serveUniStationHandshakeAndPacket(t, conn, records[0])
	}()

	host, portStr, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("Atoi: %v", err)
	}

	opts := Options{
		Host:                  host,
		Port:                  port,
		NetworkTimeout:        2 * time.Second,
		NetworkReconnectDelay: 100 * time.Millisecond,
		// No Selectors: requests uni-station mode.
	}
	receiver := &fakeReceiver{}
	source, err := NewSource(opts, receiver, fakeObservability{})
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if err := source.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer source.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if receiver.count() >= 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if receiver.count() != 1 {
		t.Fatalf("receiver collected %d packets, want 1", receiver.count())
	}
}
