package seedlink

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/uuss-seismo/slink2dali/internal/domain"
)

// CollectStatus classifies the outcome of one non-blocking collect
// attempt, matching the Packet/TooLarge/NoPacket/Terminate/Other dispatch
// described by seedLinkClient.hpp's collect loop.
type CollectStatus int

const (
	StatusPacket CollectStatus = iota
	StatusNoPacket
	StatusTooLarge
	StatusTerminate
	StatusOther
)

func (s CollectStatus) String() string {
	switch s {
	case StatusPacket:
		return "packet"
	case StatusNoPacket:
		return "no_packet"
	case StatusTooLarge:
		return "too_large"
	case StatusTerminate:
		return "terminate"
	default:
		return "other"
	}
}

// maxEnvelopeBytes bounds a single collected record; a declared length
// beyond this is reported as StatusTooLarge and discarded rather than
// buffered whole.
const maxEnvelopeBytes = 1 << 20

// idleReadPoll bounds every collectOne read attempt so the caller's
// cooperative-stop check runs at this cadence even on an idle stream,
// instead of blocking for the full network timeout on one read.
const idleReadPoll = 50 * time.Millisecond

var envelopeMagic = [2]byte{'S', 'L'}

// handshake performs HELLO / STATION / SELECT / DATA against conn,
// following seedLinkClient.hpp's negotiation sequence. It returns an error
// wrapping ErrNetworkTransient on any I/O failure, so the reconnect ladder
// in Source treats it like a dropped connection.
func handshake(conn net.Conn, selectors []StreamSelector, timeout time.Duration) (*bufio.Reader, error) {
	conn.SetDeadline(time.Now().Add(timeout))
	r := bufio.NewReader(conn)

	if err := writeLine(conn, "HELLO"); err != nil {
		return nil, err
	}
	if _, err := readLine(r); err != nil {
		return nil, fmt.Errorf("hello response: %w", err)
	}

	byStation := groupByStation(selectors)
	for _, group := range byStation {
		if err := writeLine(conn, fmt.Sprintf("STATION %s %s", group.station, group.network)); err != nil {
			return nil, err
		}
		if err := expectOK(r); err != nil {
			return nil, fmt.Errorf("station %s.%s: %w", group.network, group.station, err)
		}
		for _, sel := range group.selectors {
			if err := writeLine(conn, fmt.Sprintf("SELECT %s", sel.selectorString())); err != nil {
				return nil, err
			}
			if err := expectOK(r); err != nil {
				return nil, fmt.Errorf("select %s.%s %s: %w", group.network, group.station, sel.selectorString(), err)
			}
		}
	}

	if err := writeLine(conn, "DATA"); err != nil {
		return nil, err
	}
	if err := expectOK(r); err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	return r, nil
}

type stationGroup struct {
	network   string
	station   string
	selectors []StreamSelector
}

func groupByStation(selectors []StreamSelector) []stationGroup {
	var order []string
	groups := make(map[string]*stationGroup)
	for _, sel := range selectors {
		key := sel.Network + "." + sel.Station
		g, ok := groups[key]
		if !ok {
			g = &stationGroup{network: sel.Network, station: sel.Station}
			groups[key] = g
			order = append(order, key)
		}
		g.selectors = append(g.selectors, sel)
	}
	out := make([]stationGroup, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	return out
}

func writeLine(conn net.Conn, line string) error {
	if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
		return fmt.Errorf("write %q: %w", line, wrapTransient(err))
	}
	return nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", wrapTransient(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func expectOK(r *bufio.Reader) error {
	line, err := readLine(r)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(line, "OK") {
		return fmt.Errorf("unexpected response %q: %w", line, domain.ErrNetworkTransient)
	}
	return nil
}

func wrapTransient(err error) error {
	return fmt.Errorf("%v: %w", err, domain.ErrNetworkTransient)
}

// collectOne reads one framed record from r: 2-byte magic, 8-byte
// big-endian sequence number, 4-byte big-endian length, then that many
// payload bytes (a miniseed-encoded record). A read deadline exceeded
// yields StatusNoPacket; a closed connection yields StatusTerminate.
// Callers pass idleReadPoll rather than the configured network timeout, so
// an idle stream never blocks a read past that poll interval.
func collectOne(conn net.Conn, r *bufio.Reader, deadline time.Duration) (CollectStatus, uint64, []byte, error) {
	conn.SetReadDeadline(time.Now().Add(deadline))

	var header [14]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return classifyReadError(err)
	}
	if header[0] != envelopeMagic[0] || header[1] != envelopeMagic[1] {
		return StatusOther, 0, nil, fmt.Errorf("bad envelope magic: %w", domain.ErrNetworkTransient)
	}
	seq := binary.BigEndian.Uint64(header[2:10])
	length := binary.BigEndian.Uint32(header[10:14])

	if length > maxEnvelopeBytes {
		if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
			status, _, _, cerr := classifyReadError(err)
			return status, seq, nil, cerr
		}
		return StatusTooLarge, seq, nil, nil
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return classifyReadError(err)
	}
	return StatusPacket, seq, payload, nil
}

func classifyReadError(err error) (CollectStatus, uint64, []byte, error) {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusNoPacket, 0, nil, nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return StatusTerminate, 0, nil, fmt.Errorf("connection closed: %w", domain.ErrNetworkTransient)
	}
	return StatusOther, 0, nil, wrapTransient(err)
}

// writeEnvelope frames payload for a stub/test server: real deployments
// only ever read this format, but tests use it to synthesize a server side
// of the connection.
func writeEnvelope(w io.Writer, seq uint64, payload []byte) error {
	var header [14]byte
	header[0], header[1] = envelopeMagic[0], envelopeMagic[1]
	binary.BigEndian.PutUint64(header[2:10], seq)
	binary.BigEndian.PutUint32(header[10:14], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
