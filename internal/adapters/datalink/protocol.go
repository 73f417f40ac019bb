package datalink

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/uuss-seismo/slink2dali/internal/domain"
)

var writeMagic = [2]byte{'D', 'L'}

// writeFrame sends one WRITE frame: 2-byte magic, 2-byte stream name
// length, the stream name, 4-byte payload length, and the payload. The
// ring server never acknowledges a WRITE, matching dataLinkClient.hpp's
// fire-and-forget publish contract; a write error is the only feedback the
// caller gets.
func writeFrame(conn net.Conn, streamName string, payload []byte) error {
	header := make([]byte, 0, 2+2+len(streamName)+4)
	header = append(header, writeMagic[:]...)
	var nameLen [2]byte
	binary.BigEndian.PutUint16(nameLen[:], uint16(len(streamName)))
	header = append(header, nameLen[:]...)
	header = append(header, streamName...)
	var dataLen [4]byte
	binary.BigEndian.PutUint32(dataLen[:], uint32(len(payload)))
	header = append(header, dataLen[:]...)

	if _, err := conn.Write(header); err != nil {
		return fmt.Errorf("write frame header: %w", wrapTransient(err))
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", wrapTransient(err))
	}
	return nil
}

func wrapTransient(err error) error {
	return fmt.Errorf("%v: %w", err, domain.ErrNetworkTransient)
}

// readFrame is the server-side counterpart used only by tests, which stand
// in for a ring server and must parse what Sink writes.
func readFrame(r io.Reader) (streamName string, payload []byte, err error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return "", nil, err
	}
	if header[0] != writeMagic[0] || header[1] != writeMagic[1] {
		return "", nil, fmt.Errorf("bad frame magic")
	}
	nameBuf := make([]byte, binary.BigEndian.Uint16(header[2:4]))
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return "", nil, err
	}
	var dataLen [4]byte
	if _, err := io.ReadFull(r, dataLen[:]); err != nil {
		return "", nil, err
	}
	payload = make([]byte, binary.BigEndian.Uint32(dataLen[:]))
	if _, err := io.ReadFull(r, payload); err != nil {
		return "", nil, err
	}
	return string(nameBuf), payload, nil
}
