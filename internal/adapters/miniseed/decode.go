package miniseed

import (
	"fmt"
	"math"
	"strings"

	"github.com/uuss-seismo/slink2dali/internal/domain"
)

// Decode parses one encoded record back into a Packet. It is the inverse of
// Encode and is exercised both by round-trip tests and by the SEEDLink
// source's incoming-record unpacker, which treats every collected SEEDLink
// packet as one of these records.
func Decode(buf []byte) (*domain.Packet, error) {
	h, rest, err := parseHeader(buf)
	if err != nil {
		return nil, err
	}
	if len(rest) < int(h.sidLen) {
		return nil, fmt.Errorf("record shorter than declared stream identifier: %w", domain.ErrUnpackFailed)
	}
	sid := string(rest[:h.sidLen])
	rest = rest[h.sidLen:]
	if len(rest) < int(h.dataLen) {
		return nil, fmt.Errorf("record shorter than declared sample data: %w", domain.ErrUnpackFailed)
	}
	data := rest[:h.dataLen]

	identifier, err := parseDataLinkName(sid)
	if err != nil {
		return nil, fmt.Errorf("stream identifier %q: %w", sid, err)
	}

	packet := &domain.Packet{}
	if err := packet.SetIdentifier(identifier); err != nil {
		return nil, err
	}
	rate := math.Float64frombits(h.sampleRate)
	if err := packet.SetSamplingRate(rate); err != nil {
		return nil, fmt.Errorf("record sample rate: %w", err)
	}
	packet.SetStartTime(h.startTime)

	count := int(h.numSamples)
	switch h.encoding {
	case EncodingInt32:
		packet.SetDataInt32(decodeInt32(data))
	case EncodingFloat32:
		packet.SetDataFloat32(decodeFloat32(data))
	case EncodingFloat64:
		packet.SetDataFloat64(decodeFloat64(data))
	case EncodingText:
		packet.SetDataText(data)
	case EncodingSteim1:
		packet.SetDataInt32(steim1Decode(data, count))
	case EncodingSteim2:
		packet.SetDataInt32(steim2Decode(data, count))
	default:
		return nil, fmt.Errorf("record encoding %d: %w", h.encoding, domain.ErrUnpackFailed)
	}
	if packet.NumberOfSamples() != count {
		return nil, fmt.Errorf("decoded %d samples, header declared %d: %w", packet.NumberOfSamples(), count, domain.ErrUnpackFailed)
	}
	return packet, nil
}

// parseDataLinkName reverses StreamIdentifier.DataLinkName's
// "NET_STA_LOC_CHA/MSEED" rendering.
func parseDataLinkName(sid string) (domain.StreamIdentifier, error) {
	name, _, ok := strings.Cut(sid, "/")
	if !ok {
		return domain.StreamIdentifier{}, fmt.Errorf("missing /MSEED suffix: %w", domain.ErrUnpackFailed)
	}
	parts := strings.Split(name, "_")
	if len(parts) != 4 {
		return domain.StreamIdentifier{}, fmt.Errorf("expected 4 underscore-delimited fields, got %d: %w", len(parts), domain.ErrUnpackFailed)
	}
	network, station, location, channel := parts[0], parts[1], parts[2], parts[3]
	var identifier domain.StreamIdentifier
	if err := identifier.SetNetwork(network); err != nil {
		return domain.StreamIdentifier{}, err
	}
	if err := identifier.SetStation(station); err != nil {
		return domain.StreamIdentifier{}, err
	}
	if err := identifier.SetChannel(channel); err != nil {
		return domain.StreamIdentifier{}, err
	}
	if err := identifier.SetLocationCode(location); err != nil {
		return domain.StreamIdentifier{}, err
	}
	return identifier, nil
}
