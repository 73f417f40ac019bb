// Package miniseed implements a self-contained record codec used to move
// Packets to and from the wire. It is grounded on the record-oriented
// structure described by original_source's packet.cpp (a fixed record
// carries one stream's identifier, sample rate, start time, and a typed
// sample run), framed with a fixed-size header in front of a variable
// body. It is not byte-compatible with the real MiniSEED format: encoder
// and decoder here only need to agree with each other, since records never
// leave this pipeline in a form another program parses.
package miniseed

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/uuss-seismo/slink2dali/internal/domain"
)

// Encoding names the on-wire representation of a record's sample run.
type Encoding byte

const (
	EncodingInt32 Encoding = iota
	EncodingFloat32
	EncodingFloat64
	EncodingText
	EncodingSteim1
	EncodingSteim2
)

func (e Encoding) String() string {
	switch e {
	case EncodingInt32:
		return "INT32"
	case EncodingFloat32:
		return "FLOAT32"
	case EncodingFloat64:
		return "FLOAT64"
	case EncodingText:
		return "TEXT"
	case EncodingSteim1:
		return "STEIM1"
	case EncodingSteim2:
		return "STEIM2"
	default:
		return "UNKNOWN"
	}
}

// Compression selects the integer compressor applied to Int32 sample runs.
// It has no effect on the other three sample types.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionSteim1
	CompressionSteim2
)

// Options configures Encode. The zero value is invalid; use NewOptions.
type Options struct {
	// MaxRecordLength bounds each emitted record, header included. Values
	// outside [1, 4096] are clamped to the default of 4096.
	MaxRecordLength int
	// UseV3 tags emitted records with the v3 magic instead of v2. Both
	// magics decode identically; the flag exists so callers can exercise
	// the two record-version code paths a real deployment would carry.
	UseV3 bool
	// Compression selects the Int32 integer compressor. Ignored for the
	// other three sample types, which are always written uncompressed.
	Compression Compression
}

// NewOptions returns Options with MaxRecordLength clamped to its default.
func NewOptions() Options {
	return Options{MaxRecordLength: defaultMaxRecordLength}
}

const defaultMaxRecordLength = 4096

func (o Options) maxRecordLength() int {
	if o.MaxRecordLength < 1 || o.MaxRecordLength > 4096 {
		return defaultMaxRecordLength
	}
	return o.MaxRecordLength
}

var magicV2 = [4]byte{'M', 'S', 'G', '2'}
var magicV3 = [4]byte{'M', 'S', 'G', '3'}

// header is the fixed-size preamble of every record. sidLen and dataLen
// describe the two variable-length sections that immediately follow it on
// the wire: the stream identifier's DataLinkName and the encoded sample
// bytes.
type header struct {
	magic      [4]byte
	encoding   Encoding
	numSamples uint32
	sampleRate uint64 // math.Float64bits(rate)
	startTime  int64
	sidLen     uint16
	dataLen    uint32
}

const headerLen = 4 + 1 + 4 + 8 + 8 + 2 + 4 // = 31

// Record is one encoded MiniSEED-flavored record: a self-describing byte
// buffer plus the time span it covers, so a DataLink sink can advertise
// span metadata without re-parsing the payload.
type Record struct {
	Data      []byte
	StartTime int64
	EndTime   int64
	Encoding  Encoding
}

// Encode splits packet's sample run into one or more Records, each no
// larger than opts.MaxRecordLength bytes. It returns ErrInvalidArgument if
// packet is not IsComplete, and ErrUnsupported if packet's sample type has
// no encoding (there are none today; the check exists for forward
// compatibility with future SampleType values).
func Encode(packet *domain.Packet, opts Options) ([]Record, error) {
	if packet == nil || !packet.IsComplete() {
		return nil, fmt.Errorf("packet is not complete: %w", domain.ErrInvalidArgument)
	}
	identifier, err := packet.Identifier()
	if err != nil {
		return nil, fmt.Errorf("packet identifier: %w", err)
	}
	sid, err := identifier.DataLinkName()
	if err != nil {
		return nil, fmt.Errorf("packet identifier: %w", err)
	}
	rate, err := packet.SamplingRate()
	if err != nil {
		return nil, err
	}
	maxLen := opts.maxRecordLength()
	headerAndSID := headerLen + len(sid)
	if headerAndSID+minPayloadBytes > maxLen {
		return nil, fmt.Errorf("max record length %d too small for stream identifier of %d bytes: %w",
			maxLen, len(sid), domain.ErrEncodingFailed)
	}
	available := maxLen - headerAndSID

	samples := packet.Samples()
	chunks, encoding, err := chunkSamples(samples, opts.Compression, available)
	if err != nil {
		return nil, err
	}

	packetStart := packet.StartTime()
	records := make([]Record, 0, len(chunks))
	offset := 0
	for _, c := range chunks {
		startTime := packetStart + durationNanos(offset, rate)
		endTime := packetStart + durationNanos(offset+c.count-1, rate)

		buf := make([]byte, 0, headerAndSID+len(c.data))
		buf = appendHeader(buf, header{
			magic:      magicFor(opts.UseV3),
			encoding:   encoding,
			numSamples: uint32(c.count),
			sampleRate: math.Float64bits(rate),
			startTime:  startTime,
			sidLen:     uint16(len(sid)),
			dataLen:    uint32(len(c.data)),
		})
		buf = append(buf, sid...)
		buf = append(buf, c.data...)

		records = append(records, Record{
			Data:      buf,
			StartTime: startTime,
			EndTime:   endTime,
			Encoding:  encoding,
		})
		offset += c.count
	}
	if offset != samples.Len() {
		return nil, fmt.Errorf("packed %d of %d samples: %w", offset, samples.Len(), domain.ErrEncodingFailed)
	}
	return records, nil
}

// minPayloadBytes is the smallest sample payload Encode will ever attempt
// to fit in a record: one sample of the widest fixed-size type.
const minPayloadBytes = 8

// durationNanos returns the nanosecond offset of the nth sample (0-based)
// in a run sampled at rate Hz.
func durationNanos(n int, rate float64) int64 {
	if n < 1 {
		return 0
	}
	return int64(math.Round(float64(n) / rate * 1e9))
}

func magicFor(useV3 bool) [4]byte {
	if useV3 {
		return magicV3
	}
	return magicV2
}

func appendHeader(buf []byte, h header) []byte {
	var scratch [headerLen]byte
	copy(scratch[0:4], h.magic[:])
	scratch[4] = byte(h.encoding)
	binary.BigEndian.PutUint32(scratch[5:9], h.numSamples)
	binary.BigEndian.PutUint64(scratch[9:17], h.sampleRate)
	binary.BigEndian.PutUint64(scratch[17:25], uint64(h.startTime))
	binary.BigEndian.PutUint16(scratch[25:27], h.sidLen)
	binary.BigEndian.PutUint32(scratch[27:31], h.dataLen)
	return append(buf, scratch[:]...)
}

func parseHeader(buf []byte) (header, []byte, error) {
	if len(buf) < headerLen {
		return header{}, nil, fmt.Errorf("record shorter than header: %w", domain.ErrUnpackFailed)
	}
	var h header
	copy(h.magic[:], buf[0:4])
	if h.magic != magicV2 && h.magic != magicV3 {
		return header{}, nil, fmt.Errorf("bad record magic: %w", domain.ErrUnpackFailed)
	}
	h.encoding = Encoding(buf[4])
	h.numSamples = binary.BigEndian.Uint32(buf[5:9])
	h.sampleRate = binary.BigEndian.Uint64(buf[9:17])
	h.startTime = int64(binary.BigEndian.Uint64(buf[17:25]))
	h.sidLen = binary.BigEndian.Uint16(buf[25:27])
	h.dataLen = binary.BigEndian.Uint32(buf[27:31])
	return h, buf[headerLen:], nil
}
