package miniseed

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/uuss-seismo/slink2dali/internal/domain"
)

// chunk is one record's worth of already-encoded sample bytes, plus the
// span of samples it covers so the caller can stamp per-record start/end
// times.
type chunk struct {
	data      []byte
	count     int
	startTime int64
	endTime   int64
}

// chunkSamples splits buf into records whose encoded byte length never
// exceeds available, returning the encoding tag actually used (Compression
// only applies to Int32; the other three types have one representation).
func chunkSamples(buf domain.SampleBuffer, compression Compression, available int) ([]chunk, Encoding, error) {
	switch buf.Type {
	case domain.SampleTypeInt32:
		return chunkInt32(buf.Int32, compression, available)
	case domain.SampleTypeFloat32:
		return chunkFixed(len(buf.Float32), 4, available, func(lo, hi int) []byte {
			return encodeFloat32(buf.Float32[lo:hi])
		}), EncodingFloat32, nil
	case domain.SampleTypeFloat64:
		return chunkFixed(len(buf.Float64), 8, available, func(lo, hi int) []byte {
			return encodeFloat64(buf.Float64[lo:hi])
		}), EncodingFloat64, nil
	case domain.SampleTypeText:
		return chunkFixed(len(buf.Text), 1, available, func(lo, hi int) []byte {
			return append([]byte(nil), buf.Text[lo:hi]...)
		}), EncodingText, nil
	default:
		return nil, 0, fmt.Errorf("sample type %s: %w", buf.Type, domain.ErrUnsupported)
	}
}

// chunkFixed splits a run of n fixed-width samples into records of
// available/width samples each, calling encode once per record range.
func chunkFixed(n, width, available int, encode func(lo, hi int) []byte) []chunk {
	perRecord := available / width
	if perRecord < 1 {
		perRecord = 1
	}
	var chunks []chunk
	for lo := 0; lo < n; lo += perRecord {
		hi := lo + perRecord
		if hi > n {
			hi = n
		}
		chunks = append(chunks, chunk{data: encode(lo, hi), count: hi - lo})
	}
	return chunks
}

// chunkInt32 splits an int32 run into records, shrinking the candidate
// chunk size when a compressor's output overruns the available space
// (pathological, high-entropy input can make Steim-flavored deltas wider
// than the raw samples they replace).
func chunkInt32(samples []int32, compression Compression, available int) ([]chunk, Encoding, error) {
	if compression == CompressionNone {
		return chunkFixed(len(samples), 4, available, func(lo, hi int) []byte {
			return encodeInt32(samples[lo:hi])
		}), EncodingInt32, nil
	}

	encode := steim1Encode
	tag := EncodingSteim1
	if compression == CompressionSteim2 {
		encode = steim2Encode
		tag = EncodingSteim2
	}

	candidate := available / 4
	if candidate < 1 {
		candidate = 1
	}
	var chunks []chunk
	for lo := 0; lo < len(samples); {
		size := candidate
		if lo+size > len(samples) {
			size = len(samples) - lo
		}
		for size > 1 && len(encode(samples[lo:lo+size])) > available {
			size /= 2
		}
		encoded := encode(samples[lo : lo+size])
		if len(encoded) > available {
			return nil, 0, fmt.Errorf("single sample does not fit in %d bytes: %w", available, domain.ErrEncodingFailed)
		}
		chunks = append(chunks, chunk{data: encoded, count: size})
		lo += size
	}
	return chunks, tag, nil
}

func encodeInt32(samples []int32) []byte {
	out := make([]byte, len(samples)*4)
	for i, v := range samples {
		binary.BigEndian.PutUint32(out[i*4:], uint32(v))
	}
	return out
}

func decodeInt32(buf []byte) []int32 {
	out := make([]int32, len(buf)/4)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(buf[i*4:]))
	}
	return out
}

func encodeFloat32(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, v := range samples {
		binary.BigEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func decodeFloat32(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(buf[i*4:]))
	}
	return out
}

func encodeFloat64(samples []float64) []byte {
	out := make([]byte, len(samples)*8)
	for i, v := range samples {
		binary.BigEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}

func decodeFloat64(buf []byte) []float64 {
	out := make([]float64, len(buf)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.BigEndian.Uint64(buf[i*8:]))
	}
	return out
}
