package miniseed

import "encoding/binary"

// steim1Encode and steim2Encode are simplified stand-ins for the real
// Steim1/Steim2 frame compressors described in original_source's
// streamMetrics.hpp neighbors: both replace a run of int32 samples with the
// first sample stored raw followed by a difference sequence, zigzag-encoded
// and varint-packed. Steim1 differences consecutive samples; Steim2
// differences the Steim1 output again (second differences), which
// compresses runs with a roughly constant slope better at the cost of
// compressing noisy data worse. Neither claims bit compatibility with the
// real Steim frame layout; they exist so the encoding matrix has two
// genuinely different compressors to choose between, and each has a
// matching decoder.

func steim1Encode(samples []int32) []byte {
	return encodeDeltas(deltas(samples))
}

func steim1Decode(buf []byte, count int) []int32 {
	return integrate(decodeDeltas(buf, count))
}

func steim2Encode(samples []int32) []byte {
	return encodeDeltas(deltas(deltas(samples)))
}

func steim2Decode(buf []byte, count int) []int32 {
	return integrate(integrate(decodeDeltas(buf, count)))
}

// deltas returns [samples[0], samples[1]-samples[0], samples[2]-samples[1], ...].
func deltas(samples []int32) []int32 {
	out := make([]int32, len(samples))
	if len(samples) == 0 {
		return out
	}
	out[0] = samples[0]
	for i := 1; i < len(samples); i++ {
		out[i] = samples[i] - samples[i-1]
	}
	return out
}

// integrate reverses deltas: running prefix sum.
func integrate(diffs []int32) []int32 {
	out := make([]int32, len(diffs))
	var running int32
	for i, d := range diffs {
		running += d
		out[i] = running
	}
	return out
}

func zigzagEncode(v int32) uint32 {
	return uint32((v << 1) ^ (v >> 31))
}

func zigzagDecode(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

func encodeDeltas(diffs []int32) []byte {
	buf := make([]byte, 0, len(diffs)*2)
	var scratch [binary.MaxVarintLen64]byte
	for _, d := range diffs {
		n := binary.PutUvarint(scratch[:], uint64(zigzagEncode(d)))
		buf = append(buf, scratch[:n]...)
	}
	return buf
}

func decodeDeltas(buf []byte, count int) []int32 {
	out := make([]int32, 0, count)
	for i := 0; i < count && len(buf) > 0; i++ {
		v, n := binary.Uvarint(buf)
		out = append(out, zigzagDecode(uint32(v)))
		buf = buf[n:]
	}
	return out
}
