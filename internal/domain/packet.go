package domain

import (
	"fmt"
	"math"
)

// SampleType tags which variant of SampleBuffer is populated.
type SampleType int

const (
	// SampleTypeUnknown marks a packet with no sample buffer set.
	SampleTypeUnknown SampleType = iota
	SampleTypeInt32
	SampleTypeFloat32
	SampleTypeFloat64
	SampleTypeText
)

func (t SampleType) String() string {
	switch t {
	case SampleTypeInt32:
		return "int32"
	case SampleTypeFloat32:
		return "float32"
	case SampleTypeFloat64:
		return "float64"
	case SampleTypeText:
		return "text"
	default:
		return "unknown"
	}
}

// SampleBuffer is a tagged union over the four sample representations a
// Packet may carry. Exactly one of the typed slices is populated at a time;
// callers switch on Type before touching the corresponding slice. This
// mirrors the original C++ Packet::DataType enum without resorting to an
// interface/dynamic-dispatch hierarchy, so encoder dispatch tables stay
// exhaustive and checkable.
type SampleBuffer struct {
	Type    SampleType
	Int32   []int32
	Float32 []float32
	Float64 []float64
	Text    []byte
}

// Len returns the number of samples (or bytes, for text) in the buffer.
func (b SampleBuffer) Len() int {
	switch b.Type {
	case SampleTypeInt32:
		return len(b.Int32)
	case SampleTypeFloat32:
		return len(b.Float32)
	case SampleTypeFloat64:
		return len(b.Float64)
	case SampleTypeText:
		return len(b.Text)
	default:
		return 0
	}
}

// Packet is the pipeline's unit of work: a stream identifier, a sampling
// rate, a start time, and exactly one sample buffer, plus a derived end
// time.
type Packet struct {
	identifier      StreamIdentifier
	hasIdentifier   bool
	samplingRate    float64
	hasSamplingRate bool
	startTimeNanos  int64
	samples         SampleBuffer
}

// SetIdentifier sets the packet's stream identifier. The identifier must
// already be fully set (network/station/channel/location).
func (p *Packet) SetIdentifier(identifier StreamIdentifier) error {
	if _, err := identifier.Canonical(); err != nil {
		return fmt.Errorf("packet identifier incomplete: %w", err)
	}
	p.identifier = identifier
	p.hasIdentifier = true
	return nil
}

// Identifier returns the packet's stream identifier.
func (p *Packet) Identifier() (StreamIdentifier, error) {
	if !p.hasIdentifier {
		return StreamIdentifier{}, fmt.Errorf("identifier: %w", ErrNotSet)
	}
	return p.identifier, nil
}

// HasIdentifier reports whether the identifier was set.
func (p *Packet) HasIdentifier() bool { return p.hasIdentifier }

// SetSamplingRate sets the sampling rate in Hz. Returns ErrInvalidArgument
// if rate is not strictly positive.
func (p *Packet) SetSamplingRate(rate float64) error {
	if !(rate > 0) {
		return fmt.Errorf("sampling rate %v is not positive: %w", rate, ErrInvalidArgument)
	}
	p.samplingRate = rate
	p.hasSamplingRate = true
	return nil
}

// SamplingRate returns the sampling rate in Hz.
func (p *Packet) SamplingRate() (float64, error) {
	if !p.hasSamplingRate {
		return 0, fmt.Errorf("sampling rate: %w", ErrNotSet)
	}
	return p.samplingRate, nil
}

// HasSamplingRate reports whether the sampling rate was set.
func (p *Packet) HasSamplingRate() bool { return p.hasSamplingRate }

// SetStartTime sets the start time in nanoseconds since the Unix epoch.
func (p *Packet) SetStartTime(nanos int64) {
	p.startTimeNanos = nanos
}

// SetStartTimeSeconds sets the start time from a UTC offset in seconds
// since the Unix epoch, rounding to the nearest nanosecond.
func (p *Packet) SetStartTimeSeconds(seconds float64) {
	p.startTimeNanos = int64(math.Round(seconds * 1e9))
}

// StartTime returns the start time in nanoseconds since the Unix epoch.
func (p *Packet) StartTime() int64 { return p.startTimeNanos }

// EndTime returns start_time + round(((n-1) / rate) * 1e9) nanoseconds when
// there is at least one sample and a positive rate; otherwise it returns
// ErrNotSet when either the rate or the sample count is missing.
func (p *Packet) EndTime() (int64, error) {
	n := p.samples.Len()
	if n < 1 {
		return 0, fmt.Errorf("number of samples: %w", ErrNotSet)
	}
	if !p.hasSamplingRate {
		return 0, fmt.Errorf("sampling rate: %w", ErrNotSet)
	}
	return p.startTimeNanos + durationNanos(n, p.samplingRate), nil
}

func durationNanos(n int, rate float64) int64 {
	if n < 1 {
		return 0
	}
	return int64(math.Round(float64(n-1) / rate * 1e9))
}

// SetDataInt32 sets the sample buffer to a copy of data. Setting an empty
// buffer is a no-op: the packet's variant is left unchanged.
func (p *Packet) SetDataInt32(data []int32) {
	if len(data) == 0 {
		return
	}
	p.samples = SampleBuffer{Type: SampleTypeInt32, Int32: append([]int32(nil), data...)}
}

// SetDataFloat32 sets the sample buffer to a copy of data.
func (p *Packet) SetDataFloat32(data []float32) {
	if len(data) == 0 {
		return
	}
	p.samples = SampleBuffer{Type: SampleTypeFloat32, Float32: append([]float32(nil), data...)}
}

// SetDataFloat64 sets the sample buffer to a copy of data.
func (p *Packet) SetDataFloat64(data []float64) {
	if len(data) == 0 {
		return
	}
	p.samples = SampleBuffer{Type: SampleTypeFloat64, Float64: append([]float64(nil), data...)}
}

// SetDataText sets the sample buffer to a copy of data.
func (p *Packet) SetDataText(data []byte) {
	if len(data) == 0 {
		return
	}
	p.samples = SampleBuffer{Type: SampleTypeText, Text: append([]byte(nil), data...)}
}

// Samples returns the packet's sample buffer.
func (p *Packet) Samples() SampleBuffer { return p.samples }

// NumberOfSamples returns the number of samples currently set.
func (p *Packet) NumberOfSamples() int { return p.samples.Len() }

// DataType returns the type tag of the current sample buffer.
func (p *Packet) DataType() SampleType { return p.samples.Type }

// IsComplete reports whether the packet is ready for encoding: the
// identifier is fully set, the rate is positive, and there is at least one
// sample.
func (p *Packet) IsComplete() bool {
	return p.hasIdentifier && p.hasSamplingRate && p.samples.Len() >= 1
}

// SumSamples returns the sum of sample values for numeric variants. Returns
// ErrUnsupported (wrapped as an invalid operation) for the text variant.
func (p *Packet) SumSamples() (float64, error) {
	switch p.samples.Type {
	case SampleTypeInt32:
		var sum float64
		for _, v := range p.samples.Int32 {
			sum += float64(v)
		}
		return sum, nil
	case SampleTypeFloat32:
		var sum float64
		for _, v := range p.samples.Float32 {
			sum += float64(v)
		}
		return sum, nil
	case SampleTypeFloat64:
		var sum float64
		for _, v := range p.samples.Float64 {
			sum += v
		}
		return sum, nil
	case SampleTypeText:
		return 0, fmt.Errorf("cannot sum text samples: %w", ErrUnsupported)
	default:
		return 0, fmt.Errorf("no samples set: %w", ErrNotSet)
	}
}

// SumSquaredSamples returns the sum of squared sample values for numeric
// variants. Returns ErrUnsupported for the text variant.
func (p *Packet) SumSquaredSamples() (float64, error) {
	switch p.samples.Type {
	case SampleTypeInt32:
		var sum float64
		for _, v := range p.samples.Int32 {
			f := float64(v)
			sum += f * f
		}
		return sum, nil
	case SampleTypeFloat32:
		var sum float64
		for _, v := range p.samples.Float32 {
			f := float64(v)
			sum += f * f
		}
		return sum, nil
	case SampleTypeFloat64:
		var sum float64
		for _, v := range p.samples.Float64 {
			sum += v * v
		}
		return sum, nil
	case SampleTypeText:
		return 0, fmt.Errorf("cannot sum-square text samples: %w", ErrUnsupported)
	default:
		return 0, fmt.Errorf("no samples set: %w", ErrNotSet)
	}
}
