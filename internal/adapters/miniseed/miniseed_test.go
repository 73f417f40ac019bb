package miniseed

import (
	"testing"

	"github.com/uuss-seismo/slink2dali/internal/domain"
)

func mustPacket(t *testing.T, samples []int32) *domain.Packet {
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
	p.SetStartTime(1_700_000_000_000_000_000)
	p.SetDataInt32(samples)
	return p
}

func TestEncodeDecodeInt32RoundTrip(t *testing.T) {
	samples := make([]int32, 500)
	for i := range samples {
		samples[i] = int32(i*37 - 1000)
	}
	p := mustPacket(t, samples)

	records, err := Encode(p, NewOptions())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(records) == 0 {
		t.Fatalf("expected at least one record")
	}

	var got []int32
	for _, r := range records {
		out, err := Decode(r.Data)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		got = append(got, out.Samples().Int32...)
	}
	if len(got) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestEncodeSteimRoundTrip(t *testing.T) {
	samples := make([]int32, 300)
	v := int32(0)
	for i := range samples {
		v += int32(3)
		samples[i] = v
	}

	for _, compression := range []Compression{CompressionSteim1, CompressionSteim2} {
		p := mustPacket(t, samples)
		opts := NewOptions()
		opts.Compression = compression

		records, err := Encode(p, opts)
		if err != nil {
			t.Fatalf("Encode (compression=%d): %v", compression, err)
		}

		var got []int32
		for _, r := range records {
			out, err := Decode(r.Data)
			if err != nil {
				t.Fatalf("Decode (compression=%d): %v", compression, err)
			}
			got = append(got, out.Samples().Int32...)
		}
		if len(got) != len(samples) {
			t.Fatalf("compression=%d: decoded %d samples, want %d", compression, len(got), len(samples))
		}
		for i := range samples {
			if got[i] != samples[i] {
				t.Fatalf("compression=%d: sample %d = %d, want %d", compression, i, got[i], samples[i])
			}
		}
	}
}

func TestEncodeSplitsAcrossRecordsWhenTooLarge(t *testing.T) {
	samples := make([]int32, 200)
	for i := range samples {
		samples[i] = int32(i)
	}
	p := mustPacket(t, samples)
	opts := NewOptions()
	opts.MaxRecordLength = 128

	records, err := Encode(p, opts)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(records) < 2 {
		t.Fatalf("expected multiple records at MaxRecordLength=128, got %d", len(records))
	}
	for _, r := range records {
		if len(r.Data) > opts.MaxRecordLength {
			t.Fatalf("record length %d exceeds max %d", len(r.Data), opts.MaxRecordLength)
		}
	}

	total := 0
	for _, r := range records {
		out, err := Decode(r.Data)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		total += out.NumberOfSamples()
	}
	if total != len(samples) {
		t.Fatalf("total decoded samples = %d, want %d", total, len(samples))
	}
}

func TestEncodeRejectsIncompletePacket(t *testing.T) {
	p := &domain.Packet{}
	if _, err := Encode(p, NewOptions()); err == nil {
		t.Fatalf("expected error for incomplete packet")
	}
}

func TestEncodeTimingMatchesEndTime(t *testing.T) {
	samples := make([]int32, 10)
	p := mustPacket(t, samples)

	records, err := Encode(p, NewOptions())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected a single record, got %d", len(records))
	}
	wantEnd, err := p.EndTime()
	if err != nil {
		t.Fatalf("EndTime: %v", err)
	}
	if records[0].EndTime != wantEnd {
		t.Fatalf("record end time = %d, want %d", records[0].EndTime, wantEnd)
	}
	if records[0].StartTime != p.StartTime() {
		t.Fatalf("record start time = %d, want %d", records[0].StartTime, p.StartTime())
	}
}
