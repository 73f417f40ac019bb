package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/uuss-seismo/slink2dali/internal/domain"
)

func buildPacket(t *testing.T, samples []int32, start time.Time) *domain.Packet {
	t.Helper()
	identifier, err := domain.NewStreamIdentifier("UU", "MPU", "HHZ", "01")
	if err != nil {
		t.Fatalf("NewStreamIdentifier: %v", err)
	}
	p := &domain.Packet{}
	if err := p.SetIdentifier(identifier); err != nil {
		t.Fatalf("SetIdentifier: %v", err)
	}
	if err := p.SetSamplingRate(1); err != nil {
		t.Fatalf("SetSamplingRate: %v", err)
	}
	p.SetStartTime(start.UnixNano())
	p.SetDataInt32(samples)
	return p
}

func TestCollectorTabulateComputesBesselCorrectedStdDev(t *testing.T) {
	c := NewCollector()
	now := time.Unix(1_700_000_000, 0)

	samples := []int32{2, 4, 4, 4, 5, 5, 7, 9}
	if err := c.Update(buildPacket(t, samples, now.Add(-10*time.Second)), now); err != nil {
		t.Fatalf("Update: %v", err)
	}

	snapshots := c.TabulateAndReset(time.Minute)
	if len(snapshots) != 1 {
		t.Fatalf("len(snapshots) = %d, want 1", len(snapshots))
	}
	snap := snapshots[0]
	if snap.Valid != 1 {
		t.Fatalf("Valid = %d, want 1", snap.Valid)
	}
	if math.Abs(snap.Mean-5) > 1e-9 {
		t.Fatalf("Mean = %v, want 5", snap.Mean)
	}
	wantStdDev := 16.0 / 7.0
	if math.Abs(snap.StdDev-wantStdDev) > 1e-9 {
		t.Fatalf("StdDev = %v, want %v", snap.StdDev, wantStdDev)
	}
}

func TestCollectorExcludesRetransmittedPacketFromValidBucket(t *testing.T) {
	c := NewCollector()
	now := time.Unix(1_700_000_000, 0)

	first := buildPacket(t, []int32{1, 2, 3}, now.Add(-10*time.Second))
	if err := c.Update(first, now); err != nil {
		t.Fatalf("Update first: %v", err)
	}
	// Same packet delivered again after a reconnect: its end time does not
	// advance past the stream's most recent end time, so it must not be
	// double-counted as valid or re-accumulated into the running sums.
	retransmit := buildPacket(t, []int32{1, 2, 3}, now.Add(-10*time.Second))
	if err := c.Update(retransmit, now); err != nil {
		t.Fatalf("Update retransmit: %v", err)
	}

	snapshots := c.TabulateAndReset(time.Minute)
	if len(snapshots) != 1 {
		t.Fatalf("len(snapshots) = %d, want 1", len(snapshots))
	}
	snap := snapshots[0]
	if snap.Total != 2 {
		t.Fatalf("Total = %d, want 2", snap.Total)
	}
	if snap.Valid != 1 {
		t.Fatalf("Valid = %d, want 1", snap.Valid)
	}
	if math.Abs(snap.Mean-2) > 1e-9 {
		t.Fatalf("Mean = %v, want 2 (retransmit must not be re-summed)", snap.Mean)
	}
}

func TestCollectorClassifiesFutureAndExpired(t *testing.T) {
	c := NewCollector()
	now := time.Unix(1_700_000_000, 0)

	future := buildPacket(t, []int32{1, 2, 3}, now.Add(time.Hour))
	if err := c.Update(future, now); err != nil {
		t.Fatalf("Update future: %v", err)
	}
	expired := buildPacket(t, []int32{1, 2, 3}, now.Add(-8*30*24*time.Hour))
	if err := c.Update(expired, now); err != nil {
		t.Fatalf("Update expired: %v", err)
	}

	snapshots := c.TabulateAndReset(time.Minute)
	if len(snapshots) != 1 {
		t.Fatalf("len(snapshots) = %d, want 1", len(snapshots))
	}
	snap := snapshots[0]
	if snap.Future != 1 {
		t.Fatalf("Future = %d, want 1", snap.Future)
	}
	if snap.Expired != 1 {
		t.Fatalf("Expired = %d, want 1", snap.Expired)
	}
	if snap.Valid != 0 {
		t.Fatalf("Valid = %d, want 0", snap.Valid)
	}
}

func TestCollectorResetsAfterTabulate(t *testing.T) {
	c := NewCollector()
	now := time.Unix(1_700_000_000, 0)
	if err := c.Update(buildPacket(t, []int32{1, 2, 3}, now.Add(-10*time.Second)), now); err != nil {
		t.Fatalf("Update: %v", err)
	}
	c.TabulateAndReset(time.Minute)

	snapshots := c.TabulateAndReset(time.Minute)
	if len(snapshots) != 1 {
		t.Fatalf("len(snapshots) = %d, want 1", len(snapshots))
	}
	if snapshots[0].Total != 0 {
		t.Fatalf("Total after empty interval = %d, want 0", snapshots[0].Total)
	}
}
