package stats

import (
	"testing"
	"time"
)

func TestSweepsSnapshotPercentiles(t *testing.T) {
	s := NewSweeps(time.Hour)
	for _, ms := range []int{100, 200, 300, 400, 500} {
		s.Record("update", time.Duration(ms)*time.Millisecond, 2)
	}

	snap, ok := s.Snapshot()["update"]
	if !ok {
		t.Fatal("expected update snapshot")
	}
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.Items != 10 {
		t.Fatalf("expected items=10, got %d", snap.Items)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestSweepsSeparatesOperations(t *testing.T) {
	s := NewSweeps(time.Hour)
	s.Record("export", 10*time.Millisecond, 1)
	s.Record("update", 20*time.Millisecond, 1)
	s.Record("update", 40*time.Millisecond, 1)

	snap := s.Snapshot()
	if snap["export"].Count != 1 {
		t.Fatalf("expected export count=1, got %d", snap["export"].Count)
	}
	if snap["update"].Count != 2 {
		t.Fatalf("expected update count=2, got %d", snap["update"].Count)
	}
}

func TestSweepsPrunesExpiredSamples(t *testing.T) {
	s := NewSweeps(10 * time.Millisecond)
	s.Record("export", 100*time.Millisecond, 1)
	time.Sleep(25 * time.Millisecond)

	if _, ok := s.Snapshot()["export"]; ok {
		t.Fatal("expected expired samples to be pruned")
	}

	s.Record("export", 200*time.Millisecond, 1)
	snap := s.Snapshot()["export"]
	if snap.Count != 1 || snap.MinMs != 200 {
		t.Fatalf("expected one fresh sample of 200ms, got %+v", snap)
	}
}

func TestSweepsClampsNegativeDuration(t *testing.T) {
	s := NewSweeps(time.Hour)
	s.Record("export", -time.Second, 0)
	snap := s.Snapshot()["export"]
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}
