package metrics

import (
	"testing"
	"time"
)

func TestCollectorTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(StageRetrieve, 10*time.Millisecond)
	c.RecordTiming(StageRetrieve, 30*time.Millisecond)

	snap := c.Snapshot()
	if snap.Retrieve == nil {
		t.Fatal("expected retrieve snapshot")
	}
	if snap.Retrieve.Count != 2 {
		t.Errorf("Count = %d, want 2", snap.Retrieve.Count)
	}
	if snap.Retrieve.MinTimeMs != 10 || snap.Retrieve.MaxTimeMs != 30 {
		t.Errorf("min/max = %d/%d, want 10/30", snap.Retrieve.MinTimeMs, snap.Retrieve.MaxTimeMs)
	}
	if snap.Retrieve.AvgTimeMs != 20 {
		t.Errorf("AvgTimeMs = %v, want 20", snap.Retrieve.AvgTimeMs)
	}
}

func TestCollectorEmptyStagesOmitted(t *testing.T) {
	c := NewCollector()
	snap := c.Snapshot()
	if snap.Rewrite != nil || snap.Generate != nil {
		t.Error("unused stages should snapshot as nil")
	}
}

func TestCollectorFailuresAndTokens(t *testing.T) {
	c := NewCollector()
	c.RecordFailure(StageGenerate)
	c.RecordTiming(StageGenerate, 5*time.Millisecond)
	c.RecordTokens(StageGenerate, 42)

	snap := c.Snapshot()
	if snap.Generate == nil {
		t.Fatal("expected generate snapshot")
	}
	if snap.Generate.Failures != 1 {
		t.Errorf("Failures = %d, want 1", snap.Generate.Failures)
	}
	if snap.Generate.TotalTokens == nil || *snap.Generate.TotalTokens != 42 {
		t.Errorf("TotalTokens = %v, want 42", snap.Generate.TotalTokens)
	}
}
