package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func smallPartitionConfig() PartitionConfig {
	return PartitionConfig{
		Segment: SegmentConfig{
			SegmentMaxBytes: 150,
			IndexMaxBytes:   512,
		},
		RetentionMs:              -1,
		RetentionBytes:           -1,
		RetentionCheckIntervalMs: 50,
	}
}

func appendTestBatch(t *testing.T, p *partition, timestampMs int64) {
	t.Helper()
	batch := testBatch(t, timestampMs, 1)
	if _, err := p.Append(batch); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestPartitionDeleteOldSegmentsByAge(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := smallPartitionConfig()
	cfg.RetentionMs = 100

	cache := newSegmentCache(10)
	defer cache.Close()

	p, err := newPartition(tmpDir, "test", 0, cfg, cache)
	if err != nil {
		t.Fatalf("new partition: %v", err)
	}
	defer p.Close()

	old := time.Now().Add(-500 * time.Millisecond).UnixMilli()
	for i := 0; i < 3; i++ {
		appendTestBatch(t, p, old)
	}
	appendTestBatch(t, p, time.Now().UnixMilli())

	if len(p.segments) <= 1 {
		t.Skip("not enough segments rolled for this test")
	}
	before := len(p.segments)

	removed, err := p.DeleteOldSegments(time.Now())
	if err != nil {
		t.Fatalf("delete old segments: %v", err)
	}
	if len(removed) == 0 {
		t.Fatalf("expected at least one segment removed, before=%d after=%d", before, len(p.segments))
	}
	if len(p.segments) >= before {
		t.Errorf("expected segments to shrink: before=%d after=%d", before, len(p.segments))
	}

	partDir := filepath.Join(tmpDir, "test-0")
	files, _ := os.ReadDir(partDir)
	t.Logf("segments before=%d after=%d, files remaining=%d", before, len(p.segments), len(files))
}

func TestPartitionDeleteOldSegmentsByBytes(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := smallPartitionConfig()
	cfg.RetentionBytes = 200

	cache := newSegmentCache(10)
	defer cache.Close()

	p, err := newPartition(tmpDir, "test", 0, cfg, cache)
	if err != nil {
		t.Fatalf("new partition: %v", err)
	}
	defer p.Close()

	ts := time.Now().UnixMilli()
	for i := 0; i < 5; i++ {
		appendTestBatch(t, p, ts)
	}
	if len(p.segments) <= 1 {
		t.Skip("not enough segments rolled for this test")
	}
	before := len(p.segments)

	removed, err := p.DeleteOldSegments(time.Now())
	if err != nil {
		t.Fatalf("delete old segments: %v", err)
	}
	if len(removed) == 0 || len(p.segments) >= before {
		t.Errorf("expected segments to be deleted: before=%d after=%d", before, len(p.segments))
	}
}

func TestPartitionDeleteOldSegmentsDisabled(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := smallPartitionConfig() // both bounds negative

	cache := newSegmentCache(10)
	defer cache.Close()

	p, err := newPartition(tmpDir, "test", 0, cfg, cache)
	if err != nil {
		t.Fatalf("new partition: %v", err)
	}
	defer p.Close()

	old := time.Now().Add(-time.Hour).UnixMilli()
	for i := 0; i < 5; i++ {
		appendTestBatch(t, p, old)
	}
	before := len(p.segments)

	removed, err := p.DeleteOldSegments(time.Now())
	if err != nil {
		t.Fatalf("delete old segments: %v", err)
	}
	if len(removed) != 0 || len(p.segments) != before {
		t.Errorf("expected no deletion when retention is disabled, removed=%v", removed)
	}
}

func TestRetentionCleanerStartStop(t *testing.T) {
	cache := newSegmentCache(10)
	defer cache.Close()
	rc := newRetentionCleaner(20, cache)
	rc.Start()
	time.Sleep(60 * time.Millisecond)
	rc.Stop()
}

func TestRetentionCleanerSweepEvictsFromCache(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := smallPartitionConfig()
	cfg.RetentionMs = 50
	cfg.RetentionCheckIntervalMs = 30

	cache := newSegmentCache(10)
	defer cache.Close()

	p, err := newPartition(tmpDir, "test", 0, cfg, cache)
	if err != nil {
		t.Fatalf("new partition: %v", err)
	}
	defer p.Close()

	old := time.Now().Add(-500 * time.Millisecond).UnixMilli()
	for i := 0; i < 4; i++ {
		appendTestBatch(t, p, old)
	}
	appendTestBatch(t, p, time.Now().UnixMilli())

	if len(p.segments) <= 1 {
		t.Skip("not enough segments rolled for this test")
	}

	// Reading offset 0 loads the oldest closed segment into the cache.
	if _, err := p.Read(0, 1<<20); err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, ok := cache.items[p.cacheKey(0)]; !ok {
		t.Fatal("expected segment 0 to be cached after a read")
	}

	rc := newRetentionCleaner(cfg.RetentionCheckIntervalMs, cache)
	rc.Register(p)
	rc.Start()
	time.Sleep(200 * time.Millisecond)
	rc.Stop()
	time.Sleep(50 * time.Millisecond)

	partDir := filepath.Join(tmpDir, "test-0")
	files, _ := os.ReadDir(partDir)
	logFiles := 0
	for _, f := range files {
		if filepath.Ext(f.Name()) == ".log" {
			logFiles++
		}
	}
	// Five 69-byte batches in 150-byte segments roll into three .log files.
	if logFiles >= 3 {
		t.Errorf("expected some .log files to be deleted, found %d", logFiles)
	}
	if _, ok := cache.items[p.cacheKey(0)]; ok {
		t.Error("expected the deleted segment 0 to be evicted from the cache")
	}
}
