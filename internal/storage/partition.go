package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// partition manages the ordered sequence of segments that back one
// topic-partition. Reads and writes against the tail go straight to the
// always-open active segment; reads against older offsets route through
// the shared global LRU cache so a broker with many idle partitions
// doesn't keep every historical segment mmap'd.
type partition struct {
	mu    sync.RWMutex
	dir   string
	topic string
	id    int32

	segments []int64 // base offsets, ascending
	active   *segment

	cache *segmentCache
	cfg   PartitionConfig
}

func newPartition(baseDir, topic string, id int32, cfg PartitionConfig, cache *segmentCache) (*partition, error) {
	dir := filepath.Join(baseDir, fmt.Sprintf("%s-%d", topic, id))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	p := &partition{dir: dir, topic: topic, id: id, cfg: cfg, cache: cache}
	if err := p.scanSegments(); err != nil {
		return nil, err
	}

	if len(p.segments) == 0 {
		seg, err := newSegment(p.dir, 0, cfg.Segment)
		if err != nil {
			return nil, err
		}
		p.segments = append(p.segments, 0)
		p.active = seg
	} else {
		last := p.segments[len(p.segments)-1]
		seg, err := newSegment(p.dir, last, cfg.Segment)
		if err != nil {
			return nil, err
		}
		p.active = seg
	}
	return p, nil
}

func (p *partition) scanSegments() error {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".log") {
			continue
		}
		base, err := strconv.ParseInt(strings.TrimSuffix(name, ".log"), 10, 64)
		if err != nil {
			return fmt.Errorf("storage: invalid segment filename %q", name)
		}
		p.segments = append(p.segments, base)
	}
	sort.Slice(p.segments, func(i, j int) bool { return p.segments[i] < p.segments[j] })
	return nil
}

// Append writes batchBytes to the active segment, rewriting its
// base_offset field in place to the partition's current log-end offset,
// and rolls to a new segment when the active one reports itself full.
func (p *partition) Append(batchBytes []byte) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(batchBytes) < 8 {
		return 0, fmt.Errorf("storage: batch too short (%d bytes)", len(batchBytes))
	}
	currentOffset := p.active.nextOffset
	binary.BigEndian.PutUint64(batchBytes[0:8], uint64(currentOffset))

	offset, err := p.active.Append(batchBytes)
	if err != ErrSegmentFull {
		return offset, err
	}

	nextOffset := p.active.nextOffset
	if err := p.active.Close(); err != nil {
		return 0, err
	}

	newSeg, err := newSegment(p.dir, nextOffset, p.cfg.Segment)
	if err != nil {
		return 0, err
	}
	p.segments = append(p.segments, nextOffset)
	p.active = newSeg

	binary.BigEndian.PutUint64(batchBytes[0:8], uint64(nextOffset))
	return p.active.Append(batchBytes)
}

// Read routes to the active segment for recent offsets, or to a
// cache-backed historical segment for older ones.
func (p *partition) Read(offset int64, maxBytes int32) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.segments) == 0 {
		return nil, ErrOffsetOutOfRange
	}
	if offset < p.segments[0] {
		return nil, ErrOffsetOutOfRange
	}
	if offset >= p.active.nextOffset {
		return nil, nil
	}
	if offset >= p.active.baseOffset {
		return p.active.Read(offset, maxBytes)
	}

	idx := sort.Search(len(p.segments), func(i int) bool { return p.segments[i] > offset }) - 1
	if idx < 0 {
		idx = 0
	}
	targetBase := p.segments[idx]
	key := p.cacheKey(targetBase)

	seg, err := p.cache.GetOrLoad(key, func() (*segment, error) {
		return newSegment(p.dir, targetBase, p.cfg.Segment)
	})
	if err != nil {
		return nil, err
	}
	return seg.Read(offset, maxBytes)
}

func (p *partition) cacheKey(baseOffset int64) string {
	return fmt.Sprintf("%s-%d-%d", p.topic, p.id, baseOffset)
}

// HighWatermark is the offset one past the last appended record.
func (p *partition) HighWatermark() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active.nextOffset
}

// LogStartOffset is the oldest offset still retained.
func (p *partition) LogStartOffset() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.segments) == 0 {
		return 0
	}
	return p.segments[0]
}

// DeleteOldSegments evicts closed segments that violate the partition's
// age or size retention bounds, oldest first, and never touches the
// active segment. It reports the base offsets it removed so the caller
// can evict them from the shared segment cache.
func (p *partition) DeleteOldSegments(now time.Time) ([]int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cfg.RetentionMs < 0 && p.cfg.RetentionBytes < 0 {
		return nil, nil
	}
	if len(p.segments) <= 1 {
		return nil, nil
	}

	var removed []int64
	nowMs := now.UnixMilli()

	for len(p.segments) > 1 {
		oldest := p.segments[0]
		if oldest == p.active.baseOffset {
			break
		}

		deleteForAge := false
		if p.cfg.RetentionMs >= 0 {
			seg, err := p.openClosedSegment(oldest)
			if err != nil {
				return removed, err
			}
			if nowMs-seg.LargestTimestamp() > p.cfg.RetentionMs {
				deleteForAge = true
			}
			_ = seg.Close()
		}

		deleteForBytes := false
		if !deleteForAge && p.cfg.RetentionBytes >= 0 {
			if p.totalBytes() > p.cfg.RetentionBytes {
				deleteForBytes = true
			}
		}

		if !deleteForAge && !deleteForBytes {
			break
		}

		if err := p.removeSegmentFiles(oldest); err != nil {
			return removed, err
		}
		p.segments = p.segments[1:]
		removed = append(removed, oldest)
	}

	return removed, nil
}

// openClosedSegment opens a non-active segment transiently for retention
// inspection, bypassing the shared cache so retention never evicts a
// segment a concurrent reader is actively using.
func (p *partition) openClosedSegment(baseOffset int64) (*segment, error) {
	return newSegment(p.dir, baseOffset, p.cfg.Segment)
}

// totalBytes sums the on-disk size of closed segments only; the active
// segment's file is pre-truncated to SegmentMaxBytes until it rolls, so
// including it would overstate the partition's real footprint.
func (p *partition) totalBytes() int64 {
	var total int64
	for _, base := range p.segments {
		if base == p.active.baseOffset {
			continue
		}
		logPath, _ := segmentPaths(p.dir, base)
		if fi, err := os.Stat(logPath); err == nil {
			total += fi.Size()
		}
	}
	return total
}

func (p *partition) removeSegmentFiles(baseOffset int64) error {
	logPath, idxPath := segmentPaths(p.dir, baseOffset)
	if err := os.Remove(logPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove log file: %w", err)
	}
	if err := os.Remove(idxPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove index file: %w", err)
	}
	return nil
}

func (p *partition) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != nil {
		return p.active.Close()
	}
	return nil
}
