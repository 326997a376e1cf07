package storage

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/shake-karrot/kafkabroker/internal/recordbatch"
)

// segment is one base-offset-addressed slice of a partition's log: an
// append-only mmap'd file of RecordBatches plus a sparse offset index.
type segment struct {
	mu               sync.RWMutex
	baseOffset       int64
	nextOffset       int64
	largestTimestamp int64

	log   *log
	index *sparseIndex
	cfg   SegmentConfig
}

func segmentPaths(dir string, baseOffset int64) (logPath, idxPath string) {
	name := fmt.Sprintf("%020d", baseOffset)
	return filepath.Join(dir, name+".log"), filepath.Join(dir, name+".index")
}

func newSegment(dir string, baseOffset int64, cfg SegmentConfig) (*segment, error) {
	logPath, idxPath := segmentPaths(dir, baseOffset)

	l, err := newLog(logPath, cfg.SegmentMaxBytes)
	if err != nil {
		return nil, err
	}
	idx, err := newSparseIndex(idxPath, cfg.IndexMaxBytes)
	if err != nil {
		l.Close()
		return nil, err
	}

	s := &segment{baseOffset: baseOffset, nextOffset: baseOffset, log: l, index: idx, cfg: cfg}
	if err := s.recover(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Append writes one already-encoded RecordBatch whose BaseOffset has
// already been rewritten to the segment's current NextOffset by the
// caller, and returns the offset the batch was assigned.
func (s *segment) Append(batchBytes []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, _, err := recordbatch.Decode(batchBytes)
	if err != nil {
		return 0, err
	}

	n, pos, err := s.log.Append(batchBytes)
	if err != nil {
		return 0, err
	}

	relOffset := int32(batch.BaseOffset - s.baseOffset)
	if n > 0 {
		_ = s.index.Write(relOffset, int32(pos))
	}
	if batch.MaxTimestamp > s.largestTimestamp {
		s.largestTimestamp = batch.MaxTimestamp
	}

	curr := s.nextOffset
	s.nextOffset += int64(len(batch.Records))
	return curr, nil
}

// Read locates the batch containing targetOffset and returns a chunk of
// whole batches starting there, up to maxBytes.
func (s *segment) Read(targetOffset int64, maxBytes int32) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if targetOffset < s.baseOffset || targetOffset >= s.nextOffset {
		return nil, ErrOffsetOutOfRange
	}

	rel := int32(targetOffset - s.baseOffset)
	startPos := s.index.Lookup(rel)

	currentPos := startPos
	found := false
	for currentPos < s.log.Size() {
		header, err := s.log.ReadRaw(currentPos, 27)
		if err != nil || len(header) < 27 {
			break
		}
		baseOffset := int64(binary.BigEndian.Uint64(header[0:8]))
		batchLen := int32(binary.BigEndian.Uint32(header[8:12]))
		lastOffsetDelta := int32(binary.BigEndian.Uint32(header[23:27]))
		totalSize := 12 + int64(batchLen)
		lastOffset := baseOffset + int64(lastOffsetDelta)

		if lastOffset < targetOffset {
			currentPos += totalSize
			continue
		}
		found = true
		break
	}
	if !found {
		return nil, ErrOffsetOutOfRange
	}
	return s.log.ReadAt(currentPos, maxBytes)
}

// recover rebuilds NextOffset and the log's logical size by scanning
// forward from the index's last hint until an incomplete or undecodable
// batch (or zero-padding) is found.
func (s *segment) recover() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, lastPos := s.index.LastEntry()
	if int64(lastPos) > s.log.capacity() {
		lastPos = 0
	}

	currentPos := int64(lastPos)
	lastNextOffset := s.baseOffset

	for currentPos < s.log.capacity() {
		header, err := s.log.ReadRaw(currentPos, 12)
		if err != nil || len(header) < 12 {
			break
		}
		batchLen := int32(binary.BigEndian.Uint32(header[8:12]))
		if batchLen == 0 {
			break
		}
		totalSize := 12 + int64(batchLen)

		batchData, err := s.log.ReadRaw(currentPos, int(totalSize))
		if err != nil || len(batchData) < int(totalSize) {
			break
		}

		batch, _, err := recordbatch.Decode(batchData)
		if err != nil {
			break
		}

		lastNextOffset = batch.BaseOffset + int64(len(batch.Records))
		if batch.MaxTimestamp > s.largestTimestamp {
			s.largestTimestamp = batch.MaxTimestamp
		}
		currentPos += totalSize
	}

	s.nextOffset = lastNextOffset
	s.log.SetSize(currentPos)
	return nil
}

func (s *segment) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log.Size()
}

func (s *segment) LargestTimestamp() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.largestTimestamp
}

func (s *segment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.index.Close()
	return s.log.Close()
}

func (s *segment) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.Delete(); err != nil {
		return err
	}
	return s.log.Delete()
}
