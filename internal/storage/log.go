package storage

import (
	"encoding/binary"
	"os"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// log is an mmap-backed append-only file: the physical layer one segment
// writes its RecordBatches into.
type log struct {
	mu   sync.RWMutex
	file *os.File
	data []byte // mmap region
	size int64  // logical size (valid data limit)
}

func newLog(path string, maxBytes int64) (*log, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() < maxBytes {
		if err := f.Truncate(maxBytes); err != nil {
			f.Close()
			return nil, err
		}
	}

	data, err := syscall.Mmap(
		int(f.Fd()), 0, int(maxBytes),
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED,
	)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &log{file: f, data: data, size: 0}, nil
}

func (l *log) Size() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

func (l *log) SetSize(size int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.size = size
}

func (l *log) Append(b []byte) (int, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(b)
	if l.size+int64(n) > int64(len(l.data)) {
		return 0, 0, ErrSegmentFull
	}
	copy(l.data[l.size:], b)
	pos := l.size
	l.size += int64(n)
	return n, pos, nil
}

// ReadAt accumulates whole batches starting at pos until maxBytes would be
// exceeded, always including at least the first batch to guarantee
// forward progress even when it alone exceeds maxBytes.
func (l *log) ReadAt(pos int64, maxBytes int32) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if pos >= l.size {
		return nil, ErrOffsetOutOfRange
	}

	currentPos := pos
	var total int64
	for currentPos < l.size {
		if l.size-currentPos < 12 {
			break
		}
		batchLen := int32(binary.BigEndian.Uint32(l.data[currentPos+8 : currentPos+12]))
		batchSize := 12 + int64(batchLen)
		if currentPos+batchSize > l.size {
			break
		}
		if total+batchSize > int64(maxBytes) {
			if total == 0 {
				total = batchSize
			}
			break
		}
		total += batchSize
		currentPos += batchSize
	}
	if total == 0 {
		return nil, nil
	}
	return l.data[pos : pos+total], nil
}

// ReadRaw reads exactly size bytes for header scanning; it returns (nil,
// nil) rather than an error when fewer bytes remain than requested.
func (l *log) ReadRaw(pos int64, size int) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if pos+int64(size) > l.size {
		return nil, nil
	}
	return l.data[pos : pos+int64(size)], nil
}

func (l *log) capacity() int64 { return int64(len(l.data)) }

func (l *log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = unix.Msync(l.data, unix.MS_SYNC)
	_ = syscall.Munmap(l.data)
	_ = l.file.Truncate(l.size)
	return l.file.Close()
}

func (l *log) Delete() error {
	path := l.file.Name()
	_ = syscall.Munmap(l.data)
	_ = l.file.Close()
	return os.Remove(path)
}
