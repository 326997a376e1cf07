package storage

import (
	"encoding/binary"
	"io"
	"os"
	"sync"
	"syscall"
)

const indexEntryWidth = 8 // relative offset(4) + physical position(4)

// sparseIndex maps a relative offset within a segment to the physical byte
// position of the batch that contains it. Entries are written once per
// appended batch, not once per record, so lookups fall back to a linear
// scan of the log from the matched position.
type sparseIndex struct {
	mu   sync.RWMutex
	file *os.File
	data []byte // mmap
	size int64  // used bytes
}

func newSparseIndex(path string, maxBytes int64) (*sparseIndex, error) {
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

	return &sparseIndex{file: f, data: data, size: 0}, nil
}

func (idx *sparseIndex) Write(relOff int32, pos int32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.size+indexEntryWidth > int64(len(idx.data)) {
		return ErrIndexFull
	}

	binary.BigEndian.PutUint32(idx.data[idx.size:], uint32(relOff))
	binary.BigEndian.PutUint32(idx.data[idx.size+4:], uint32(pos))
	idx.size += indexEntryWidth
	return nil
}

// Lookup finds the physical position of the last entry whose relative
// offset is <= relOff, via binary search over the sparse entries.
func (idx *sparseIndex) Lookup(relOff int32) int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.size == 0 {
		return 0
	}

	outPos := int32(-1)
	entries := int(idx.size / indexEntryWidth)
	low, high := 0, entries-1

	for low <= high {
		mid := (low + high) / 2
		at := mid * indexEntryWidth

		midOff := int32(binary.BigEndian.Uint32(idx.data[at:]))
		midPos := int32(binary.BigEndian.Uint32(idx.data[at+4:]))

		if midOff <= relOff {
			outPos = midPos
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	if outPos == -1 {
		return 0
	}
	return int64(outPos)
}

func (idx *sparseIndex) LastEntry() (relOff, pos int32) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.size == 0 {
		return 0, 0
	}
	at := idx.size - indexEntryWidth
	relOff = int32(binary.BigEndian.Uint32(idx.data[at : at+4]))
	pos = int32(binary.BigEndian.Uint32(idx.data[at+4 : at+8]))
	return relOff, pos
}

func (idx *sparseIndex) Truncate(size int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if size > int64(len(idx.data)) {
		return io.ErrShortBuffer
	}
	idx.size = size
	return nil
}

func (idx *sparseIndex) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_ = syscall.Munmap(idx.data)
	_ = idx.file.Truncate(idx.size)
	return idx.file.Close()
}

func (idx *sparseIndex) Delete() error {
	path := idx.file.Name()
	_ = syscall.Munmap(idx.data)
	_ = idx.file.Close()
	return os.Remove(path)
}
