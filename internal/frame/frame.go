package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

// MaxFrameSize bounds the size prefix a connection will honor before the
// frame is rejected as malformed, mirroring the teacher's MAX_REQUEST_SIZE
// guard against a corrupt or hostile length field.
const MaxFrameSize = 100 * 1024 * 1024

var (
	// ErrFrameTooLarge is returned when a frame's declared size exceeds
	// MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame: declared size exceeds maximum")
	// ErrNegativeFrameSize is returned for a negative size prefix.
	ErrNegativeFrameSize = errors.New("frame: negative size")
)

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 4096)
		return &b
	},
}

func getBuffer(n int) *[]byte {
	ptr := bufPool.Get().(*[]byte)
	if cap(*ptr) < n {
		b := make([]byte, n)
		return &b
	}
	*ptr = (*ptr)[:n]
	return ptr
}

// PutBuffer returns a buffer obtained from ReadFrame to the pool. Callers
// that retain no reference to the frame's body after use should call this
// once they are done with it.
func PutBuffer(ptr *[]byte) {
	if ptr == nil || cap(*ptr) > MaxFrameSize {
		return
	}
	bufPool.Put(ptr)
}

// ReadFrame reads one size-prefixed frame from r. A declared size of zero
// is tolerated and returns a nil body with no error, rather than treated as
// malformed — some clients and health probes send a bare empty frame to
// test liveness without expecting a reply. The returned pool pointer should
// be passed to PutBuffer once the caller is finished with body.
func ReadFrame(r io.Reader) (body []byte, pool *[]byte, err error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return nil, nil, err
	}
	size := int32(binary.BigEndian.Uint32(sizeBuf[:]))
	switch {
	case size < 0:
		return nil, nil, ErrNegativeFrameSize
	case size == 0:
		return nil, nil, nil
	case size > MaxFrameSize:
		return nil, nil, fmt.Errorf("%w: %d", ErrFrameTooLarge, size)
	}

	ptr := getBuffer(int(size))
	buf := *ptr
	if _, err := io.ReadFull(r, buf); err != nil {
		bufPool.Put(ptr)
		return nil, nil, err
	}
	return buf, ptr, nil
}

// WriteFrame writes body to w prefixed with its big-endian int32 size.
func WriteFrame(w io.Writer, body []byte) error {
	var sizeBuf [4]byte
	binary.BigEndian.PutUint32(sizeBuf[:], uint32(len(body)))
	if _, err := w.Write(sizeBuf[:]); err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	_, err := w.Write(body)
	return err
}
