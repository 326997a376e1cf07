// Package recordbatch implements the Kafka record and RecordBatch (magic
// v2) wire codec: variable-length record fields, nested headers, and a
// CRC-32C-protected, self-describing batch envelope.
package recordbatch

import (
	"errors"
	"fmt"

	"github.com/shake-karrot/kafkabroker/internal/kbin"
)

// ErrMalformedRecord is returned when a record's self-described length does
// not match the bytes actually available for its tail.
var ErrMalformedRecord = errors.New("recordbatch: malformed record")

// Header is a key/value pair attached to a record.
type Header struct {
	Key   string
	Value []byte // nil denotes an absent value
}

// Record is a single log entry inside a batch, relative to the batch's
// base offset and base timestamp.
type Record struct {
	Attributes     int8
	TimestampDelta int64
	OffsetDelta    int32
	Key            []byte // nil denotes an absent key
	Value          []byte // nil denotes an absent value; present key + absent value = tombstone
	Headers        []Header
}

// IsTombstone reports whether r has a present key and an absent value.
func (r Record) IsTombstone() bool {
	return r.Key != nil && r.Value == nil
}

// tailSize returns the byte count of every record field except the length
// prefix itself — the value the length field must equal.
func (r Record) tailSize() int {
	n := 1 // attributes
	n += kbin.SizeVarint(r.TimestampDelta)
	n += kbin.SizeVarint(int64(r.OffsetDelta))
	n += varintBytesSize(r.Key)
	n += varintBytesSize(r.Value)
	n += kbin.SizeVarint(int64(len(r.Headers)))
	for _, h := range r.Headers {
		n += kbin.SizeVarint(int64(len(h.Key))) + len(h.Key)
		n += varintBytesSize(h.Value)
	}
	return n
}

func varintBytesSize(b []byte) int {
	if b == nil {
		return kbin.SizeVarint(-1)
	}
	return kbin.SizeVarint(int64(len(b))) + len(b)
}

// SizeInBytes returns the total encoded size of r, including its own
// length prefix — invariant 1 of spec.md §8.
func (r Record) SizeInBytes() int {
	tail := r.tailSize()
	return kbin.SizeVarint(int64(tail)) + tail
}

// Encode appends r's wire form to dst.
func (r Record) Encode(dst []byte) []byte {
	w := kbin.NewWriter(dst)
	tail := r.tailSize()
	w.Varint(int64(tail))
	w.Int8(r.Attributes)
	w.Varint(r.TimestampDelta)
	w.Varint(int64(r.OffsetDelta))
	encodeVarintBytes(w, r.Key)
	encodeVarintBytes(w, r.Value)
	w.Varint(int64(len(r.Headers)))
	for _, h := range r.Headers {
		w.Varint(int64(len(h.Key)))
		w.Append([]byte(h.Key))
		encodeVarintBytes(w, h.Value)
	}
	return w.Bytes()
}

func encodeVarintBytes(w *kbin.Writer, b []byte) {
	if b == nil {
		w.Varint(-1)
		return
	}
	w.Varint(int64(len(b)))
	w.Append(b)
}

// DecodeRecord reads one record (length prefix plus tail) from the front of
// buf and returns it along with the number of bytes consumed.
func DecodeRecord(buf []byte) (Record, int, error) {
	r := kbin.NewReader(buf)
	length := r.Varint()
	if r.Err() != nil {
		return Record{}, 0, fmt.Errorf("%w: %v", ErrMalformedRecord, r.Err())
	}
	if length < 0 {
		return Record{}, 0, fmt.Errorf("%w: negative length %d", ErrMalformedRecord, length)
	}
	prefixLen := kbin.SizeVarint(length)
	if prefixLen+int(length) > len(buf) {
		return Record{}, 0, fmt.Errorf("%w: tail overruns buffer", ErrMalformedRecord)
	}
	tail := kbin.NewReader(buf[prefixLen : prefixLen+int(length)])

	var rec Record
	rec.Attributes = tail.Int8()
	rec.TimestampDelta = tail.Varint()
	rec.OffsetDelta = int32(tail.Varint())
	rec.Key = decodeVarintBytes(tail)
	rec.Value = decodeVarintBytes(tail)

	hdrCount := tail.Varint()
	if tail.Err() != nil {
		return Record{}, 0, fmt.Errorf("%w: %v", ErrMalformedRecord, tail.Err())
	}
	if hdrCount > 0 {
		rec.Headers = make([]Header, 0, hdrCount)
		for i := int64(0); i < hdrCount; i++ {
			keyLen := tail.Varint()
			if tail.Err() != nil || keyLen < 0 {
				return Record{}, 0, fmt.Errorf("%w: invalid header key length", ErrMalformedRecord)
			}
			keyBytes := tail.Span(int(keyLen))
			value := decodeVarintBytes(tail)
			if tail.Err() != nil {
				return Record{}, 0, fmt.Errorf("%w: %v", ErrMalformedRecord, tail.Err())
			}
			rec.Headers = append(rec.Headers, Header{Key: string(keyBytes), Value: value})
		}
	}
	if tail.Err() != nil {
		return Record{}, 0, fmt.Errorf("%w: %v", ErrMalformedRecord, tail.Err())
	}
	if len(tail.Remaining()) != 0 {
		return Record{}, 0, fmt.Errorf("%w: tail under-consumed", ErrMalformedRecord)
	}
	return rec, prefixLen + int(length), nil
}

func decodeVarintBytes(r *kbin.Reader) []byte {
	n := r.Varint()
	if r.Err() != nil || n < 0 {
		return nil
	}
	b := r.Span(int(n))
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
