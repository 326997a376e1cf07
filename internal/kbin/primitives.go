// Package kbin implements the Kafka wire protocol's primitive encodings:
// fixed-width integers, zig-zag varints, legacy and compact strings/bytes,
// arrays, UUIDs, and the tagged-field section that trails every struct in a
// flexible protocol version.
package kbin

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrIncompleteFrame is returned when the buffer ends before a field can be
// fully read.
var ErrIncompleteFrame = errors.New("kbin: incomplete frame")

// ErrMalformedInput names a decoded value that cannot be represented (e.g.
// a negative compact length). No Reader method in this package returns it.
var ErrMalformedInput = errors.New("kbin: malformed input")

// Reader reads primitives from a byte slice left-to-right. The first error
// encountered is sticky: once set, every subsequent read is a no-op that
// returns the zero value, so callers can chain reads and check Err once at
// the end.
type Reader struct {
	buf []byte
	off int
	err error
}

// NewReader wraps buf for sequential reads.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// Remaining returns the unconsumed tail of the buffer.
func (r *Reader) Remaining() []byte { return r.buf[r.off:] }

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) need(n int) ([]byte, bool) {
	if r.err != nil {
		return nil, false
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.fail(fmt.Errorf("%w: need %d bytes, have %d", ErrIncompleteFrame, n, len(r.buf)-r.off))
		return nil, false
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, true
}

// Span consumes and returns exactly n raw bytes.
func (r *Reader) Span(n int) []byte {
	b, ok := r.need(n)
	if !ok {
		return nil
	}
	return b
}

func (r *Reader) Bool() bool {
	b, ok := r.need(1)
	if !ok {
		return false
	}
	return b[0] != 0
}

func (r *Reader) Int8() int8 {
	b, ok := r.need(1)
	if !ok {
		return 0
	}
	return int8(b[0])
}

func (r *Reader) Int16() int16 {
	b, ok := r.need(2)
	if !ok {
		return 0
	}
	return int16(binary.BigEndian.Uint16(b))
}

func (r *Reader) Int32() int32 {
	b, ok := r.need(4)
	if !ok {
		return 0
	}
	return int32(binary.BigEndian.Uint32(b))
}

func (r *Reader) Int64() int64 {
	b, ok := r.need(8)
	if !ok {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}

func (r *Reader) Uint32() uint32 {
	b, ok := r.need(4)
	if !ok {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// Varint reads a zig-zag-encoded signed varint (record-level encoding, used
// for record length/timestamp-delta/offset-delta and header lengths).
func (r *Reader) Varint() int64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Varint(r.buf[r.off:])
	if n <= 0 {
		r.fail(ErrIncompleteFrame)
		return 0
	}
	r.off += n
	return v
}

// Uvarint reads an unsigned base-128 varint with no zig-zag and no length
// bias; used internally by CompactLen and the tagged-field section.
func (r *Reader) Uvarint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.buf[r.off:])
	if n <= 0 {
		r.fail(ErrIncompleteFrame)
		return 0
	}
	r.off += n
	return v
}

// CompactLen reads a compact-form length prefix (n+1, 0 means null) and
// returns the element/byte count, or -1 for null.
func (r *Reader) CompactLen() int {
	n := r.Uvarint()
	if r.err != nil {
		return 0
	}
	if n == 0 {
		return -1
	}
	return int(n - 1)
}

// LegacyString reads an i16-length-prefixed string; -1 denotes null.
func (r *Reader) LegacyString() string {
	n := r.Int16()
	if r.err != nil {
		return ""
	}
	if n < 0 {
		return ""
	}
	b, ok := r.need(int(n))
	if !ok {
		return ""
	}
	return string(b)
}

// NullableLegacyString is LegacyString but distinguishes null from empty.
func (r *Reader) NullableLegacyString() *string {
	n := r.Int16()
	if r.err != nil {
		return nil
	}
	if n < 0 {
		return nil
	}
	b, ok := r.need(int(n))
	if !ok {
		return nil
	}
	s := string(b)
	return &s
}

// CompactString reads a compact (unsigned-varint n+1) string; null decodes
// to "".
func (r *Reader) CompactString() string {
	n := r.CompactLen()
	if r.err != nil || n < 0 {
		return ""
	}
	b, ok := r.need(n)
	if !ok {
		return ""
	}
	return string(b)
}

// NullableCompactString is CompactString but distinguishes null from empty.
func (r *Reader) NullableCompactString() *string {
	n := r.CompactLen()
	if r.err != nil {
		return nil
	}
	if n < 0 {
		return nil
	}
	b, ok := r.need(n)
	if !ok {
		return nil
	}
	s := string(b)
	return &s
}

// LegacyBytes reads an i32-length-prefixed nullable byte sequence.
func (r *Reader) LegacyBytes() []byte {
	n := r.Int32()
	if r.err != nil || n < 0 {
		return nil
	}
	b, ok := r.need(int(n))
	if !ok {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// CompactBytes reads a compact (unsigned-varint n+1) nullable byte sequence.
func (r *Reader) CompactBytes() []byte {
	n := r.CompactLen()
	if r.err != nil || n < 0 {
		return nil
	}
	b, ok := r.need(n)
	if !ok {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// ArrayLen reads a legacy i32 array-count, -1 for null.
func (r *Reader) ArrayLen() int {
	n := r.Int32()
	if r.err != nil {
		return 0
	}
	return int(n)
}

// CompactArrayLen reads a compact array-count (n+1), -1 for null.
func (r *Reader) CompactArrayLen() int {
	return r.CompactLen()
}

// UUID reads a 16-byte Kafka UUID.
func (r *Reader) UUID() uuid.UUID {
	b, ok := r.need(16)
	if !ok {
		return uuid.Nil
	}
	var u uuid.UUID
	copy(u[:], b)
	return u
}

// RawTaggedField is an (tag, payload) pair preserved verbatim by readers
// that do not understand the tag.
type RawTaggedField struct {
	Tag     uint32
	Payload []byte
}

// TagSection reads a flexible-version tagged-field section. Unknown tags
// are preserved as RawTaggedField rather than discarded, satisfying the
// "readers must skip unknown tags without error" invariant while still
// letting a caller round-trip them.
func (r *Reader) TagSection() []RawTaggedField {
	count := r.Uvarint()
	if r.err != nil || count == 0 {
		return nil
	}
	fields := make([]RawTaggedField, 0, count)
	for i := uint64(0); i < count; i++ {
		tag := r.Uvarint()
		size := r.Uvarint()
		payload := r.Span(int(size))
		if r.err != nil {
			return nil
		}
		cp := make([]byte, len(payload))
		copy(cp, payload)
		fields = append(fields, RawTaggedField{Tag: uint32(tag), Payload: cp})
	}
	return fields
}

// Writer appends primitives to a growing byte slice.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with dst as its initial backing buffer.
func NewWriter(dst []byte) *Writer { return &Writer{buf: dst} }

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Append appends raw bytes with no length prefix.
func (w *Writer) Append(b []byte) { w.buf = append(w.buf, b...) }

func (w *Writer) Bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) Int8(v int8) { w.buf = append(w.buf, byte(v)) }

func (w *Writer) Int16(v int16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Int32(v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Int64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) Uint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// Varint appends a zig-zag-encoded signed varint.
func (w *Writer) Varint(v int64) {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutVarint(b[:], v)
	w.buf = append(w.buf, b[:n]...)
}

// Uvarint appends an unsigned base-128 varint with no bias.
func (w *Writer) Uvarint(v uint64) {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], v)
	w.buf = append(w.buf, b[:n]...)
}

// CompactLen appends a compact length prefix: n encodes as n+1, -1 (null)
// as 0.
func (w *Writer) CompactLen(n int) {
	w.Uvarint(uint64(n + 1))
}

func (w *Writer) LegacyString(s string) {
	w.Int16(int16(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *Writer) NullableLegacyString(s *string) {
	if s == nil {
		w.Int16(-1)
		return
	}
	w.LegacyString(*s)
}

func (w *Writer) CompactString(s string) {
	w.CompactLen(len(s))
	w.buf = append(w.buf, s...)
}

func (w *Writer) NullableCompactString(s *string) {
	if s == nil {
		w.CompactLen(-1)
		return
	}
	w.CompactString(*s)
}

func (w *Writer) LegacyBytes(b []byte) {
	if b == nil {
		w.Int32(-1)
		return
	}
	w.Int32(int32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *Writer) CompactBytes(b []byte) {
	if b == nil {
		w.CompactLen(-1)
		return
	}
	w.CompactLen(len(b))
	w.buf = append(w.buf, b...)
}

func (w *Writer) ArrayLen(n int) { w.Int32(int32(n)) }

func (w *Writer) CompactArrayLen(n int) { w.CompactLen(n) }

func (w *Writer) UUID(u uuid.UUID) {
	w.buf = append(w.buf, u[:]...)
}

// EmptyTagSection appends a zero-length tagged-field section, the common
// case for bodies this broker never annotates with extension tags.
func (w *Writer) EmptyTagSection() {
	w.Uvarint(0)
}

// SizeVarint reports the number of bytes Varint(v) would emit, needed by
// the record codec to self-describe its length field.
func SizeVarint(v int64) int {
	var b [binary.MaxVarintLen64]byte
	return binary.PutVarint(b[:], v)
}

// SizeUvarint reports the number of bytes Uvarint(v) would emit.
func SizeUvarint(v uint64) int {
	var b [binary.MaxVarintLen64]byte
	return binary.PutUvarint(b[:], v)
}
