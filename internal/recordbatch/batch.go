package recordbatch

import (
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/shake-karrot/kafkabroker/internal/compress"
	"github.com/shake-karrot/kafkabroker/internal/kbin"
)

// fixedHeaderSize is the byte count of every RecordBatch field up to and
// including the records-count prefix (base_offset through records_count),
// i.e. everything the teacher's segment format calls its "61 byte header".
const fixedHeaderSize = 61

var crcTable = crc32.MakeTable(crc32.Castagnoli)

const (
	attrCompressionMask = 0x7
	attrTimestampType   = 1 << 3
	attrTransactional   = 1 << 4
	attrControl         = 1 << 5
)

var (
	ErrInsufficientData = errors.New("recordbatch: insufficient data")
	ErrInvalidMagic     = errors.New("recordbatch: invalid magic byte (expected 2)")
	ErrCRCMismatch      = errors.New("recordbatch: crc mismatch")
)

// Batch is the Frame v2 RecordBatch, the unit of physical persistence and
// transport (spec.md §3).
type Batch struct {
	BaseOffset           int64
	PartitionLeaderEpoch int32
	Attributes           int16
	LastOffsetDelta       int32
	BaseTimestamp        int64
	MaxTimestamp         int64
	ProducerID           int64
	ProducerEpoch        int16
	BaseSequence         int32
	Records              []Record
}

// Finalize recomputes LastOffsetDelta and MaxTimestamp from the current
// Records slice — the producer-side bookkeeping a storage backend performs
// before assigning a base offset and encoding, per spec.md §3's "last
// offset delta equals the maximum offset delta of contained records"
// invariant.
func (b *Batch) Finalize() {
	var maxOffsetDelta int32
	maxTS := b.BaseTimestamp
	for _, r := range b.Records {
		if r.OffsetDelta > maxOffsetDelta {
			maxOffsetDelta = r.OffsetDelta
		}
		ts := b.BaseTimestamp + r.TimestampDelta
		if ts > maxTS {
			maxTS = ts
		}
	}
	b.LastOffsetDelta = maxOffsetDelta
	b.MaxTimestamp = maxTS
}

// Compression returns the codec named by the batch's attribute bits 0-2.
func (b Batch) Compression() (compress.Codec, error) {
	return compress.FromAttributes(b.Attributes)
}

// IsTransactional reports attribute bit 4.
func (b Batch) IsTransactional() bool { return b.Attributes&attrTransactional != 0 }

// IsControl reports attribute bit 5.
func (b Batch) IsControl() bool { return b.Attributes&attrControl != 0 }

// SetCompression rewrites the batch's compression bits in place.
func (b *Batch) SetCompression(c compress.Codec) {
	b.Attributes = (b.Attributes &^ attrCompressionMask) | int16(c)
}

// Encode serializes b per spec.md §4.B: records first, then the CRC is
// computed over attributes..end of the (possibly compressed) record bytes,
// and batch_length is set to the post-base_offset/length byte count.
func (b Batch) Encode() ([]byte, error) {
	var recBuf []byte
	for _, r := range b.Records {
		recBuf = r.Encode(recBuf)
	}

	codec, err := b.Compression()
	if err != nil {
		return nil, err
	}
	compressed, err := compress.Compress(codec, recBuf)
	if err != nil {
		return nil, fmt.Errorf("recordbatch: compress: %w", err)
	}

	tail := kbin.NewWriter(nil)
	tail.Int16(b.Attributes)
	tail.Int32(b.LastOffsetDelta)
	tail.Int64(b.BaseTimestamp)
	tail.Int64(b.MaxTimestamp)
	tail.Int64(b.ProducerID)
	tail.Int16(b.ProducerEpoch)
	tail.Int32(b.BaseSequence)
	tail.Int32(int32(len(b.Records)))
	tail.Append(compressed)
	tailBytes := tail.Bytes()

	crc := crc32.Checksum(tailBytes, crcTable)
	batchLength := 4 /* partition_leader_epoch */ + 1 /* magic */ + 4 /* crc */ + len(tailBytes)

	w := kbin.NewWriter(make([]byte, 0, 12+batchLength))
	w.Int64(b.BaseOffset)
	w.Int32(int32(batchLength))
	w.Int32(b.PartitionLeaderEpoch)
	w.Int8(2)
	w.Uint32(crc)
	w.Append(tailBytes)
	return w.Bytes(), nil
}

// Decode parses one RecordBatch from the front of buf. The CRC is verified
// before the (possibly compressed) record bytes are decompressed and
// iterated, per spec.md §4.B.
func Decode(buf []byte) (Batch, int, error) {
	if len(buf) < fixedHeaderSize {
		return Batch{}, 0, ErrInsufficientData
	}
	r := kbin.NewReader(buf)
	var b Batch
	b.BaseOffset = r.Int64()
	batchLength := r.Int32()
	total := 12 + int(batchLength)
	if total > len(buf) {
		return Batch{}, 0, ErrInsufficientData
	}
	b.PartitionLeaderEpoch = r.Int32()
	magic := r.Int8()
	if magic != 2 {
		return Batch{}, 0, fmt.Errorf("%w: got %d", ErrInvalidMagic, magic)
	}
	crc := r.Uint32()
	crcStart := 21 // byte offset of attributes within buf: 8+4+4+1+4
	calc := crc32.Checksum(buf[crcStart:total], crcTable)
	if calc != crc {
		return Batch{}, 0, fmt.Errorf("%w: expected %d, got %d", ErrCRCMismatch, crc, calc)
	}

	b.Attributes = r.Int16()
	b.LastOffsetDelta = r.Int32()
	b.BaseTimestamp = r.Int64()
	b.MaxTimestamp = r.Int64()
	b.ProducerID = r.Int64()
	b.ProducerEpoch = r.Int16()
	b.BaseSequence = r.Int32()
	recordsCount := r.Int32()
	if r.Err() != nil {
		return Batch{}, 0, fmt.Errorf("%w: %v", ErrInsufficientData, r.Err())
	}

	compressed := buf[fixedHeaderSize:total]
	codec, err := b.Compression()
	if err != nil {
		return Batch{}, 0, err
	}
	raw, err := compress.Decompress(codec, compressed)
	if err != nil {
		return Batch{}, 0, fmt.Errorf("recordbatch: decompress: %w", err)
	}

	b.Records = make([]Record, 0, recordsCount)
	off := 0
	for i := int32(0); i < recordsCount; i++ {
		rec, n, err := DecodeRecord(raw[off:])
		if err != nil {
			return Batch{}, 0, err
		}
		b.Records = append(b.Records, rec)
		off += n
	}
	return b, total, nil
}

// DecodeAll decodes as many complete batches as fit in buf, discarding any
// final trailing partial batch — the same "Kafka, as an internal
// optimization, may include a partial final RecordBatch" tolerance
// kmsg.ReadRecordBatches implements for FetchResponse payloads.
func DecodeAll(buf []byte) ([]Batch, error) {
	var out []Batch
	for len(buf) > 12 {
		length := int32(0)
		{
			r := kbin.NewReader(buf[8:12])
			length = r.Int32()
		}
		total := 12 + int(length)
		if total > len(buf) {
			break
		}
		b, n, err := Decode(buf[:total])
		if err != nil {
			return out, err
		}
		out = append(out, b)
		buf = buf[n:]
	}
	return out, nil
}
