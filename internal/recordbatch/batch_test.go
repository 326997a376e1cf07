package recordbatch

import (
	"bytes"
	"testing"
)

func sampleRecord() Record {
	return Record{Value: []byte{100, 101, 102}}
}

func TestRecordSizeInBytes(t *testing.T) {
	r := sampleRecord()
	if got, want := r.SizeInBytes(), 10; got != want {
		t.Errorf("SizeInBytes() = %d, want %d", got, want)
	}
	if got, want := r.tailSize(), 9; got != want {
		t.Errorf("tailSize() = %d, want %d", got, want)
	}
}

func TestRecordEncodeMatchesSpecVector(t *testing.T) {
	r := sampleRecord()
	want := []byte{18, 0, 0, 0, 1, 6, 100, 101, 102, 0}
	got := r.Encode(nil)
	if !bytes.Equal(got, want) {
		t.Errorf("Encode() = %v, want %v", got, want)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	cases := []Record{
		sampleRecord(),
		{Key: []byte("k"), Value: nil}, // tombstone
		{Key: []byte{}, Value: []byte{}},
		{Key: nil, Value: nil},
		{Key: []byte("k"), Value: []byte("v"), Headers: []Header{
			{Key: "h1", Value: []byte("one")},
			{Key: "h2", Value: nil},
		}},
	}
	for i, r := range cases {
		buf := r.Encode(nil)
		if len(buf) != r.SizeInBytes() {
			t.Errorf("case %d: encoded len %d != SizeInBytes() %d", i, len(buf), r.SizeInBytes())
		}
		got, n, err := DecodeRecord(buf)
		if err != nil {
			t.Fatalf("case %d: DecodeRecord: %v", i, err)
		}
		if n != len(buf) {
			t.Errorf("case %d: consumed %d, want %d", i, n, len(buf))
		}
		if !recordsEqual(got, r) {
			t.Errorf("case %d: round-trip mismatch: got %+v, want %+v", i, got, r)
		}
	}
}

func recordsEqual(a, b Record) bool {
	if a.Attributes != b.Attributes || a.TimestampDelta != b.TimestampDelta || a.OffsetDelta != b.OffsetDelta {
		return false
	}
	if !bytes.Equal(a.Key, b.Key) || !bytes.Equal(a.Value, b.Value) {
		return false
	}
	if len(a.Headers) != len(b.Headers) {
		return false
	}
	for i := range a.Headers {
		if a.Headers[i].Key != b.Headers[i].Key || !bytes.Equal(a.Headers[i].Value, b.Headers[i].Value) {
			return false
		}
	}
	return true
}

func TestTombstone(t *testing.T) {
	r := Record{Key: []byte("k"), Value: nil}
	if !r.IsTombstone() {
		t.Error("expected tombstone")
	}
	r2 := Record{Key: []byte("k"), Value: []byte{}}
	if r2.IsTombstone() {
		t.Error("empty non-nil value should not be a tombstone")
	}
}

func specBatch() Batch {
	b := Batch{
		BaseOffset:           0,
		PartitionLeaderEpoch: -1,
		BaseTimestamp:        1707058170165,
		MaxTimestamp:         1707058170165,
		ProducerID:           1,
		BaseSequence:         1,
		Records:              []Record{sampleRecord()},
	}
	b.Finalize()
	return b
}

func TestBatchEncodeMatchesSpecScenario(t *testing.T) {
	b := specBatch()
	buf, err := b.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	const wantBatchLength = 59
	gotBatchLength := int32(buf[8])<<24 | int32(buf[9])<<16 | int32(buf[10])<<8 | int32(buf[11])
	if gotBatchLength != wantBatchLength {
		t.Errorf("batch_length = %d, want %d", gotBatchLength, wantBatchLength)
	}

	gotCRC := uint32(buf[17])<<24 | uint32(buf[18])<<16 | uint32(buf[19])<<8 | uint32(buf[20])
	const wantCRC = 1126819645
	if gotCRC != wantCRC {
		t.Errorf("crc = %d, want %d", gotCRC, wantCRC)
	}

	if len(buf) != 12+int(wantBatchLength) {
		t.Errorf("total encoded length = %d, want %d", len(buf), 12+wantBatchLength)
	}
}

func TestBatchDecodeSpecVector(t *testing.T) {
	vector := []byte{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 59, 255, 255, 255, 255, 2, 67, 41, 231, 61,
		0, 0, 0, 0, 0, 0, 0, 0, 1, 141, 116, 152, 137, 53, 0, 0, 1, 141, 116, 152, 137, 53,
		0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 1,
		18, 0, 0, 0, 1, 6, 100, 101, 102, 0,
	}
	got, n, err := Decode(vector)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != len(vector) {
		t.Errorf("consumed %d, want %d", n, len(vector))
	}
	want := specBatch()
	if got.BaseOffset != want.BaseOffset || got.LastOffsetDelta != want.LastOffsetDelta ||
		got.BaseTimestamp != want.BaseTimestamp || got.MaxTimestamp != want.MaxTimestamp ||
		got.ProducerID != want.ProducerID || got.BaseSequence != want.BaseSequence ||
		len(got.Records) != len(want.Records) {
		t.Errorf("decoded batch mismatch: got %+v, want %+v", got, want)
	}
}

func TestBatchRoundTrip(t *testing.T) {
	b := specBatch()
	buf, err := b.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, n, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != len(buf) {
		t.Errorf("consumed %d, want %d", n, len(buf))
	}
	if got.BaseOffset != b.BaseOffset || got.LastOffsetDelta != b.LastOffsetDelta {
		t.Errorf("round trip mismatch: %+v vs %+v", got, b)
	}
}

func TestEmptyBatch(t *testing.T) {
	b := Batch{PartitionLeaderEpoch: -1, BaseSequence: -1, ProducerEpoch: -1, ProducerID: -1}
	buf, err := b.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, _, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Records) != 0 {
		t.Errorf("expected 0 records, got %d", len(got.Records))
	}
}

func TestCRCMismatchDetected(t *testing.T) {
	b := specBatch()
	buf, _ := b.Encode()
	buf[len(buf)-1] ^= 0xFF // corrupt the last record byte without fixing the CRC
	if _, _, err := Decode(buf); err == nil {
		t.Fatal("expected CRC mismatch error")
	}
}
