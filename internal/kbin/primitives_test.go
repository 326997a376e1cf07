package kbin

import "testing"

func TestVarintRoundTrip(t *testing.T) {
	tests := []int64{0, -1, 1, 1 << 31 >> 1, -(1 << 31), int64(^uint32(0) >> 1), -2147483648, 2147483647}
	for _, v := range tests {
		w := NewWriter(nil)
		w.Varint(v)
		r := NewReader(w.Bytes())
		got := r.Varint()
		if r.Err() != nil {
			t.Fatalf("Varint(%d): unexpected error %v", v, r.Err())
		}
		if got != v {
			t.Errorf("Varint round-trip: got %d, want %d", got, v)
		}
	}
}

func TestCompactStringNull(t *testing.T) {
	w := NewWriter(nil)
	w.NullableCompactString(nil)
	r := NewReader(w.Bytes())
	if got := r.NullableCompactString(); got != nil {
		t.Errorf("expected nil, got %q", *got)
	}
}

func TestCompactStringEmpty(t *testing.T) {
	empty := ""
	w := NewWriter(nil)
	w.NullableCompactString(&empty)
	r := NewReader(w.Bytes())
	got := r.NullableCompactString()
	if got == nil || *got != "" {
		t.Errorf("expected empty string, got %v", got)
	}
}

func TestTagSectionSkipsUnknown(t *testing.T) {
	w := NewWriter(nil)
	w.Uvarint(2)
	w.Uvarint(7)
	w.Uvarint(3)
	w.buf = append(w.buf, 1, 2, 3)
	w.Uvarint(9)
	w.Uvarint(0)

	r := NewReader(w.Bytes())
	fields := r.TagSection()
	if r.Err() != nil {
		t.Fatalf("unexpected error: %v", r.Err())
	}
	if len(fields) != 2 {
		t.Fatalf("expected 2 tagged fields, got %d", len(fields))
	}
	if fields[0].Tag != 7 || len(fields[0].Payload) != 3 {
		t.Errorf("unexpected first field: %+v", fields[0])
	}
	if fields[1].Tag != 9 || len(fields[1].Payload) != 0 {
		t.Errorf("unexpected second field: %+v", fields[1])
	}
}

func TestIncompleteFrame(t *testing.T) {
	r := NewReader([]byte{0, 1})
	_ = r.Int32()
	if r.Err() == nil {
		t.Fatal("expected ErrIncompleteFrame")
	}
}
