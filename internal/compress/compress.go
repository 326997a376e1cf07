// Package compress implements the RecordBatch compression codecs spec.md
// §4.B names: none, gzip, snappy, lz4, and zstd, selected by attribute
// bits 0-2 of a RecordBatch.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies a RecordBatch compression scheme (attributes bits 0-2).
type Codec int8

const (
	None Codec = iota
	Gzip
	Snappy
	LZ4
	Zstd
)

// ErrUnsupportedCompression is returned for an attributes value whose
// codec bits do not name one of the five supported codecs.
var ErrUnsupportedCompression = errors.New("compress: unsupported compression codec")

// FromAttributes extracts the codec from a RecordBatch's attributes field.
func FromAttributes(attrs int16) (Codec, error) {
	c := Codec(attrs & 0x7)
	if c > Zstd {
		return 0, fmt.Errorf("%w: code %d", ErrUnsupportedCompression, c)
	}
	return c, nil
}

// Compress transforms the record-array bytes prior to CRC computation.
func Compress(c Codec, raw []byte) ([]byte, error) {
	switch c {
	case None:
		return raw, nil
	case Gzip:
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		if _, err := gw.Write(raw); err != nil {
			return nil, err
		}
		if err := gw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Snappy:
		return snappy.Encode(nil, raw), nil
	case LZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Zstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(raw, nil), nil
	default:
		return nil, fmt.Errorf("%w: code %d", ErrUnsupportedCompression, c)
	}
}

// Decompress reverses Compress. It is only called after CRC verification
// succeeds, per spec.md §4.B's "CRC first, then decompress" ordering.
func Decompress(c Codec, compressed []byte) ([]byte, error) {
	switch c {
	case None:
		return compressed, nil
	case Gzip:
		gr, err := gzip.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		return io.ReadAll(gr)
	case Snappy:
		return snappy.Decode(nil, compressed)
	case LZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(compressed)))
	case Zstd:
		dec, err := zstd.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return io.ReadAll(dec)
	default:
		return nil, fmt.Errorf("%w: code %d", ErrUnsupportedCompression, c)
	}
}
