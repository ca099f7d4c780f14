/*
Package cser implements a compact canonical serialization format.

Values are split across two streams: booleans and small size fields go into a
bit stream (utils/bits), raw data bytes go into a byte stream (utils/fast).
Integers use split encoding — the number of bytes the value occupies is
written to the bit stream and only the significant little-endian bytes are
written to the byte stream. Decoding is strict: a value stored with more
bytes than it needs, or trailing garbage in either stream, is rejected as
non-canonical, so any payload has exactly one valid encoding.

The trace recorder's file codec is the main consumer (see the trace package).
*/
package cser

import (
	"errors"

	"github.com/dvel-foundation/go-dvel/utils/bits"
	"github.com/dvel-foundation/go-dvel/utils/fast"
)

// Encoding validation errors.
var (
	ErrNonCanonicalEncoding = errors.New("non-canonical encoding: value not packed minimally or unused bits non-zero")
	ErrMalformedEncoding    = errors.New("malformed encoding: structure invalid or truncated")
	ErrTooLargeAlloc        = errors.New("too large allocation: decoded size exceeds limit")
)

// MaxAlloc limits decoded byte-slice sizes to prevent OOM on hostile input.
const MaxAlloc = 100 * 1024

// Writer orchestrates writing to the two streams.
type Writer struct {
	BitsW  *bits.Writer
	BytesW *fast.Writer
}

// Reader orchestrates reading from the two streams.
type Reader struct {
	BitsR  *bits.Reader
	BytesR *fast.Reader
}

// NewWriter creates a ready-to-use cser writer with pre-sized buffers.
func NewWriter() *Writer {
	bbits := &bits.Array{Bytes: make([]byte, 0, 32)}
	bbytes := make([]byte, 0, 200)
	return &Writer{
		BitsW:  bits.NewWriter(bbits),
		BytesW: fast.NewWriter(bbytes),
	}
}

// writeUint64Compact writes a reverse-stop varint: 7 data bits per byte, and
// the MSB set on the FINAL byte. The reversed-suffix trick in binary.go
// depends on the stop bit marking the end.
func writeUint64Compact(bytesW *fast.Writer, v uint64) {
	for {
		chunk := v & 0x7f
		v >>= 7
		if v == 0 {
			chunk |= 0x80
		}
		bytesW.MustWriteByte(byte(chunk))
		if v == 0 {
			return
		}
	}
}

// readUint64Compact decodes the reverse-stop varint. Panics with
// ErrNonCanonicalEncoding if the final byte carries no data bits (the value
// was padded).
func readUint64Compact(bytesR *fast.Reader) uint64 {
	v := uint64(0)
	stop := false
	for i := 0; !stop; i++ {
		chunk := uint64(bytesR.MustReadByte())
		stop = chunk&0x80 != 0
		word := chunk & 0x7f
		v |= word << (i * 7)
		if i > 0 && stop && word == 0 {
			panic(ErrNonCanonicalEncoding)
		}
	}
	return v
}

// writeUint64BitCompact writes v as little-endian bytes: exactly enough to
// represent it, but no fewer than minSize. Returns the byte count.
func writeUint64BitCompact(bytesW *fast.Writer, v uint64, minSize int) (size int) {
	for size < minSize || v != 0 {
		bytesW.MustWriteByte(byte(v))
		size++
		v >>= 8
	}
	return size
}

// readUint64BitCompact reads size little-endian bytes. Panics with
// ErrNonCanonicalEncoding if the top byte is zero while size exceeds minSize.
func readUint64BitCompact(bytesR *fast.Reader, size int, minSize int) uint64 {
	var (
		v    uint64
		last byte
	)
	buf := bytesR.Read(size)
	for i, b := range buf {
		v |= uint64(b) << (8 * i)
		last = b
	}
	if size > minSize && last == 0 {
		panic(ErrNonCanonicalEncoding)
	}
	return v
}

// u64 writes v with split encoding: sizeBits of length into the bit stream,
// the significant bytes into the byte stream.
func (w *Writer) u64(sizeBits int, minSize int, v uint64) {
	size := writeUint64BitCompact(w.BytesW, v, minSize)
	w.BitsW.Write(sizeBits, uint(size-minSize))
}

func (r *Reader) u64(sizeBits int, minSize int) uint64 {
	size := int(r.BitsR.Read(sizeBits)) + minSize
	return readUint64BitCompact(r.BytesR, size, minSize)
}

// U8 writes a byte directly into the byte stream.
func (w *Writer) U8(v uint8) {
	w.BytesW.MustWriteByte(v)
}

// U8 reads a byte from the byte stream.
func (r *Reader) U8() uint8 {
	return r.BytesR.MustReadByte()
}

// U16 writes a uint16 with split encoding (1-2 bytes).
func (w *Writer) U16(v uint16) {
	w.u64(1, 1, uint64(v))
}

// U16 reads a uint16.
func (r *Reader) U16() uint16 {
	v := r.u64(1, 1)
	if v > 0xffff {
		panic(ErrMalformedEncoding)
	}
	return uint16(v)
}

// U32 writes a uint32 with split encoding (1-4 bytes).
func (w *Writer) U32(v uint32) {
	w.u64(2, 1, uint64(v))
}

// U32 reads a uint32.
func (r *Reader) U32() uint32 {
	v := r.u64(2, 1)
	if v > 0xffffffff {
		panic(ErrMalformedEncoding)
	}
	return uint32(v)
}

// U64 writes a uint64 with split encoding (1-8 bytes).
func (w *Writer) U64(v uint64) {
	w.u64(3, 1, v)
}

// U64 reads a uint64.
func (r *Reader) U64() uint64 {
	return r.u64(3, 1)
}

// Bool writes a single bit into the bit stream.
func (w *Writer) Bool(v bool) {
	u := uint(0)
	if v {
		u = 1
	}
	w.BitsW.Write(1, u)
}

// Bool reads a single bit.
func (r *Reader) Bool() bool {
	return r.BitsR.Read(1) != 0
}

// FixedBytes writes raw bytes without a length prefix. The reader must know
// the width (hashes, keys, signatures).
func (w *Writer) FixedBytes(v []byte) {
	w.BytesW.Write(v)
}

// FixedBytes fills v from the byte stream.
func (r *Reader) FixedBytes(v []byte) {
	buf := r.BytesR.Read(len(v))
	copy(v, buf)
}

// SliceBytes writes a length-prefixed byte slice.
func (w *Writer) SliceBytes(v []byte) {
	w.U64(uint64(len(v)))
	w.FixedBytes(v)
}

// SliceBytes reads a length-prefixed byte slice, refusing lengths above
// maxLen (and MaxAlloc).
func (r *Reader) SliceBytes(maxLen int) []byte {
	size := r.U64()
	if size > uint64(maxLen) || size > MaxAlloc {
		panic(ErrTooLargeAlloc)
	}
	buf := make([]byte, size)
	r.FixedBytes(buf)
	return buf
}
