package cser

import (
	"github.com/dvel-foundation/go-dvel/utils/bits"
	"github.com/dvel-foundation/go-dvel/utils/fast"
)

// binary.go packs the two cser streams into a single self-describing blob.
//
// Wire layout:
//
//	[ body bytes ... ] [ bit-stream bytes ... ] [ reversed varint(len(bit-stream)) ]
//
// The length suffix is written back to front so the reader can locate the
// split point by scanning from the end of the blob.

// MarshalBinaryAdapter runs the given serialization callback and packs the
// resulting streams into one byte slice.
func MarshalBinaryAdapter(marshalCser func(*Writer) error) ([]byte, error) {
	w := NewWriter()

	err := marshalCser(w)
	if err != nil {
		return nil, err
	}

	return binaryFromCSER(w.BitsW.Array, w.BytesW.Bytes())
}

func binaryFromCSER(bbits *bits.Array, bbytes []byte) (raw []byte, err error) {
	bodyBytes := fast.NewWriter(bbytes)
	bodyBytes.Write(bbits.Bytes)

	sizeWriter := fast.NewWriter(make([]byte, 0, 4))
	writeUint64Compact(sizeWriter, uint64(len(bbits.Bytes)))
	bodyBytes.Write(reversed(sizeWriter.Bytes()))

	return bodyBytes.Bytes(), nil
}

func binaryToCSER(raw []byte) (bbits *bits.Array, bbytes []byte, err error) {
	// The suffix varint is read from at most the last 9 bytes, which carry
	// up to 63 bits of length.
	bitsSizeBuf := reversed(tail(raw, 9))

	bitsSizeReader := fast.NewReader(bitsSizeBuf)
	bitsSize := readUint64Compact(bitsSizeReader)

	raw = raw[:len(raw)-bitsSizeReader.Position()]

	if uint64(len(raw)) < bitsSize {
		err = ErrMalformedEncoding
		return
	}

	bbits = &bits.Array{Bytes: raw[uint64(len(raw))-bitsSize:]}
	bbytes = raw[:uint64(len(raw))-bitsSize]
	return
}

// UnmarshalBinaryAdapter splits a packed blob back into streams and runs the
// given deserialization callback. Reader primitives panic on malformed input;
// the recover here converts those into errors at the trust boundary.
func UnmarshalBinaryAdapter(raw []byte, unmarshalCser func(reader *Reader) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if known, ok := r.(error); ok && (known == ErrNonCanonicalEncoding || known == ErrTooLargeAlloc) {
				err = known
				return
			}
			err = ErrMalformedEncoding
		}
	}()

	bbits, bbytes, err := binaryToCSER(raw)
	if err != nil {
		return err
	}

	bodyReader := &Reader{
		BitsR:  bits.NewReader(bbits),
		BytesR: fast.NewReader(bbytes),
	}

	err = unmarshalCser(bodyReader)
	if err != nil {
		return err
	}

	// Strict mode: every byte and bit must be consumed, and trailing pad
	// bits must be zero.
	if bodyReader.BitsR.NonReadBytes() > 1 {
		return ErrNonCanonicalEncoding
	}
	tailBits := bodyReader.BitsR.Read(bodyReader.BitsR.NonReadBits())
	if tailBits != 0 {
		return ErrNonCanonicalEncoding
	}
	if !bodyReader.BytesR.Empty() {
		return ErrNonCanonicalEncoding
	}

	return nil
}

func tail(b []byte, max int) []byte {
	if len(b) > max {
		return b[len(b)-max:]
	}
	return b
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
