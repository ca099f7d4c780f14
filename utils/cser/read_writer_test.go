package cser

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func marshalUnmarshal(t *testing.T, write func(*Writer) error, read func(*Reader) error) error {
	t.Helper()
	raw, err := MarshalBinaryAdapter(write)
	require.NoError(t, err)
	return UnmarshalBinaryAdapter(raw, read)
}

func TestIntegerRoundTrip(t *testing.T) {
	u8s := []uint8{0, 1, 0x7f, 0xff}
	u16s := []uint16{0, 1, 0xff, 0x100, math.MaxUint16}
	u32s := []uint32{0, 1, 0xff, 0x100, 0xffff, 0x10000, math.MaxUint32}
	u64s := []uint64{0, 1, 0xff, 0x100, 0xffffffff, 0x100000000, math.MaxUint64}

	err := marshalUnmarshal(t,
		func(w *Writer) error {
			for _, v := range u8s {
				w.U8(v)
			}
			for _, v := range u16s {
				w.U16(v)
			}
			for _, v := range u32s {
				w.U32(v)
			}
			for _, v := range u64s {
				w.U64(v)
			}
			return nil
		},
		func(r *Reader) error {
			for _, v := range u8s {
				require.Equal(t, v, r.U8())
			}
			for _, v := range u16s {
				require.Equal(t, v, r.U16())
			}
			for _, v := range u32s {
				require.Equal(t, v, r.U32())
			}
			for _, v := range u64s {
				require.Equal(t, v, r.U64())
			}
			return nil
		},
	)
	require.NoError(t, err)
}

func TestBoolsAndBytesRoundTrip(t *testing.T) {
	flags := []bool{true, false, false, true, true, false, true, true, true}
	fixed := []byte{0xde, 0xad, 0xbe, 0xef}
	slice := []byte("payload bytes of arbitrary length")

	err := marshalUnmarshal(t,
		func(w *Writer) error {
			for _, f := range flags {
				w.Bool(f)
			}
			w.FixedBytes(fixed)
			w.SliceBytes(slice)
			return nil
		},
		func(r *Reader) error {
			for i, f := range flags {
				require.Equal(t, f, r.Bool(), "flag %d", i)
			}
			got := make([]byte, len(fixed))
			r.FixedBytes(got)
			require.Equal(t, fixed, got)
			require.Equal(t, slice, r.SliceBytes(1024))
			return nil
		},
	)
	require.NoError(t, err)
}

func TestEmptyPayload(t *testing.T) {
	err := marshalUnmarshal(t,
		func(w *Writer) error { return nil },
		func(r *Reader) error { return nil },
	)
	require.NoError(t, err)
}

func TestTrailingBodyBytesRejected(t *testing.T) {
	raw, err := MarshalBinaryAdapter(func(w *Writer) error {
		w.U64(42)
		w.U64(43)
		return nil
	})
	require.NoError(t, err)

	err = UnmarshalBinaryAdapter(raw, func(r *Reader) error {
		_ = r.U64()
		return nil
	})
	require.Equal(t, ErrNonCanonicalEncoding, err)
}

func TestTruncatedInputRejected(t *testing.T) {
	raw, err := MarshalBinaryAdapter(func(w *Writer) error {
		w.SliceBytes([]byte("0123456789"))
		return nil
	})
	require.NoError(t, err)

	err = UnmarshalBinaryAdapter(raw[:len(raw)/2], func(r *Reader) error {
		_ = r.SliceBytes(1024)
		return nil
	})
	require.Error(t, err)
}

func TestOversizeSliceRejected(t *testing.T) {
	raw, err := MarshalBinaryAdapter(func(w *Writer) error {
		w.SliceBytes(make([]byte, 64))
		return nil
	})
	require.NoError(t, err)

	err = UnmarshalBinaryAdapter(raw, func(r *Reader) error {
		_ = r.SliceBytes(16)
		return nil
	})
	require.Equal(t, ErrTooLargeAlloc, err)
}

func TestNonMinimalIntegerRejected(t *testing.T) {
	// Hand-build a blob where the value 5 is stored with 2 bytes instead
	// of 1: body = [0x05, 0x00], bit stream declares size-1 = 1.
	w := NewWriter()
	w.BytesW.MustWriteByte(0x05)
	w.BytesW.MustWriteByte(0x00)
	w.BitsW.Write(3, 1)
	raw, err := binaryFromCSER(w.BitsW.Array, w.BytesW.Bytes())
	require.NoError(t, err)

	err = UnmarshalBinaryAdapter(raw, func(r *Reader) error {
		_ = r.U64()
		return nil
	})
	require.Equal(t, ErrNonCanonicalEncoding, err)
}
