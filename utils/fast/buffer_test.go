package fast

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterAppendsSequentially(t *testing.T) {
	w := NewWriter(make([]byte, 0, 16))
	w.MustWriteByte(0x01)
	w.Write([]byte{0x02, 0x03})
	w.MustWriteByte(0x04)

	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, w.Bytes())
}

func TestReaderConsumesSequentially(t *testing.T) {
	r := NewReader([]byte{0xaa, 0xbb, 0xcc, 0xdd})

	require.Equal(t, byte(0xaa), r.MustReadByte())
	require.Equal(t, []byte{0xbb, 0xcc}, r.Read(2))
	require.Equal(t, 3, r.Position())
	require.False(t, r.Empty())

	require.Equal(t, byte(0xdd), r.MustReadByte())
	require.True(t, r.Empty())
}

func TestU64LERoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 0xff, 0x0100, 0xdeadbeef, ^uint64(0)}
	for _, v := range cases {
		w := NewWriter(nil)
		w.WriteU64LE(v)
		require.Len(t, w.Bytes(), 8)

		r := NewReader(w.Bytes())
		require.Equal(t, v, r.ReadU64LE())
		require.True(t, r.Empty())
	}
}

func TestU64LEByteOrder(t *testing.T) {
	w := NewWriter(nil)
	w.WriteU64LE(0x0102030405060708)
	// least significant byte first
	require.Equal(t, []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, w.Bytes())
}

func TestReadSharesMemory(t *testing.T) {
	buf := []byte{1, 2, 3}
	r := NewReader(buf)
	view := r.Read(3)
	view[0] = 9
	if !bytes.Equal(buf, []byte{9, 2, 3}) {
		t.Fatalf("Read must return a view over the source buffer, got %v", buf)
	}
}

func TestReadPastEndPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on overrun")
		}
	}()
	NewReader([]byte{1}).Read(2)
}
