package trace

import (
	"github.com/Fantom-foundation/lachesis-base/hash"

	"github.com/dvel-foundation/go-dvel/inter"
	"github.com/dvel-foundation/go-dvel/inter/authorpk"
	"github.com/dvel-foundation/go-dvel/utils/cser"
)

// codec.go is the compact binary file format for row streams. Fixed-width
// fields go to the byte stream, flags and optional-field markers to the bit
// stream (see utils/cser). The encoding is canonical: a row stream has
// exactly one valid binary image, so checkers can compare dumps byte for
// byte.

// maxRows caps decoded row counts to keep hostile inputs from forcing huge
// allocations.
const maxRows = 1 << 24

// EncodeRows serializes a row sequence into the compact binary form.
func EncodeRows(rows []Row) ([]byte, error) {
	return cser.MarshalBinaryAdapter(func(w *cser.Writer) error {
		w.U64(uint64(len(rows)))
		for i := range rows {
			marshalRow(w, &rows[i])
		}
		return nil
	})
}

// DecodeRows parses the compact binary form back into rows.
func DecodeRows(raw []byte) ([]Row, error) {
	var rows []Row
	err := cser.UnmarshalBinaryAdapter(raw, func(r *cser.Reader) error {
		n := r.U64()
		if n > maxRows {
			return cser.ErrTooLargeAlloc
		}
		rows = make([]Row, n)
		for i := range rows {
			unmarshalRow(r, &rows[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func marshalRow(w *cser.Writer, row *Row) {
	w.FixedBytes(row.PrevHash.Bytes())
	w.FixedBytes(row.Author.Bytes())
	w.U64(uint64(row.Timestamp))
	w.FixedBytes(row.PayloadHash.Bytes())
	w.FixedBytes(row.Signature.Bytes())

	w.Bool(row.ParentPresent)
	w.Bool(row.AncestorCheck)
	w.U64(row.QuarantinedUntilBefore)
	w.U64(row.QuarantinedUntilAfter)

	w.Bool(row.MerkleRoot != nil)
	if row.MerkleRoot != nil {
		w.FixedBytes(row.MerkleRoot.Bytes())
	}
	w.Bool(row.PreferredTip != nil)
	if row.PreferredTip != nil {
		w.FixedBytes(row.PreferredTip.Bytes())
	}

	w.U64(row.AuthorWeightFP)
}

func unmarshalRow(r *cser.Reader, row *Row) {
	var buf32 [32]byte
	var buf64 [64]byte

	r.FixedBytes(buf32[:])
	row.PrevHash = hash.BytesToHash(buf32[:])
	r.FixedBytes(buf32[:])
	row.Author, _ = authorpk.FromBytes(buf32[:])
	row.Timestamp = inter.Timestamp(r.U64())
	r.FixedBytes(buf32[:])
	row.PayloadHash = hash.BytesToHash(buf32[:])
	r.FixedBytes(buf64[:])
	row.Signature = inter.BytesToSignature(buf64[:])

	row.ParentPresent = r.Bool()
	row.AncestorCheck = r.Bool()
	row.QuarantinedUntilBefore = r.U64()
	row.QuarantinedUntilAfter = r.U64()

	if r.Bool() {
		r.FixedBytes(buf32[:])
		root := hash.BytesToHash(buf32[:])
		row.MerkleRoot = &root
	}
	if r.Bool() {
		r.FixedBytes(buf32[:])
		tip := hash.BytesToHash(buf32[:])
		row.PreferredTip = &tip
	}

	row.AuthorWeightFP = r.U64()
}
