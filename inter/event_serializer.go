package inter

import (
	"errors"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/dvel-foundation/go-dvel/inter/authorpk"
	"github.com/dvel-foundation/go-dvel/utils/fast"
)

// Errors related to event serialization.
var (
	ErrMalformedEvent = errors.New("malformed event encoding: wrong length or truncated")
	ErrUnknownVersion = errors.New("unknown event version: client is likely outdated")
)

const (
	// CanonicalSize is the width of the canonical event encoding:
	// version(1) + prev(32) + author(32) + timestamp(8 LE) + payload(32).
	CanonicalSize = 1 + 32 + 32 + 8 + 32
	// IdentitySize is the width of the identity material: the canonical
	// bytes followed by the signature.
	IdentitySize = CanonicalSize + SigSize
)

// CanonicalBytes returns the exact byte string that is signed and hashed.
//
// Layout (fixed width, no padding):
//
//	[ version (1) ][ prev_hash (32) ][ author (32) ][ timestamp (8 LE) ][ payload_hash (32) ]
//
// The signature is excluded; see IdentityMaterial.
func (e *Event) CanonicalBytes() []byte {
	w := fast.NewWriter(make([]byte, 0, CanonicalSize))
	w.MustWriteByte(e.Version)
	w.Write(e.PrevHash.Bytes())
	w.Write(e.Author.Bytes())
	w.WriteU64LE(uint64(e.Timestamp))
	w.Write(e.PayloadHash.Bytes())
	return w.Bytes()
}

// IdentityMaterial returns the canonical bytes concatenated with the
// signature. The ledger hashes exactly this string to assign event identity.
func (e *Event) IdentityMaterial() []byte {
	w := fast.NewWriter(make([]byte, 0, IdentitySize))
	w.Write(e.CanonicalBytes())
	w.Write(e.Sig.Bytes())
	return w.Bytes()
}

// SignEvent populates e.Sig with the ed25519 signature of the canonical
// bytes under the given seed.
func SignEvent(e *Event, sec authorpk.Secret) {
	e.Sig = BytesToSignature(authorpk.Sign(sec, e.CanonicalBytes()))
}

// VerifyEventSignature checks e.Sig against e.Author over the canonical
// bytes.
func VerifyEventSignature(e *Event) bool {
	return authorpk.Verify(e.Author, e.CanonicalBytes(), e.Sig.Bytes())
}

// MarshalBinary implements encoding.BinaryMarshaler. The wire image is the
// identity material: a fixed 169-byte string.
func (e *Event) MarshalBinary() ([]byte, error) {
	return e.IdentityMaterial(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, the inverse of
// MarshalBinary. It is strict about length and rejects versions newer than
// ProtocolVersion.
func (e *Event) UnmarshalBinary(raw []byte) error {
	if len(raw) != IdentitySize {
		return ErrMalformedEvent
	}
	r := fast.NewReader(raw)

	version := r.MustReadByte()
	if version > ProtocolVersion {
		return ErrUnknownVersion
	}

	prev := hash.BytesToHash(r.Read(32))
	author, err := authorpk.FromBytes(r.Read(32))
	if err != nil {
		return ErrMalformedEvent
	}
	ts := Timestamp(r.ReadU64LE())
	payload := hash.BytesToHash(r.Read(32))
	sig := BytesToSignature(r.Read(SigSize))

	e.Version = version
	e.PrevHash = prev
	e.Author = author
	e.Timestamp = ts
	e.PayloadHash = payload
	e.Sig = sig
	return nil
}

// RPCMarshalEvent converts an event to a JSON-friendly map for API and CLI
// output. Binary fields are hex encoded via hexutil.
func RPCMarshalEvent(e *Event) map[string]interface{} {
	return map[string]interface{}{
		"version":     hexutil.Uint64(e.Version),
		"prevHash":    hexutil.Bytes(e.PrevHash.Bytes()),
		"author":      hexutil.Bytes(e.Author.Bytes()),
		"timestamp":   hexutil.Uint64(e.Timestamp),
		"payloadHash": hexutil.Bytes(e.PayloadHash.Bytes()),
		"signature":   hexutil.Bytes(e.Sig.Bytes()),
	}
}

// RPCUnmarshalEvent converts the RPC output back into an event.
func RPCUnmarshalEvent(fields map[string]interface{}) (*Event, error) {
	mustBeUint64 := func(name string) (uint64, error) {
		s, ok := fields[name].(string)
		if !ok {
			return 0, ErrMalformedEvent
		}
		return hexutil.DecodeUint64(s)
	}
	mustBeBytes := func(name string) ([]byte, error) {
		s, ok := fields[name].(string)
		if !ok {
			return nil, ErrMalformedEvent
		}
		return hexutil.Decode(s)
	}

	version, err := mustBeUint64("version")
	if err != nil {
		return nil, err
	}
	prevB, err := mustBeBytes("prevHash")
	if err != nil {
		return nil, err
	}
	authorB, err := mustBeBytes("author")
	if err != nil {
		return nil, err
	}
	author, err := authorpk.FromBytes(authorB)
	if err != nil {
		return nil, err
	}
	ts, err := mustBeUint64("timestamp")
	if err != nil {
		return nil, err
	}
	payloadB, err := mustBeBytes("payloadHash")
	if err != nil {
		return nil, err
	}
	sigB, err := mustBeBytes("signature")
	if err != nil {
		return nil, err
	}
	if len(sigB) != SigSize {
		return nil, ErrMalformedEvent
	}

	return &Event{
		Version:     uint8(version),
		PrevHash:    hash.BytesToHash(prevB),
		Author:      author,
		Timestamp:   Timestamp(ts),
		PayloadHash: hash.BytesToHash(payloadB),
		Sig:         BytesToSignature(sigB),
	}, nil
}
