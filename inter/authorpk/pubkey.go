// Package authorpk provides abstractions for handling event author keys.
// Authors are identified by raw 32-byte ed25519 public keys; secrets are the
// 32-byte ed25519 seeds they derive from. The package wraps the standard
// library primitives with fixed-width types and hex conversion utilities so
// the ledger and overlay can treat authors as opaque comparable values.
package authorpk

import (
	"crypto/ed25519"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	// Size is the width of an author public key in bytes.
	Size = 32
	// SecretSize is the width of a signing seed in bytes.
	SecretSize = 32
	// SignatureSize is the width of an ed25519 signature in bytes.
	SignatureSize = 64
)

// PubKey is a raw ed25519 author public key.
type PubKey [Size]byte

// Secret is a raw ed25519 signing seed.
type Secret [SecretSize]byte

// Empty reports whether the key is all-zero (uninitialized).
func (pk PubKey) Empty() bool {
	return pk == PubKey{}
}

// Bytes returns the key as a byte slice.
func (pk PubKey) Bytes() []byte {
	return pk[:]
}

// String returns the hexadecimal representation, prefixed with "0x".
func (pk PubKey) String() string {
	return hexutil.Encode(pk[:])
}

// FromBytes reconstructs a PubKey from a byte slice.
// Returns an error unless the slice is exactly Size bytes.
func FromBytes(b []byte) (PubKey, error) {
	if len(b) != Size {
		return PubKey{}, errors.New("author pubkey must be 32 bytes")
	}
	var pk PubKey
	copy(pk[:], b)
	return pk, nil
}

// FromString parses a hex string (with or without "0x" prefix) into a PubKey.
func FromString(str string) (PubKey, error) {
	return FromBytes(common.FromHex(str))
}

// SecretFromBytes reconstructs a Secret from a byte slice.
func SecretFromBytes(b []byte) (Secret, error) {
	if len(b) != SecretSize {
		return Secret{}, errors.New("secret seed must be 32 bytes")
	}
	var s Secret
	copy(s[:], b)
	return s, nil
}

// SecretFromString parses a hex string into a Secret.
func SecretFromString(str string) (Secret, error) {
	return SecretFromBytes(common.FromHex(str))
}

// FromSecret derives the author public key of a signing seed.
func FromSecret(sec Secret) PubKey {
	priv := ed25519.NewKeyFromSeed(sec[:])
	pub := priv.Public().(ed25519.PublicKey)
	var pk PubKey
	copy(pk[:], pub)
	return pk
}

// Sign signs msg with the given seed and returns the 64-byte signature.
func Sign(sec Secret, msg []byte) []byte {
	priv := ed25519.NewKeyFromSeed(sec[:])
	return ed25519.Sign(priv, msg)
}

// Verify checks an ed25519 signature against a message and author key.
// Returns false for malformed input of any kind.
func Verify(pk PubKey, msg []byte, sig []byte) bool {
	if len(sig) != SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pk[:]), msg, sig)
}

// MarshalText implements encoding.TextMarshaler, emitting the hex form.
func (pk *PubKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, parsing the hex form.
func (pk *PubKey) UnmarshalText(input []byte) error {
	res, err := FromString(string(input))
	if err != nil {
		return err
	}
	*pk = res
	return nil
}
