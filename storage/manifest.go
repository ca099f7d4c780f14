// Package storage implements the chunk/manifest subsystem: splitting a file
// into content-addressed chunks, describing them in a signed line-format
// manifest, and verifying/reassembling the file later.
//
// The manifest hash and the chunk Merkle root are the values integrators
// anchor into ledger events (as payload hashes), which is why the Merkle
// fold here is exactly the ledger's: lexicographically sorted leaves,
// duplicate-last on odd levels, SHA-256 pairwise.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dvel-foundation/go-dvel/inter"
	"github.com/dvel-foundation/go-dvel/inter/authorpk"
	"github.com/dvel-foundation/go-dvel/ledger"
)

// manifestMagic is the first line of every manifest file.
const manifestMagic = "dvel-manifest-v1"

// Signature errors.
var (
	ErrSignatureMissing = errors.New("manifest signature missing")
	ErrSignatureInvalid = errors.New("manifest signature invalid")
)

// InvalidManifestError reports a structural problem in a manifest file.
type InvalidManifestError struct {
	Reason string
}

func (e *InvalidManifestError) Error() string {
	return "invalid manifest: " + e.Reason
}

// HashMismatchError reports a chunk whose content does not match the
// manifest.
type HashMismatchError struct {
	Index int
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("chunk %d hash mismatch", e.Index)
}

// ChunkMeta describes a single chunk by its SHA-256 content hash.
type ChunkMeta struct {
	Hash hash.Hash
}

// Manifest describes a chunked file. Signer and Signature are optional: an
// unsigned manifest still verifies chunk content, it just proves nothing
// about who produced it.
type Manifest struct {
	Version   uint8
	FileName  string
	TotalSize uint64
	ChunkSize uint64
	Chunks    []ChunkMeta
	Signer    *authorpk.PubKey
	Signature *inter.Signature
}

// canonicalString is the signed portion of the manifest file: everything
// except the signer/signature trailer.
func (m *Manifest) canonicalString() string {
	out := manifestMagic + "\n"
	out += fmt.Sprintf("file_name:%s\n", m.FileName)
	out += fmt.Sprintf("total_size:%d\n", m.TotalSize)
	out += fmt.Sprintf("chunk_size:%d\n", m.ChunkSize)
	out += fmt.Sprintf("chunks:%d\n", len(m.Chunks))
	for _, c := range m.Chunks {
		out += "h:" + common.Bytes2Hex(c.Hash.Bytes()) + "\n"
	}
	return out
}

// CanonicalBytes returns the byte form of the signed manifest portion.
func (m *Manifest) CanonicalBytes() []byte {
	return []byte(m.canonicalString())
}

// Hash returns the SHA-256 hash of the canonical (unsigned) manifest bytes.
func (m *Manifest) Hash() hash.Hash {
	h := sha256.Sum256(m.CanonicalBytes())
	return hash.BytesToHash(h[:])
}

// ChunkMerkleRoot folds the chunk hashes with the ledger's Merkle rule.
// Returns false for an empty file.
func (m *Manifest) ChunkMerkleRoot() (hash.Hash, bool) {
	leaves := make([]hash.Hash, len(m.Chunks))
	for i, c := range m.Chunks {
		leaves[i] = c.Hash
	}
	return ledger.MerkleRootOfLeaves(leaves)
}

// String renders the full manifest file content, including the signature
// trailer when present.
func (m *Manifest) String() string {
	out := m.canonicalString()
	if m.Signer != nil {
		out += "signer:" + common.Bytes2Hex(m.Signer.Bytes()) + "\n"
	}
	if m.Signature != nil {
		out += "signature:" + common.Bytes2Hex(m.Signature.Bytes()) + "\n"
	}
	return out
}

// Sign populates the signer/signature trailer from the given seed. The
// signature covers the canonical bytes, so it must be re-applied if any
// chunk changes.
func (m *Manifest) Sign(sec authorpk.Secret) {
	signer := authorpk.FromSecret(sec)
	sig := inter.BytesToSignature(authorpk.Sign(sec, m.CanonicalBytes()))
	m.Signer = &signer
	m.Signature = &sig
}

// VerifySignature checks the signature trailer against the canonical bytes.
func (m *Manifest) VerifySignature() error {
	if m.Signer == nil || m.Signature == nil {
		return ErrSignatureMissing
	}
	if !authorpk.Verify(*m.Signer, m.CanonicalBytes(), m.Signature.Bytes()) {
		return ErrSignatureInvalid
	}
	return nil
}

// ManifestPath returns the manifest file path for a chunked file.
func ManifestPath(dir string, fileName string) string {
	return filepath.Join(dir, fileName+".manifest")
}

// ChunkPath returns the path of the index-th chunk of a chunked file.
func ChunkPath(dir string, fileName string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%s.chunk.%08d", fileName, index))
}

func hexToHash(s string) (hash.Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return hash.Zero, &InvalidManifestError{Reason: "bad hex"}
	}
	return hash.BytesToHash(b), nil
}

func hexToSignature(s string) (inter.Signature, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != inter.SigSize {
		return inter.Signature{}, &InvalidManifestError{Reason: "bad hex"}
	}
	return inter.BytesToSignature(b), nil
}
