package storage

import (
	"crypto/sha256"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/sirupsen/logrus"

	"github.com/dvel-foundation/go-dvel/inter"
	"github.com/dvel-foundation/go-dvel/inter/authorpk"
)

var log = logrus.WithField("module", "storage")

// ChunkFileToDir splits input into chunkSize-byte chunks under outDir and
// returns the unsigned manifest describing them. The final chunk may be
// shorter; a zero chunkSize is invalid.
func ChunkFileToDir(input string, outDir string, chunkSize int) (*Manifest, error) {
	if chunkSize == 0 {
		return nil, &InvalidManifestError{Reason: "chunk_size must be > 0"}
	}
	if err := os.MkdirAll(outDir, 0700); err != nil {
		return nil, err
	}

	fileName := baseFileName(input)
	if fileName == "" {
		return nil, &InvalidManifestError{Reason: "invalid file name"}
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	var chunks []ChunkMeta
	var total uint64
	idx := 0

	for {
		n, err := io.ReadFull(f, buf)
		if n > 0 {
			data := buf[:n]
			total += uint64(n)
			sum := sha256.Sum256(data)
			if werr := ioutil.WriteFile(ChunkPath(outDir, fileName, idx), data, 0600); werr != nil {
				return nil, werr
			}
			chunks = append(chunks, ChunkMeta{Hash: hash.BytesToHash(sum[:])})
			idx++
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{
		"file":   fileName,
		"chunks": len(chunks),
		"bytes":  total,
	}).Debug("file chunked")

	return &Manifest{
		Version:   1,
		FileName:  fileName,
		TotalSize: total,
		ChunkSize: uint64(chunkSize),
		Chunks:    chunks,
	}, nil
}

// WriteManifest writes the manifest (with any signature trailer) to path.
func WriteManifest(m *Manifest, path string) error {
	return ioutil.WriteFile(path, []byte(m.String()), 0600)
}

// ReadManifest parses a manifest file. Unknown lines are an error: the
// format is a closed protocol, not a config file.
func ReadManifest(path string) (*Manifest, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var (
		fileName       *string
		totalSize      *uint64
		chunkSize      *uint64
		chunks         []ChunkMeta
		signer         *authorpk.PubKey
		signature      *inter.Signature
		declaredChunks = -1
	)

	for _, line := range strings.Split(string(raw), "\n") {
		if line == "" || line == manifestMagic {
			continue
		}
		switch {
		case strings.HasPrefix(line, "file_name:"):
			v := strings.TrimPrefix(line, "file_name:")
			fileName = &v
		case strings.HasPrefix(line, "total_size:"):
			v, perr := strconv.ParseUint(strings.TrimPrefix(line, "total_size:"), 10, 64)
			if perr != nil {
				return nil, &InvalidManifestError{Reason: "bad total_size"}
			}
			totalSize = &v
		case strings.HasPrefix(line, "chunk_size:"):
			v, perr := strconv.ParseUint(strings.TrimPrefix(line, "chunk_size:"), 10, 64)
			if perr != nil {
				return nil, &InvalidManifestError{Reason: "bad chunk_size"}
			}
			chunkSize = &v
		case strings.HasPrefix(line, "chunks:"):
			v, perr := strconv.Atoi(strings.TrimPrefix(line, "chunks:"))
			if perr != nil {
				return nil, &InvalidManifestError{Reason: "bad chunk count"}
			}
			declaredChunks = v
		case strings.HasPrefix(line, "h:"):
			h, herr := hexToHash(strings.TrimPrefix(line, "h:"))
			if herr != nil {
				return nil, herr
			}
			chunks = append(chunks, ChunkMeta{Hash: h})
		case strings.HasPrefix(line, "signer:"):
			b, herr := hexToHash(strings.TrimPrefix(line, "signer:"))
			if herr != nil {
				return nil, herr
			}
			pk, perr := authorpk.FromBytes(b.Bytes())
			if perr != nil {
				return nil, &InvalidManifestError{Reason: "bad signer"}
			}
			signer = &pk
		case strings.HasPrefix(line, "signature:"):
			sig, herr := hexToSignature(strings.TrimPrefix(line, "signature:"))
			if herr != nil {
				return nil, herr
			}
			signature = &sig
		default:
			return nil, &InvalidManifestError{Reason: "unknown line"}
		}
	}

	if fileName == nil {
		return nil, &InvalidManifestError{Reason: "missing file_name"}
	}
	if totalSize == nil {
		return nil, &InvalidManifestError{Reason: "missing total_size"}
	}
	if chunkSize == nil {
		return nil, &InvalidManifestError{Reason: "missing chunk_size"}
	}
	if declaredChunks >= 0 && declaredChunks != len(chunks) {
		return nil, &InvalidManifestError{Reason: "chunk count mismatch"}
	}

	return &Manifest{
		Version:   1,
		FileName:  *fileName,
		TotalSize: *totalSize,
		ChunkSize: *chunkSize,
		Chunks:    chunks,
		Signer:    signer,
		Signature: signature,
	}, nil
}

// VerifyChunks checks every chunk file in chunkDir against the manifest:
// per-chunk content hashes and the declared total size.
func VerifyChunks(m *Manifest, chunkDir string) error {
	var total uint64
	for idx, meta := range m.Chunks {
		data, err := ioutil.ReadFile(ChunkPath(chunkDir, m.FileName, idx))
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		total += uint64(len(data))
		if hash.BytesToHash(sum[:]) != meta.Hash {
			return &HashMismatchError{Index: idx}
		}
	}
	if total != m.TotalSize {
		return &InvalidManifestError{Reason: "total_size mismatch"}
	}
	return nil
}

// Reassemble concatenates the chunks into output, re-checking each chunk
// hash as it goes.
func Reassemble(m *Manifest, chunkDir string, output string) error {
	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer out.Close()

	for idx := range m.Chunks {
		data, err := ioutil.ReadFile(ChunkPath(chunkDir, m.FileName, idx))
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		if hash.BytesToHash(sum[:]) != m.Chunks[idx].Hash {
			return &HashMismatchError{Index: idx}
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// ManifestHashFromFile reads a manifest and returns its canonical hash, for
// anchoring into ledger events.
func ManifestHashFromFile(path string) (hash.Hash, error) {
	m, err := ReadManifest(path)
	if err != nil {
		return hash.Zero, err
	}
	return m.Hash(), nil
}

// ChunkMerkleRootFromFile reads a manifest and returns the Merkle root over
// its chunk hashes. Returns false for an empty file.
func ChunkMerkleRootFromFile(path string) (hash.Hash, bool, error) {
	m, err := ReadManifest(path)
	if err != nil {
		return hash.Zero, false, err
	}
	root, ok := m.ChunkMerkleRoot()
	return root, ok, nil
}

func baseFileName(path string) string {
	base := filepath.Base(path)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return ""
	}
	return base
}
