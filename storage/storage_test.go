package storage

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvel-foundation/go-dvel/inter/authorpk"
)

func sampleBytes(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i % 251)
	}
	return out
}

func testSecret(fill byte) authorpk.Secret {
	var s authorpk.Secret
	for i := range s {
		s[i] = fill
	}
	return s
}

func TestChunkSignVerifyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "sample.bin")
	data := sampleBytes(32*1024 + 123)
	require.NoError(t, ioutil.WriteFile(inputPath, data, 0600))

	manifest, err := ChunkFileToDir(inputPath, dir, 1024)
	require.NoError(t, err)
	require.Equal(t, uint64(len(data)), manifest.TotalSize)
	require.Equal(t, 33, len(manifest.Chunks), "32k/1k full chunks plus the 123-byte tail")

	manifest.Sign(testSecret(7))

	mpath := ManifestPath(dir, manifest.FileName)
	require.NoError(t, WriteManifest(manifest, mpath))

	loaded, err := ReadManifest(mpath)
	require.NoError(t, err)
	require.NoError(t, loaded.VerifySignature())
	require.NoError(t, VerifyChunks(loaded, dir))

	outPath := filepath.Join(dir, "rebuilt.bin")
	require.NoError(t, Reassemble(loaded, dir, outPath))
	rebuilt, err := ioutil.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, data, rebuilt)
}

func TestManifestAndChunkRootsMatchHelpers(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "sample.bin")
	require.NoError(t, ioutil.WriteFile(inputPath, sampleBytes(10000), 0600))

	manifest, err := ChunkFileToDir(inputPath, dir, 2048)
	require.NoError(t, err)
	mpath := ManifestPath(dir, manifest.FileName)
	require.NoError(t, WriteManifest(manifest, mpath))

	hStruct := manifest.Hash()
	hFile, err := ManifestHashFromFile(mpath)
	require.NoError(t, err)
	require.Equal(t, hStruct, hFile)

	cStruct, ok := manifest.ChunkMerkleRoot()
	require.True(t, ok)
	cFile, ok, err := ChunkMerkleRootFromFile(mpath)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, cStruct, cFile)

	// a corrupt manifest is rejected, not silently re-hashed
	require.NoError(t, ioutil.WriteFile(mpath, []byte("corrupt"), 0600))
	_, err = ManifestHashFromFile(mpath)
	var invalid *InvalidManifestError
	require.ErrorAs(t, err, &invalid)
}

func TestDetectCorruptChunk(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "sample.bin")
	require.NoError(t, ioutil.WriteFile(inputPath, sampleBytes(4096), 0600))

	manifest, err := ChunkFileToDir(inputPath, dir, 512)
	require.NoError(t, err)

	firstChunk := ChunkPath(dir, manifest.FileName, 0)
	c0, err := ioutil.ReadFile(firstChunk)
	require.NoError(t, err)
	c0[0] ^= 0xff
	require.NoError(t, ioutil.WriteFile(firstChunk, c0, 0600))

	err = VerifyChunks(manifest, dir)
	var mismatch *HashMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, 0, mismatch.Index)

	// reassembly re-checks too
	err = Reassemble(manifest, dir, filepath.Join(dir, "out.bin"))
	require.ErrorAs(t, err, &mismatch)
}

func TestSignatureTampering(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "sample.bin")
	require.NoError(t, ioutil.WriteFile(inputPath, sampleBytes(1000), 0600))

	manifest, err := ChunkFileToDir(inputPath, dir, 256)
	require.NoError(t, err)

	// unsigned manifest has no signature to verify
	assert.Equal(t, ErrSignatureMissing, manifest.VerifySignature())

	manifest.Sign(testSecret(1))
	require.NoError(t, manifest.VerifySignature())
	require.Equal(t, authorpk.FromSecret(testSecret(1)), *manifest.Signer)

	// content change invalidates the signature
	manifest.TotalSize++
	assert.Equal(t, ErrSignatureInvalid, manifest.VerifySignature())
	manifest.TotalSize--

	// forged signer invalidates it too
	forged := authorpk.FromSecret(testSecret(2))
	manifest.Signer = &forged
	assert.Equal(t, ErrSignatureInvalid, manifest.VerifySignature())
}

func TestReadManifestStrictness(t *testing.T) {
	dir := t.TempDir()

	write := func(content string) string {
		p := filepath.Join(dir, "m.manifest")
		require.NoError(t, ioutil.WriteFile(p, []byte(content), 0600))
		return p
	}

	var invalid *InvalidManifestError

	// unknown lines are rejected
	_, err := ReadManifest(write(manifestMagic + "\nfile_name:a\ntotal_size:1\nchunk_size:1\nchunks:0\nbogus:x\n"))
	require.ErrorAs(t, err, &invalid)

	// missing required fields
	_, err = ReadManifest(write(manifestMagic + "\ntotal_size:1\nchunk_size:1\nchunks:0\n"))
	require.ErrorAs(t, err, &invalid)

	// declared chunk count must match listed hashes
	_, err = ReadManifest(write(manifestMagic + "\nfile_name:a\ntotal_size:1\nchunk_size:1\nchunks:2\n"))
	require.ErrorAs(t, err, &invalid)

	// bad hex in a chunk hash
	_, err = ReadManifest(write(manifestMagic + "\nfile_name:a\ntotal_size:1\nchunk_size:1\nchunks:1\nh:zz\n"))
	require.ErrorAs(t, err, &invalid)
}

func TestEmptyFileHasNoChunkRoot(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "empty.bin")
	require.NoError(t, ioutil.WriteFile(inputPath, nil, 0600))

	manifest, err := ChunkFileToDir(inputPath, dir, 64)
	require.NoError(t, err)
	require.Empty(t, manifest.Chunks)
	require.Equal(t, uint64(0), manifest.TotalSize)

	_, ok := manifest.ChunkMerkleRoot()
	require.False(t, ok)

	// round trip still works and verifies vacuously
	mpath := ManifestPath(dir, manifest.FileName)
	require.NoError(t, WriteManifest(manifest, mpath))
	loaded, err := ReadManifest(mpath)
	require.NoError(t, err)
	require.NoError(t, VerifyChunks(loaded, dir))
}
