package launcher

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/dvel-foundation/go-dvel/inter/authorpk"
	"github.com/dvel-foundation/go-dvel/storage"
)

var uploadCommand = cli.Command{
	Name:      "upload",
	Usage:     "Chunk a file and write its manifest",
	ArgsUsage: "<input_file> <out_dir> <chunk_size_bytes>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "sign",
			Usage: "Sign the manifest with the given 32-byte hex seed",
		},
	},
	Action: runUpload,
}

var downloadCommand = cli.Command{
	Name:      "download",
	Usage:     "Verify a manifest and reassemble the file from its chunks",
	ArgsUsage: "<manifest_path> <chunk_dir> <output_path>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "expect-signer",
			Usage: "Require the manifest to be signed by the given hex pubkey",
		},
	},
	Action: runDownload,
}

func runUpload(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) < 3 {
		return errors.New("upload requires <input_file> <out_dir> <chunk_size_bytes>")
	}
	chunkSize, err := strconv.Atoi(args.Get(2))
	if err != nil || chunkSize <= 0 {
		return errors.New("chunk_size must be a positive integer")
	}

	manifest, err := storage.ChunkFileToDir(args.Get(0), args.Get(1), chunkSize)
	if err != nil {
		return err
	}

	if seedHex := ctx.String("sign"); seedHex != "" {
		sec, err := authorpk.SecretFromString(seedHex)
		if err != nil {
			return err
		}
		manifest.Sign(sec)
	}

	mpath := storage.ManifestPath(args.Get(1), manifest.FileName)
	if err := storage.WriteManifest(manifest, mpath); err != nil {
		return err
	}

	fmt.Fprintf(ctx.App.Writer, "chunked %s into %d chunks -> %s\n",
		manifest.FileName, len(manifest.Chunks), mpath)
	fmt.Fprintf(ctx.App.Writer, "manifest hash: %s\n", hexutil.Encode(manifest.Hash().Bytes()))
	if root, ok := manifest.ChunkMerkleRoot(); ok {
		fmt.Fprintf(ctx.App.Writer, "chunk root:    %s\n", hexutil.Encode(root.Bytes()))
	}
	return nil
}

func runDownload(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) < 3 {
		return errors.New("download requires <manifest_path> <chunk_dir> <output_path>")
	}

	manifest, err := storage.ReadManifest(args.Get(0))
	if err != nil {
		return err
	}

	if signerHex := ctx.String("expect-signer"); signerHex != "" {
		expected, err := authorpk.FromString(signerHex)
		if err != nil {
			return err
		}
		if manifest.Signer == nil || *manifest.Signer != expected {
			return errors.New("manifest signer does not match expected key")
		}
	}

	if manifest.Signature != nil {
		if err := manifest.VerifySignature(); err != nil {
			return err
		}
	}

	if err := storage.VerifyChunks(manifest, args.Get(1)); err != nil {
		return err
	}
	if err := storage.Reassemble(manifest, args.Get(1), args.Get(2)); err != nil {
		return err
	}

	fmt.Fprintf(ctx.App.Writer, "reassembled -> %s\n", args.Get(2))
	return nil
}
