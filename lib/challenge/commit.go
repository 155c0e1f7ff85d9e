package challenge

import (
	"context"

	"golang.org/x/xerrors"

	"github.com/filecoin-project/mixproof/lib/chunker"
	"github.com/filecoin-project/mixproof/lib/mixhash"
	"github.com/filecoin-project/mixproof/lib/proof"
)

// Commitment is the layered tree over a file's chunks together with the
// published mix hash.
type Commitment struct {
	Tree      *proof.LayeredTree
	Length    int64
	ChunkSize int
	Mix       mixhash.MixHash
}

// Commit leaf-hashes every chunk of src and builds the layered tree.
func Commit(ctx context.Context, h proof.Hasher, src *chunker.Source, parallelism int) (*Commitment, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}

	n := src.ChunkCount()
	if n == 0 {
		return nil, xerrors.Errorf("committing empty source: %w", proof.ErrEmptyInput)
	}

	leaves := make([]proof.Digest, n)
	err := src.ForEach(ctx, parallelism, func(i int, chunk []byte) error {
		leaves[i] = h.LeafHash(chunk)
		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("hashing chunks: %w", err)
	}

	tree, err := proof.BuildLayeredTree(h, leaves)
	if err != nil {
		return nil, xerrors.Errorf("building tree: %w", err)
	}

	mix, err := mixhash.New(h.Type, uint64(src.Size()), tree.Root())
	if err != nil {
		return nil, xerrors.Errorf("encoding mix hash: %w", err)
	}

	log.Debugw("committed source", "length", src.Size(), "chunks", n, "hash", h.Type, "mix", mix)

	return &Commitment{
		Tree:      tree,
		Length:    src.Size(),
		ChunkSize: src.ChunkSize(),
		Mix:       mix,
	}, nil
}

func CommitFile(ctx context.Context, h proof.Hasher, path string, chunkSize, parallelism int) (*Commitment, error) {
	src, err := chunker.OpenFile(path, chunkSize)
	if err != nil {
		return nil, err
	}
	defer src.Close() //nolint:errcheck

	return Commit(ctx, h, src, parallelism)
}
