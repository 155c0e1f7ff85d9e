package challenge

import (
	"context"
	"sync/atomic"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/mixproof/lib/chunker"
	"github.com/filecoin-project/mixproof/lib/mixhash"
	"github.com/filecoin-project/mixproof/lib/proof"
)

var log = logging.Logger("challenge")

type SelectorOption func(*Selector)

// WithParallelism bounds the number of chunks hashed concurrently.
func WithParallelism(n int) SelectorOption {
	return func(s *Selector) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithProgress registers a callback invoked after each candidate with the
// number of candidates done so far. It may be called concurrently.
func WithProgress(fn func(done int)) SelectorOption {
	return func(s *Selector) {
		s.progress = fn
	}
}

// Selector answers challenges against a committed tree by grinding the nonce
// through every chunk and keeping the chunk with the smallest root.
type Selector struct {
	tree *proof.LayeredTree
	src  *chunker.Source

	parallelism int
	progress    func(done int)
}

func NewSelector(tree *proof.LayeredTree, src *chunker.Source, opts ...SelectorOption) (*Selector, error) {
	if tree.LeafCount() != src.ChunkCount() {
		return nil, xerrors.Errorf("tree has %d leaves but source has %d chunks", tree.LeafCount(), src.ChunkCount())
	}

	s := &Selector{
		tree:        tree,
		src:         src,
		parallelism: 1,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Select returns the proof for the chunk whose nonce-spliced leaf yields the
// lexicographically smallest root. Ties go to the lowest index.
func (s *Selector) Select(ctx context.Context, target Target) (*Proof, error) {
	h := s.tree.Hasher()

	typ, err := target.Root.HashType()
	if err != nil {
		return nil, err
	}
	if typ != h.Type {
		return nil, xerrors.Errorf("target uses %s but tree was built with %s", typ, h.Type)
	}
	length := target.Root.Length()
	if chunker.ChunkCount(int64(length), s.src.ChunkSize()) != s.tree.LeafCount() {
		return nil, xerrors.Errorf("target length %d does not match a tree of %d leaves", length, s.tree.LeafCount())
	}

	start := time.Now()
	candidates := make([]mixhash.MixHash, s.tree.LeafCount())
	var done atomic.Int64

	err = s.src.ForEach(ctx, s.parallelism, func(i int, chunk []byte) error {
		spliced, err := chunker.Splice(chunk, int(target.NoncePosition), target.Nonce)
		if err != nil {
			return err
		}

		root, err := s.tree.RootWithLeaf(i, h.LeafHash(spliced))
		if err != nil {
			return xerrors.Errorf("candidate %d: %w", i, err)
		}

		candidates[i], err = mixhash.New(h.Type, length, root)
		if err != nil {
			return err
		}

		n := done.Add(1)
		if s.progress != nil {
			s.progress(int(n))
		}
		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("grinding nonce: %w", err)
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Less(candidates[best]) {
			best = i
		}
	}

	recordWithHashType(ctx, h.Type.String(),
		ChallengeMeasures.CandidatesEvaluated.M(int64(len(candidates))),
		ChallengeMeasures.GrindDuration.M(float64(time.Since(start).Milliseconds())))

	data, err := s.src.ReadChunk(best)
	if err != nil {
		return nil, err
	}
	path, err := s.tree.Proof(best)
	if err != nil {
		return nil, err
	}

	log.Infow("selected challenge chunk", "piece", best, "root", candidates[best], "candidates", len(candidates), "took", time.Since(start))

	return &Proof{
		PieceIndex: best,
		PieceData:  data,
		Proof:      path,
	}, nil
}
