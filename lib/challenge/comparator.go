package challenge

import (
	"golang.org/x/xerrors"

	"github.com/filecoin-project/mixproof/lib/chunker"
	"github.com/filecoin-project/mixproof/lib/mixhash"
	"github.com/filecoin-project/mixproof/lib/proof"
)

// Comparator recomputes challenge roots from proofs alone. The tree shape is
// derived from the target length and the committed chunk size.
type Comparator struct {
	hasher    proof.Hasher
	chunkSize int
}

func NewComparator(h proof.Hasher, chunkSize int) (*Comparator, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if chunkSize <= 0 {
		return nil, xerrors.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	return &Comparator{hasher: h, chunkSize: chunkSize}, nil
}

func (c *Comparator) Hasher() proof.Hasher { return c.hasher }

func (c *Comparator) leafCount(target Target, p *Proof) (int, error) {
	typ, err := target.Root.HashType()
	if err != nil {
		return 0, err
	}
	if typ != c.hasher.Type {
		return 0, xerrors.Errorf("target uses %s, comparator hashes with %s", typ, c.hasher.Type)
	}
	if len(p.PieceData) != c.chunkSize {
		return 0, xerrors.Errorf("piece data is %d bytes, chunks are %d: %w", len(p.PieceData), c.chunkSize, ErrPieceSize)
	}
	return chunker.ChunkCount(int64(target.Root.Length()), c.chunkSize), nil
}

// fold leaf-hashes data at the proof's piece index and encodes the
// resulting root with the target's length and hash type.
func (c *Comparator) fold(target Target, p *Proof, data []byte) (mixhash.MixHash, error) {
	n, err := c.leafCount(target, p)
	if err != nil {
		return mixhash.MixHash{}, err
	}

	root, err := proof.RootFromProof(c.hasher, n, p.PieceIndex, c.hasher.LeafHash(data), p.Proof)
	if err != nil {
		return mixhash.MixHash{}, xerrors.Errorf("recomputing root for piece %d: %w", p.PieceIndex, err)
	}
	return mixhash.New(c.hasher.Type, target.Root.Length(), root)
}

func (c *Comparator) spliced(target Target, p *Proof) ([]byte, error) {
	return chunker.Splice(p.PieceData, int(target.NoncePosition), target.Nonce)
}

// Root is the challenge root of p: the nonce is spliced into the piece data
// before hashing.
func (c *Comparator) Root(target Target, p *Proof) (mixhash.MixHash, error) {
	data, err := c.spliced(target, p)
	if err != nil {
		return mixhash.MixHash{}, err
	}
	return c.fold(target, p, data)
}

// RootWithNoise is Root with the proof's noise, if any, prepended to the
// spliced piece data.
func (c *Comparator) RootWithNoise(target Target, p *Proof) (mixhash.MixHash, error) {
	data, err := c.spliced(target, p)
	if err != nil {
		return mixhash.MixHash{}, err
	}
	if len(p.Noise) > 0 {
		data = append(append([]byte{}, p.Noise...), data...)
	}
	return c.fold(target, p, data)
}

// Compare orders two proofs by their noised roots. Negative means a wins.
func (c *Comparator) Compare(target Target, a, b *Proof) (int, error) {
	ra, err := c.RootWithNoise(target, a)
	if err != nil {
		return 0, xerrors.Errorf("first proof: %w", err)
	}
	rb, err := c.RootWithNoise(target, b)
	if err != nil {
		return 0, xerrors.Errorf("second proof: %w", err)
	}
	return ra.Compare(rb), nil
}

// Verify checks that the un-spliced piece data and path reproduce the
// committed mix hash.
func (c *Comparator) Verify(target Target, p *Proof) bool {
	got, err := c.fold(target, p, p.PieceData)
	if err != nil {
		log.Debugw("proof does not fold", "piece", p.PieceIndex, "error", err)
		return false
	}
	return got == target.Root
}

// Challenge reports whether next supersedes prev: next must verify and its
// nonce root must be strictly smaller.
func (c *Comparator) Challenge(target Target, next, prev *Proof) (bool, error) {
	if !c.Verify(target, next) {
		return false, xerrors.Errorf("challenging proof for piece %d: %w", next.PieceIndex, proof.ErrProofVerificationFailed)
	}
	rn, err := c.Root(target, next)
	if err != nil {
		return false, err
	}
	rp, err := c.Root(target, prev)
	if err != nil {
		return false, xerrors.Errorf("existing proof: %w", err)
	}
	return rn.Less(rp), nil
}
