package proof

import (
	"golang.org/x/xerrors"
)

// LayeredTree keeps every layer of a positional Merkle tree. Layer 0 holds the
// leaves in caller order; a node without a right neighbour is carried into the
// next layer unchanged. The tree is immutable once built.
type LayeredTree struct {
	hasher Hasher
	layers [][]Digest
}

// BuildLayeredTree builds a layered tree over already hashed leaves.
func BuildLayeredTree(h Hasher, leaves []Digest) (*LayeredTree, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if len(leaves) == 0 {
		return nil, ErrEmptyInput
	}
	for i, leaf := range leaves {
		if err := h.checkDigest(leaf); err != nil {
			return nil, xerrors.Errorf("leaf %d: %w", i, err)
		}
	}

	sizes := levelSizes(len(leaves))
	layers := make([][]Digest, len(sizes))
	layers[0] = make([]Digest, len(leaves))
	copy(layers[0], leaves)

	for level := 1; level < len(sizes); level++ {
		prev := layers[level-1]
		curr := make([]Digest, sizes[level])
		for i := range curr {
			left := 2 * i
			if left+1 == len(prev) {
				curr[i] = prev[left]
				continue
			}
			curr[i] = h.PositionalPairHash(prev[left], prev[left+1])
		}
		layers[level] = curr
	}

	return &LayeredTree{hasher: h, layers: layers}, nil
}

func (t *LayeredTree) Hasher() Hasher { return t.hasher }

func (t *LayeredTree) Root() Digest {
	return t.layers[len(t.layers)-1][0]
}

func (t *LayeredTree) LeafCount() int { return len(t.layers[0]) }

func (t *LayeredTree) Leaf(i int) (Digest, error) {
	if i < 0 || i >= len(t.layers[0]) {
		return nil, xerrors.Errorf("leaf %d (have %d): %w", i, len(t.layers[0]), ErrIndexOutOfRange)
	}
	return t.layers[0][i], nil
}

// Proof collects the siblings of leafIndex layer by layer. A carried node has
// no sibling and adds nothing to the proof for that layer.
func (t *LayeredTree) Proof(leafIndex int) ([]Digest, error) {
	if leafIndex < 0 || leafIndex >= t.LeafCount() {
		return nil, xerrors.Errorf("leaf %d (have %d): %w", leafIndex, t.LeafCount(), ErrIndexOutOfRange)
	}

	proof := make([]Digest, 0, len(t.layers)-1)
	index := leafIndex
	for _, layer := range t.layers {
		if sib := index ^ 1; sib < len(layer) {
			proof = append(proof, layer[sib])
		}
		index /= 2
	}
	return proof, nil
}

// RootFromProof replays the layer walk of Proof for a tree with leafCount
// leaves. Even indexes hash as the left child, odd ones as the right child.
func RootFromProof(h Hasher, leafCount, leafIndex int, leaf Digest, proof []Digest) (Digest, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if leafIndex < 0 || leafIndex >= leafCount {
		return nil, xerrors.Errorf("leaf %d (have %d): %w", leafIndex, leafCount, ErrIndexOutOfRange)
	}
	if err := h.checkDigest(leaf); err != nil {
		return nil, err
	}
	if want := ProofLength(leafCount, leafIndex); len(proof) != want {
		return nil, xerrors.Errorf("got %d siblings, want %d: %w", len(proof), want, ErrInvalidProofLength)
	}

	computed := leaf
	index := leafIndex
	next := 0
	for _, size := range levelSizes(leafCount) {
		if index^1 < size {
			sib := proof[next]
			next++
			if err := h.checkDigest(sib); err != nil {
				return nil, xerrors.Errorf("proof element %d: %w", next-1, err)
			}
			if index%2 == 0 {
				computed = h.PositionalPairHash(computed, sib)
			} else {
				computed = h.PositionalPairHash(sib, computed)
			}
		}
		index /= 2
	}
	return computed, nil
}

// RootFromProof is the package-level RootFromProof with this tree's shape.
func (t *LayeredTree) RootFromProof(leafIndex int, leaf Digest, proof []Digest) (Digest, error) {
	return RootFromProof(t.hasher, t.LeafCount(), leafIndex, leaf, proof)
}

// RootWithLeaf returns the root the tree would have if leafIndex held leaf.
// Only the path to the root is rehashed; the tree itself is not modified, so
// concurrent calls are safe.
func (t *LayeredTree) RootWithLeaf(leafIndex int, leaf Digest) (Digest, error) {
	proof, err := t.Proof(leafIndex)
	if err != nil {
		return nil, err
	}
	return t.RootFromProof(leafIndex, leaf, proof)
}

func (t *LayeredTree) VerifyLeaf(leafIndex int, leaf Digest, proof []Digest) bool {
	root, err := t.RootFromProof(leafIndex, leaf, proof)
	if err != nil {
		return false
	}
	return root.Equal(t.Root())
}

func (t *LayeredTree) Convention() Convention { return PositionalPreserving }

func (t *LayeredTree) Prove(leafIndex int) ([]Digest, error) { return t.Proof(leafIndex) }

// Validate recomputes every layer from the one below it.
func (t *LayeredTree) Validate() bool {
	if len(t.layers) == 0 || len(t.layers[0]) == 0 {
		return false
	}
	sizes := levelSizes(len(t.layers[0]))
	if len(sizes) != len(t.layers) {
		return false
	}
	for level, layer := range t.layers {
		if len(layer) != sizes[level] {
			return false
		}
		for _, node := range layer {
			if !t.hasher.ValidDigest(node) {
				return false
			}
		}
		if level == 0 {
			continue
		}
		prev := t.layers[level-1]
		for i, node := range layer {
			left := 2 * i
			var want Digest
			if left+1 == len(prev) {
				want = prev[left]
			} else {
				want = t.hasher.PositionalPairHash(prev[left], prev[left+1])
			}
			if !node.Equal(want) {
				return false
			}
		}
	}
	return true
}
