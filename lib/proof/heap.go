package proof

import (
	"bytes"
	"sort"

	"golang.org/x/xerrors"
)

// Heap convention: the tree is a flat array of 2L-1 nodes, node i has
// children 2i+1 and 2i+2, and the root is at index 0. Leaves are sorted
// before insertion and pairs are hashed in sorted order, so the root only
// depends on the multiset of leaves.

func leftChildIndex(i int) int { return 2*i + 1 }
func rightChildIndex(i int) int { return 2*i + 2 }

func parentIndex(i int) (int, error) {
	if i <= 0 {
		return 0, ErrRootHasNoParent
	}
	return (i - 1) / 2, nil
}

func siblingIndex(i int) (int, error) {
	if i <= 0 {
		return 0, ErrRootHasNoParent
	}
	if i%2 == 0 {
		return i - 1, nil
	}
	return i + 1, nil
}

func isTreeNode(tree []Digest, i int) bool { return i >= 0 && i < len(tree) }
func isInternalNode(tree []Digest, i int) bool { return isTreeNode(tree, leftChildIndex(i)) }
func isLeafNode(tree []Digest, i int) bool { return isTreeNode(tree, i) && !isInternalNode(tree, i) }

// sortDigests stable-sorts digests ascending, bytewise.
func sortDigests(leaves []Digest) []Digest {
	sorted := make([]Digest, len(leaves))
	copy(sorted, leaves)
	sort.SliceStable(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i], sorted[j]) < 0
	})
	return sorted
}

// MakeHeapTree builds a heap-convention tree from already hashed leaves.
// Sorted leaf k lands at index len(tree)-1-k.
func MakeHeapTree(h Hasher, leaves []Digest) ([]Digest, error) {
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

	sorted := sortDigests(leaves)

	tree := make([]Digest, 2*len(sorted)-1)
	for i, leaf := range sorted {
		tree[len(tree)-1-i] = leaf
	}
	for i := len(tree) - 1 - len(sorted); i >= 0; i-- {
		tree[i] = h.SortedPairHash(tree[leftChildIndex(i)], tree[rightChildIndex(i)])
	}

	return tree, nil
}

// HeapProof collects the sibling path from the leaf at tree index to the root.
func HeapProof(tree []Digest, index int) ([]Digest, error) {
	if index == 0 {
		return nil, ErrRootHasNoParent
	}
	if !isLeafNode(tree, index) {
		return nil, xerrors.Errorf("tree index %d (tree size %d): %w", index, len(tree), ErrIndexOutOfRange)
	}

	var proof []Digest
	for index > 0 {
		sib, err := siblingIndex(index)
		if err != nil {
			return nil, err
		}
		if !isTreeNode(tree, sib) {
			return nil, xerrors.Errorf("sibling %d of node %d (tree size %d): %w", sib, index, len(tree), ErrIndexOutOfRange)
		}
		proof = append(proof, tree[sib])

		index, err = parentIndex(index)
		if err != nil {
			return nil, err
		}
	}
	return proof, nil
}

// ProcessHeapProof folds the sorted pair hash over the proof, starting at leaf.
func ProcessHeapProof(h Hasher, leaf Digest, proof []Digest) (Digest, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if err := h.checkDigest(leaf); err != nil {
		return nil, err
	}
	computed := leaf
	for i, sib := range proof {
		if err := h.checkDigest(sib); err != nil {
			return nil, xerrors.Errorf("proof element %d: %w", i, err)
		}
		computed = h.SortedPairHash(computed, sib)
	}
	return computed, nil
}

// VerifyHeapProof reports whether proof links leaf to root. Malformed input
// is reported as an invalid proof.
func VerifyHeapProof(h Hasher, leaf Digest, proof []Digest, root Digest) bool {
	implied, err := ProcessHeapProof(h, leaf, proof)
	if err != nil {
		return false
	}
	return implied.Equal(root)
}

// IsValidHeapTree recomputes every internal node from its children.
func IsValidHeapTree(h Hasher, tree []Digest) bool {
	if h.Validate() != nil || len(tree) == 0 || len(tree)%2 == 0 {
		return false
	}
	for i, node := range tree {
		if !h.ValidDigest(node) {
			return false
		}

		l, r := leftChildIndex(i), rightChildIndex(i)
		if r >= len(tree) {
			if l < len(tree) {
				return false
			}
			continue
		}
		if !node.Equal(h.SortedPairHash(tree[l], tree[r])) {
			return false
		}
	}
	return true
}
