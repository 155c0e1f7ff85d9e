package proof

import (
	"bytes"
	"sort"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/xerrors"
)

// LeafRef names a leaf of a StandardTree either by the position of its value
// in the original input or by the value itself.
type LeafRef struct {
	index   int
	value   []byte
	byValue bool
}

func ByIndex(i int) LeafRef { return LeafRef{index: i} }
func ByValue(v []byte) LeafRef { return LeafRef{value: v, byValue: true} }
func (r LeafRef) IsByValue() bool { return r.byValue }

type ValueEntry struct {
	Value     []byte
	TreeIndex int
}

// StandardTree is a heap-convention tree over raw values. It remembers where
// each value landed after sorting so proofs can be requested by value or by
// original position.
type StandardTree struct {
	hasher Hasher
	tree   []Digest
	values []ValueEntry

	hashLookup map[string]int
}

// NewStandardTree leaf-hashes every value, sorts the hashes and builds the tree.
func NewStandardTree(h Hasher, values [][]byte) (*StandardTree, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrEmptyInput
	}

	type hashedValue struct {
		valueIndex int
		hash       Digest
	}

	hashed := make([]hashedValue, len(values))
	for i, v := range values {
		hashed[i] = hashedValue{valueIndex: i, hash: h.LeafHash(v)}
	}
	sort.SliceStable(hashed, func(i, j int) bool {
		return bytes.Compare(hashed[i].hash, hashed[j].hash) < 0
	})

	leaves := make([]Digest, len(hashed))
	for i, hv := range hashed {
		leaves[i] = hv.hash
	}
	tree, err := MakeHeapTree(h, leaves)
	if err != nil {
		return nil, err
	}

	entries := make([]ValueEntry, len(values))
	for leafIndex, hv := range hashed {
		entries[hv.valueIndex] = ValueEntry{
			Value:     values[hv.valueIndex],
			TreeIndex: len(tree) - leafIndex - 1,
		}
	}

	return newStandardTree(h, tree, entries), nil
}

func newStandardTree(h Hasher, tree []Digest, values []ValueEntry) *StandardTree {
	t := &StandardTree{
		hasher:     h,
		tree:       tree,
		values:     values,
		hashLookup: make(map[string]int, len(values)),
	}
	for i, v := range values {
		t.hashLookup[string(h.LeafHash(v.Value))] = i
	}
	return t
}

func (t *StandardTree) Hasher() Hasher { return t.hasher }
func (t *StandardTree) Root() Digest { return t.tree[0] }
func (t *StandardTree) Len() int { return len(t.values) }

// Entries returns the values in original input order.
func (t *StandardTree) Entries() []ValueEntry {
	out := make([]ValueEntry, len(t.values))
	copy(out, t.values)
	return out
}

func (t *StandardTree) LeafHash(value []byte) Digest {
	return t.hasher.LeafHash(value)
}

// LeafLookup returns the original position of value.
func (t *StandardTree) LeafLookup(value []byte) (int, error) {
	i, ok := t.hashLookup[string(t.hasher.LeafHash(value))]
	if !ok {
		return 0, ErrLeafNotFound
	}
	return i, nil
}

func (t *StandardTree) resolve(ref LeafRef) (int, error) {
	if ref.byValue {
		return t.LeafLookup(ref.value)
	}
	return ref.index, nil
}

// validateValue checks that the value at valueIndex still hashes to the leaf
// stored at its tree index and returns that leaf.
func (t *StandardTree) validateValue(valueIndex int) (Digest, error) {
	if valueIndex < 0 || valueIndex >= len(t.values) {
		return nil, xerrors.Errorf("value index %d (have %d values): %w", valueIndex, len(t.values), ErrIndexOutOfRange)
	}
	v := t.values[valueIndex]
	if v.TreeIndex < 0 || v.TreeIndex >= len(t.tree) {
		return nil, xerrors.Errorf("tree index %d of value %d: %w", v.TreeIndex, valueIndex, ErrIndexOutOfRange)
	}
	leaf := t.hasher.LeafHash(v.Value)
	if !leaf.Equal(t.tree[v.TreeIndex]) {
		return nil, xerrors.Errorf("merkle tree does not contain the expected value %d", valueIndex)
	}
	return leaf, nil
}

// Proof returns the authentication path for the referenced value. The path is
// checked against the root before it is returned.
func (t *StandardTree) Proof(ref LeafRef) ([]Digest, error) {
	valueIndex, err := t.resolve(ref)
	if err != nil {
		return nil, err
	}
	if _, err := t.validateValue(valueIndex); err != nil {
		return nil, err
	}

	treeIndex := t.values[valueIndex].TreeIndex
	proof, err := HeapProof(t.tree, treeIndex)
	if err != nil {
		return nil, xerrors.Errorf("value %d: %w", valueIndex, err)
	}

	if !VerifyHeapProof(t.hasher, t.tree[treeIndex], proof, t.Root()) {
		log.Errorw("generated proof does not verify", "value", valueIndex, "treeIndex", treeIndex, "root", t.Root())
		return nil, ErrProofVerificationFailed
	}
	return proof, nil
}

// Verify checks proof for a referenced value against this tree's root. A
// ByValue reference does not need to be in the tree.
func (t *StandardTree) Verify(ref LeafRef, proof []Digest) (bool, error) {
	var leaf Digest
	if ref.byValue {
		leaf = t.hasher.LeafHash(ref.value)
	} else {
		var err error
		leaf, err = t.validateValue(ref.index)
		if err != nil {
			return false, err
		}
	}
	return VerifyHeapProof(t.hasher, leaf, proof, t.Root()), nil
}

// VerifyValue checks a value against a bare root without a tree at hand.
func VerifyValue(h Hasher, root Digest, value []byte, proof []Digest) bool {
	if h.Validate() != nil {
		return false
	}
	return VerifyHeapProof(h, h.LeafHash(value), proof, root)
}

// Validate checks every value and the tree structure. All failing values are
// reported.
func (t *StandardTree) Validate() error {
	var merr *multierror.Error
	for i := range t.values {
		if _, err := t.validateValue(i); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if !IsValidHeapTree(t.hasher, t.tree) {
		merr = multierror.Append(merr, xerrors.New("merkle tree is invalid"))
	}
	return merr.ErrorOrNil()
}

// Convention, LeafCount, Prove and VerifyLeaf implement MerkleScheme; leaf
// indexes are original value positions.

func (t *StandardTree) Convention() Convention { return SortedCommutative }
func (t *StandardTree) LeafCount() int { return len(t.values) }

func (t *StandardTree) Prove(leafIndex int) ([]Digest, error) {
	return t.Proof(ByIndex(leafIndex))
}

func (t *StandardTree) VerifyLeaf(_ int, leaf Digest, proof []Digest) bool {
	return VerifyHeapProof(t.hasher, leaf, proof, t.Root())
}
