package proof

type Convention int

const (
	// SortedCommutative is the heap-array tree with sorted leaves and sorted
	// pair hashing.
	SortedCommutative Convention = iota
	// PositionalPreserving is the layered tree with caller-ordered leaves,
	// positional pair hashing and odd-node carry.
	PositionalPreserving
)

func (c Convention) String() string {
	switch c {
	case SortedCommutative:
		return "sorted-commutative"
	case PositionalPreserving:
		return "positional-preserving"
	default:
		return "unknown"
	}
}

// MerkleScheme is implemented by both tree conventions. The roots of the two
// conventions are not interchangeable.
type MerkleScheme interface {
	Convention() Convention
	Hasher() Hasher
	Root() Digest
	LeafCount() int
	Prove(leafIndex int) ([]Digest, error)
	VerifyLeaf(leafIndex int, leaf Digest, proof []Digest) bool
}

var (
	_ MerkleScheme = (*StandardTree)(nil)
	_ MerkleScheme = (*LayeredTree)(nil)
)
