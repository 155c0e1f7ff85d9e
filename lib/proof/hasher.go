package proof

import (
	"bytes"
	"hash"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/sha3"
	"golang.org/x/xerrors"
)

// FullHashSize is the output size of both supported hash functions.
const FullHashSize = 32

// DefaultDigestWidth is the width of leaves and nodes in both tree conventions.
const DefaultDigestWidth = 16

type HashType int

const (
	HashSha256 HashType = iota
	HashKeccak256
)

func (t HashType) String() string {
	switch t {
	case HashSha256:
		return "sha256"
	case HashKeccak256:
		return "keccak256"
	default:
		return "unknown"
	}
}

func (t HashType) Valid() bool {
	return t == HashSha256 || t == HashKeccak256
}

func ParseHashType(s string) (HashType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sha256", "sha-256":
		return HashSha256, nil
	case "keccak256", "keccak-256", "keccak":
		return HashKeccak256, nil
	default:
		return 0, xerrors.Errorf("%q: %w", s, ErrUnknownHashType)
	}
}

func (t HashType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, xerrors.Errorf("%d: %w", int(t), ErrUnknownHashType)
	}
	return []byte(t.String()), nil
}

func (t *HashType) UnmarshalText(text []byte) error {
	ht, err := ParseHashType(string(text))
	if err != nil {
		return err
	}
	*t = ht
	return nil
}

// Digest is a truncated hash, a leaf or an internal node of a tree.
type Digest []byte

func (d Digest) String() string {
	return hexutil.Encode(d)
}

func (d Digest) MarshalText() ([]byte, error) {
	return hexutil.Bytes(d).MarshalText()
}

func (d *Digest) UnmarshalText(text []byte) error {
	var b hexutil.Bytes
	if err := b.UnmarshalText(text); err != nil {
		return err
	}
	*d = Digest(b)
	return nil
}

func (d Digest) Equal(o Digest) bool {
	return bytes.Equal(d, o)
}

var keccakPool = sync.Pool{New: func() interface{} { return sha3.NewLegacyKeccak256() }}

// Hasher computes leaf and pair hashes for one tree instance.
//
// A digest keeps the low Width bytes of the full 32-byte hash, bytes
// [32-Width, 32). PairInput only affects positional pair hashing: the low
// PairInput bytes of each child are concatenated before hashing. Zero means
// the whole child digest.
type Hasher struct {
	Type      HashType
	Width     int
	PairInput int
}

// NewHasher returns a hasher with the default 16-byte digest width.
func NewHasher(t HashType) (Hasher, error) {
	h := Hasher{Type: t, Width: DefaultDigestWidth}
	if err := h.Validate(); err != nil {
		return Hasher{}, err
	}
	return h, nil
}

func (h Hasher) Validate() error {
	if !h.Type.Valid() {
		return xerrors.Errorf("hash type %d: %w", int(h.Type), ErrUnknownHashType)
	}
	if h.Width <= 0 || h.Width > FullHashSize {
		return xerrors.Errorf("digest width %d out of range (1..%d)", h.Width, FullHashSize)
	}
	if h.PairInput < 0 || h.PairInput > h.Width {
		return xerrors.Errorf("pair input width %d out of range (0..%d)", h.PairInput, h.Width)
	}
	return nil
}

func (h Hasher) pairInput() int {
	if h.PairInput == 0 {
		return h.Width
	}
	return h.PairInput
}

// ValidDigest reports whether d has exactly the hasher's digest width.
func (h Hasher) ValidDigest(d Digest) bool {
	return len(d) == h.Width
}

func (h Hasher) checkDigest(d Digest) error {
	if !h.ValidDigest(d) {
		return xerrors.Errorf("got %d bytes, want %d: %w", len(d), h.Width, ErrInvalidDigestWidth)
	}
	return nil
}

func (h Hasher) sum(parts ...[]byte) [FullHashSize]byte {
	var out [FullHashSize]byte

	var d hash.Hash
	switch h.Type {
	case HashSha256:
		d = sha256.New()
	case HashKeccak256:
		kd := keccakPool.Get().(hash.Hash)
		defer keccakPool.Put(kd)
		kd.Reset()
		d = kd
	default:
		// construction validates the type
		panic(xerrors.Errorf("hash type %d: %w", int(h.Type), ErrUnknownHashType))
	}

	for _, p := range parts {
		d.Write(p)
	}
	// sum calls append, so we give it a zero len slice backed by out
	d.Sum(out[:0])
	return out
}

func (h Hasher) truncate(full [FullHashSize]byte) Digest {
	out := make(Digest, h.Width)
	copy(out, full[FullHashSize-h.Width:])
	return out
}

// LeafHash hashes raw chunk data into a leaf digest.
func (h Hasher) LeafHash(data []byte) Digest {
	return h.truncate(h.sum(data))
}

// SortedPairHash is the commutative pair hash of the heap convention: the two
// digests are ordered bytewise before concatenation.
func (h Hasher) SortedPairHash(a, b Digest) Digest {
	if bytes.Compare(a, b) > 0 {
		a, b = b, a
	}
	return h.truncate(h.sum(a, b))
}

// PositionalPairHash is the pair hash of the layered convention. Order matters.
func (h Hasher) PositionalPairHash(left, right Digest) Digest {
	p := h.pairInput()
	return h.truncate(h.sum(left[len(left)-p:], right[len(right)-p:]))
}
