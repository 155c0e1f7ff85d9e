// Package mixhash packs a file length, a hash type and a truncated Merkle root
// into one 32-byte commitment.
//
// Layout: bytes [0,8) hold the length big-endian with the top two bits of
// byte 0 replaced by the hash type tag (00 sha256, 10 keccak256). Bytes
// [8,32) hold the low 24 bytes of the root.
package mixhash

import (
	"bytes"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/mixproof/lib/proof"
)

const (
	Size       = 32
	RootSize   = Size - 8
	MaxLength  = 1<<62 - 1
	tagMask    = 0xc0
	tagSha256  = 0x00
	tagKeccak  = 0x80
	lengthMask = 0x3f
)

var (
	ErrInvalidMixHashType = xerrors.New("invalid mix hash type")
	ErrLengthTooLarge     = xerrors.New("length does not fit in 62 bits")
	ErrInvalidSize        = xerrors.New("mix hash must be 32 bytes")
)

type MixHash [Size]byte

// New encodes a mix hash. root may be any width up to 32 bytes; it is
// right-aligned before its low 24 bytes are kept.
func New(t proof.HashType, length uint64, root []byte) (MixHash, error) {
	var m MixHash

	var tag byte
	switch t {
	case proof.HashSha256:
		tag = tagSha256
	case proof.HashKeccak256:
		tag = tagKeccak
	default:
		return m, xerrors.Errorf("hash type %d: %w", int(t), ErrInvalidMixHashType)
	}
	if length > MaxLength {
		return m, xerrors.Errorf("length %d: %w", length, ErrLengthTooLarge)
	}
	if len(root) > Size {
		return m, xerrors.Errorf("root is %d bytes, at most %d allowed", len(root), Size)
	}

	var full [Size]byte
	copy(full[Size-len(root):], root)
	copy(m[8:], full[8:])

	binary.BigEndian.PutUint64(m[:8], length)
	m[0] = m[0]&lengthMask | tag
	return m, nil
}

// FromBytes copies a 32-byte slice into a MixHash.
func FromBytes(b []byte) (MixHash, error) {
	var m MixHash
	if len(b) != Size {
		return m, xerrors.Errorf("got %d bytes: %w", len(b), ErrInvalidSize)
	}
	copy(m[:], b)
	return m, nil
}

func Parse(s string) (MixHash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return MixHash{}, xerrors.Errorf("decoding mix hash %q: %w", s, err)
	}
	return FromBytes(b)
}

// Length returns the encoded file length. The tag bits are masked off.
func (m MixHash) Length() uint64 {
	var lb [8]byte
	copy(lb[:], m[:8])
	lb[0] &= lengthMask
	return binary.BigEndian.Uint64(lb[:])
}

func (m MixHash) HashType() (proof.HashType, error) {
	switch m[0] & tagMask {
	case tagSha256:
		return proof.HashSha256, nil
	case tagKeccak:
		return proof.HashKeccak256, nil
	default:
		return 0, xerrors.Errorf("tag bits %#02x: %w", m[0]&tagMask, ErrInvalidMixHashType)
	}
}

func (m MixHash) RootSuffix() [RootSize]byte {
	var r [RootSize]byte
	copy(r[:], m[8:])
	return r
}

// Decode is the inverse of New.
func Decode(m MixHash) (proof.HashType, uint64, [RootSize]byte, error) {
	t, err := m.HashType()
	if err != nil {
		return 0, 0, [RootSize]byte{}, err
	}
	return t, m.Length(), m.RootSuffix(), nil
}

// LengthFromMixedHash is the pure length decode exposed to the adjudicator.
func LengthFromMixedHash(m MixHash) uint64 {
	return m.Length()
}

// Compare orders mix hashes bytewise; smaller roots win challenges.
func (m MixHash) Compare(o MixHash) int {
	return bytes.Compare(m[:], o[:])
}

func (m MixHash) Less(o MixHash) bool {
	return m.Compare(o) < 0
}

func (m MixHash) Bytes() []byte {
	return append([]byte{}, m[:]...)
}

func (m MixHash) String() string {
	return hexutil.Encode(m[:])
}

func (m MixHash) MarshalText() ([]byte, error) {
	return hexutil.Bytes(m[:]).MarshalText()
}

func (m *MixHash) UnmarshalText(text []byte) error {
	var b hexutil.Bytes
	if err := b.UnmarshalText(text); err != nil {
		return err
	}
	parsed, err := FromBytes(b)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
