package mixhash

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"testing"

	"github.com/snadrus/must"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/mixproof/lib/proof"
)

func TestConformanceVectors(t *testing.T) {
	tests := []struct {
		name string
		mix  string
		typ  proof.HashType
	}{
		{"keccak256", "0x800000000000433d5b1a08ad89b22622452cbfd2243b159fd5f4883503cd5518", proof.HashKeccak256},
		{"sha256", "0x000000000000433d78736e40b1f9bfcefd9e7744984748da2ee528d00c6ef834", proof.HashSha256},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Parse(tc.mix)
			require.NoError(t, err)
			require.Equal(t, uint64(17213), LengthFromMixedHash(m))

			typ, length, suffix, err := Decode(m)
			require.NoError(t, err)
			require.Equal(t, tc.typ, typ)
			require.Equal(t, uint64(17213), length)

			again, err := New(typ, length, suffix[:])
			require.NoError(t, err)
			require.Equal(t, m, again)
			require.Equal(t, tc.mix, again.String())
		})
	}
}

func TestRoundTrip(t *testing.T) {
	lengths := []uint64{0, 1, 1023, 1024, 17213, 1 << 40, MaxLength}

	for _, typ := range []proof.HashType{proof.HashSha256, proof.HashKeccak256} {
		for _, width := range []int{8, 16, 24, 32} {
			root := make([]byte, width)
			_, err := rand.Read(root)
			require.NoError(t, err)

			for _, l := range lengths {
				m, err := New(typ, l, root)
				require.NoError(t, err)

				gotType, gotLen, suffix, err := Decode(m)
				require.NoError(t, err)
				require.Equal(t, typ, gotType)
				require.Equal(t, l, gotLen)

				var want [Size]byte
				copy(want[Size-width:], root)
				require.Equal(t, want[8:], suffix[:], "type=%s width=%d len=%d", typ, width, l)
			}
		}
	}
}

func TestNewRejects(t *testing.T) {
	_, err := New(proof.HashType(7), 10, nil)
	require.True(t, errors.Is(err, ErrInvalidMixHashType))

	_, err = New(proof.HashSha256, MaxLength+1, nil)
	require.True(t, errors.Is(err, ErrLengthTooLarge))

	_, err = New(proof.HashSha256, 10, make([]byte, 33))
	require.Error(t, err)
}

func TestReservedTagsRejected(t *testing.T) {
	for _, b0 := range []byte{0x40, 0xc0, 0x7f} {
		var m MixHash
		m[0] = b0
		_, err := m.HashType()
		require.True(t, errors.Is(err, ErrInvalidMixHashType), "byte0=%#x", b0)

		_, _, _, err = Decode(m)
		require.True(t, errors.Is(err, ErrInvalidMixHashType))
	}
}

func TestCompare(t *testing.T) {
	a := must.One(New(proof.HashSha256, 100, []byte{0x01}))
	b := must.One(New(proof.HashSha256, 100, []byte{0x02}))
	c := must.One(New(proof.HashKeccak256, 100, []byte{0x00}))

	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.False(t, a.Less(a))
	require.Equal(t, 0, a.Compare(a))
	// the tag sits in the most significant bits
	require.True(t, b.Less(c))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("0x0102")
	require.True(t, errors.Is(err, ErrInvalidSize))

	_, err = Parse("not hex")
	require.Error(t, err)
}

func TestJSON(t *testing.T) {
	m := must.One(New(proof.HashKeccak256, 17213, []byte{0xaa, 0xbb}))
	out := must.One(json.Marshal(m))
	require.Equal(t, `"`+m.String()+`"`, string(out))

	var back MixHash
	require.NoError(t, json.Unmarshal(out, &back))
	require.Equal(t, m, back)
}
