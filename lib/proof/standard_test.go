package proof

import (
	"errors"
	"fmt"
	"testing"

	"github.com/snadrus/must"
	"github.com/stretchr/testify/require"
)

func testValues(n int) [][]byte {
	values := make([][]byte, n)
	for i := range values {
		values[i] = []byte(fmt.Sprintf("value-%d", i))
	}
	return values
}

func TestStandardTreeProofs(t *testing.T) {
	h := must.One(NewHasher(HashKeccak256))
	values := testValues(6)
	tree, err := NewStandardTree(h, values)
	require.NoError(t, err)
	require.NoError(t, tree.Validate())
	require.Equal(t, 6, tree.Len())

	for i, v := range values {
		byIndex, err := tree.Proof(ByIndex(i))
		require.NoError(t, err)
		byValue, err := tree.Proof(ByValue(v))
		require.NoError(t, err)
		require.Equal(t, byIndex, byValue)

		ok, err := tree.Verify(ByIndex(i), byIndex)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = tree.Verify(ByValue(v), byIndex)
		require.NoError(t, err)
		require.True(t, ok)

		require.True(t, VerifyValue(h, tree.Root(), v, byIndex))
		require.True(t, tree.VerifyLeaf(i, tree.LeafHash(v), byIndex))
	}
}

func TestStandardTreeEntriesKeepInputOrder(t *testing.T) {
	h := must.One(NewHasher(HashSha256))
	values := testValues(5)
	tree := must.One(NewStandardTree(h, values))

	entries := tree.Entries()
	require.Len(t, entries, len(values))
	seen := map[int]bool{}
	for i, e := range entries {
		require.Equal(t, values[i], e.Value)
		require.GreaterOrEqual(t, e.TreeIndex, len(values)-1)
		require.False(t, seen[e.TreeIndex])
		seen[e.TreeIndex] = true

		idx, err := tree.LeafLookup(e.Value)
		require.NoError(t, err)
		require.Equal(t, i, idx)
	}
}

func TestStandardTreeCanonicalRoot(t *testing.T) {
	h := must.One(NewHasher(HashKeccak256))
	values := testValues(9)
	shuffled := [][]byte{values[4], values[8], values[0], values[7], values[1], values[6], values[2], values[5], values[3]}

	a := must.One(NewStandardTree(h, values))
	b := must.One(NewStandardTree(h, shuffled))
	require.Equal(t, a.Root(), b.Root())
}

func TestStandardTreeErrors(t *testing.T) {
	h := must.One(NewHasher(HashSha256))

	_, err := NewStandardTree(h, nil)
	require.True(t, errors.Is(err, ErrEmptyInput))

	_, err = NewStandardTree(Hasher{Type: HashType(3), Width: 16}, testValues(2))
	require.True(t, errors.Is(err, ErrUnknownHashType))

	tree := must.One(NewStandardTree(h, testValues(4)))

	_, err = tree.Proof(ByValue([]byte("missing")))
	require.True(t, errors.Is(err, ErrLeafNotFound))

	_, err = tree.Proof(ByIndex(4))
	require.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = tree.Verify(ByIndex(-1), nil)
	require.True(t, errors.Is(err, ErrIndexOutOfRange))

	// a value that is not in the tree can be checked, it just fails
	ok, err := tree.Verify(ByValue([]byte("missing")), must.One(tree.Proof(ByIndex(0))))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStandardTreeSingleValue(t *testing.T) {
	h := must.One(NewHasher(HashSha256))
	tree := must.One(NewStandardTree(h, testValues(1)))
	require.Equal(t, h.LeafHash([]byte("value-0")), tree.Root())

	_, err := tree.Proof(ByIndex(0))
	require.True(t, errors.Is(err, ErrRootHasNoParent))
}

func TestStandardTreeValidateReportsAll(t *testing.T) {
	h := must.One(NewHasher(HashSha256))
	tree := must.One(NewStandardTree(h, testValues(4)))

	tree.values[1].Value = []byte("changed")
	tree.values[3].Value = []byte("changed too")

	err := tree.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected value 1")
	require.Contains(t, err.Error(), "expected value 3")
}
