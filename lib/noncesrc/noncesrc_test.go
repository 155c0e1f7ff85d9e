package noncesrc

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

type mockHeaders struct {
	headers map[uint64]*types.Header
	asked   []uint64
}

func (m *mockHeaders) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	m.asked = append(m.asked, number.Uint64())
	h, ok := m.headers[number.Uint64()]
	if !ok {
		return nil, ethereum.NotFound
	}
	return h, nil
}

func TestBlockHashNonce(t *testing.T) {
	h100 := &types.Header{Number: big.NewInt(100), Difficulty: big.NewInt(1)}
	h101 := &types.Header{Number: big.NewInt(101), Difficulty: big.NewInt(1)}
	m := &mockHeaders{headers: map[uint64]*types.Header{100: h100, 101: h101}}
	src := NewBlockHash(m)

	n, err := src.Nonce(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, h100.Hash().Bytes(), n)
	require.Len(t, n, 32)

	n2, err := src.Nonce(context.Background(), 101)
	require.NoError(t, err)
	require.NotEqual(t, n, n2)
	require.Equal(t, []uint64{100, 101}, m.asked)
}

func TestBlockHashMissing(t *testing.T) {
	src := NewBlockHash(&mockHeaders{})
	_, err := src.Nonce(context.Background(), 7)
	require.True(t, errors.Is(err, ethereum.NotFound))
}

func TestStatic(t *testing.T) {
	s := Static{1, 2, 3}
	n, err := s.Nonce(context.Background(), 99)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, n)

	n[0] = 9
	require.Equal(t, byte(1), s[0])
}

func TestCached(t *testing.T) {
	h := &types.Header{Number: big.NewInt(5), Difficulty: big.NewInt(1)}
	m := &mockHeaders{headers: map[uint64]*types.Header{5: h}}
	c, err := NewCached(NewBlockHash(m), 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		n, err := c.Nonce(context.Background(), 5)
		require.NoError(t, err)
		require.Equal(t, h.Hash().Bytes(), n)
	}
	require.Equal(t, []uint64{5}, m.asked)

	// misses are not cached
	_, err = c.Nonce(context.Background(), 6)
	require.Error(t, err)
	_, err = c.Nonce(context.Background(), 6)
	require.Error(t, err)
	require.Equal(t, []uint64{5, 6, 6}, m.asked)

	_, err = NewCached(NewBlockHash(m), 0)
	require.Error(t, err)
}
