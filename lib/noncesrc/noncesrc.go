// Package noncesrc supplies challenge nonces. Nonces come from block hashes
// at a height agreed with the adjudicator, so provers cannot precompute them.
package noncesrc

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	lru "github.com/hashicorp/golang-lru/v2"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("noncesrc")

type Source interface {
	Nonce(ctx context.Context, height uint64) ([]byte, error)
}

// HeaderSource is the subset of ethclient.Client used for block hashes.
type HeaderSource interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// BlockHash uses the hash of the block at the requested height as nonce.
type BlockHash struct {
	client HeaderSource
}

func NewBlockHash(client HeaderSource) *BlockHash {
	return &BlockHash{client: client}
}

// Dial connects to an Ethereum JSON-RPC endpoint. The returned closer
// releases the connection.
func Dial(ctx context.Context, url string) (*BlockHash, func(), error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, nil, xerrors.Errorf("dialing %s: %w", url, err)
	}
	return NewBlockHash(client), client.Close, nil
}

func (b *BlockHash) Nonce(ctx context.Context, height uint64) ([]byte, error) {
	header, err := b.client.HeaderByNumber(ctx, new(big.Int).SetUint64(height))
	if err != nil {
		return nil, xerrors.Errorf("getting header at height %d: %w", height, err)
	}
	if header == nil {
		return nil, xerrors.Errorf("no header at height %d", height)
	}

	hash := header.Hash()
	log.Debugw("nonce from block hash", "height", height, "hash", hash)
	return hash.Bytes(), nil
}

// DefaultCacheSize is the number of heights a Cached source remembers.
const DefaultCacheSize = 1024

// Cached remembers nonces by height. Only use it with heights that are
// final, a reorg would otherwise serve a stale hash.
type Cached struct {
	src   Source
	cache *lru.Cache[uint64, []byte]
}

func NewCached(src Source, size int) (*Cached, error) {
	c, err := lru.New[uint64, []byte](size)
	if err != nil {
		return nil, xerrors.Errorf("creating nonce cache: %w", err)
	}
	return &Cached{src: src, cache: c}, nil
}

func (c *Cached) Nonce(ctx context.Context, height uint64) ([]byte, error) {
	if n, ok := c.cache.Get(height); ok {
		return append([]byte{}, n...), nil
	}
	n, err := c.src.Nonce(ctx, height)
	if err != nil {
		return nil, err
	}
	c.cache.Add(height, append([]byte{}, n...))
	return n, nil
}

// Static always returns the same nonce.
type Static []byte

func (s Static) Nonce(context.Context, uint64) ([]byte, error) {
	return append([]byte{}, s...), nil
}

var (
	_ Source = (*BlockHash)(nil)
	_ Source = (*Cached)(nil)
	_ Source = Static(nil)
)
