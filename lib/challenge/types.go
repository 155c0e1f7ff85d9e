package challenge

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/mixproof/lib/mixhash"
	"github.com/filecoin-project/mixproof/lib/proof"
)

var (
	ErrNoiseNotFound = xerrors.New("no noise found within budget")
	ErrPieceSize     = xerrors.New("piece data does not match the chunk size")
)

// Target is a challenge issued against a committed file. Nonce is spliced
// into a chunk at NoncePosition before the chunk is leaf-hashed.
type Target struct {
	Root          mixhash.MixHash `json:"root"`
	Nonce         hexutil.Bytes   `json:"nonce"`
	NoncePosition uint32          `json:"noncePosition"`
}

// Proof answers a Target. PieceData is the original chunk and Proof its
// authentication path in the committed tree.
type Proof struct {
	PieceIndex int            `json:"pieceIndex"`
	PieceData  hexutil.Bytes  `json:"pieceData"`
	Proof      []proof.Digest `json:"proof"`
	Noise      hexutil.Bytes  `json:"noise,omitempty"`
}

// NoiseNotFoundError is returned when a noise search runs out of attempts or
// its context ends. It matches ErrNoiseNotFound and unwraps to the context
// error, if any.
type NoiseNotFoundError struct {
	Attempts int
	Cause    error
}

func (e *NoiseNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s after %d attempts: %s", ErrNoiseNotFound, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("%s after %d attempts", ErrNoiseNotFound, e.Attempts)
}

func (e *NoiseNotFoundError) Is(target error) bool {
	return target == ErrNoiseNotFound
}

func (e *NoiseNotFoundError) Unwrap() error {
	return e.Cause
}
