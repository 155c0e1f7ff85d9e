package proof

import (
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("proof")

var (
	ErrInvalidDigestWidth      = xerrors.New("merkle node has invalid digest width")
	ErrEmptyInput              = xerrors.New("expected non-zero number of leaves")
	ErrIndexOutOfRange         = xerrors.New("index is not a leaf")
	ErrRootHasNoParent         = xerrors.Errorf("root has no parent: %w", ErrIndexOutOfRange)
	ErrUnknownFormat           = xerrors.New("unknown snapshot format")
	ErrUnknownHashType         = xerrors.New("unknown hash type")
	ErrLeafNotFound            = xerrors.New("leaf is not in tree")
	ErrProofVerificationFailed = xerrors.New("unable to prove value")
	ErrInvalidProofLength      = xerrors.New("proof length does not match tree shape")
)
