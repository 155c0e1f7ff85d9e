package main

import (
	"encoding/json"
	"os"

	"golang.org/x/xerrors"

	"github.com/filecoin-project/mixproof/lib/challenge"
	"github.com/filecoin-project/mixproof/lib/proof"
)

// challengeFile is what prove writes and verify/compare read.
type challengeFile struct {
	Target challenge.Target `json:"target"`
	Proof  challenge.Proof  `json:"proof"`
}

func writeJSONFile(path string, v any) (err error) {
	if path == "" || path == "-" {
		return proof.WriteSnapshot(os.Stdout, v)
	}

	f, err := os.Create(path)
	if err != nil {
		return xerrors.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = xerrors.Errorf("closing %s: %w", path, cerr)
		}
	}()
	return proof.WriteSnapshot(f, v)
}

func readChallengeFile(path string) (*challengeFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	var cf challengeFile
	if err := json.NewDecoder(f).Decode(&cf); err != nil {
		return nil, xerrors.Errorf("decoding %s: %w", path, err)
	}
	return &cf, nil
}
