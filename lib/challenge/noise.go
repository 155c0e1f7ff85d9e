package challenge

import (
	"context"
	"crypto/rand"
	"io"

	"golang.org/x/xerrors"

	"github.com/filecoin-project/mixproof/lib/mixhash"
)

const NoiseSize = 32

// NoiseBudget bounds a noise search. A zero MaxAttempts runs until a match is
// found or the context ends. Rand defaults to crypto/rand.
type NoiseBudget struct {
	MaxAttempts int
	Rand        io.Reader
}

// SearchNoise draws random noise until the noised root of p is strictly
// below difficulty. The returned proof is a copy of p carrying the noise.
func SearchNoise(ctx context.Context, c *Comparator, target Target, p *Proof, difficulty mixhash.MixHash, budget NoiseBudget) (*Proof, error) {
	rnd := budget.Rand
	if rnd == nil {
		rnd = rand.Reader
	}

	cand := *p
	cand.Noise = make([]byte, NoiseSize)

	attempts := 0
	defer func() {
		recordWithHashType(ctx, c.hasher.Type.String(), ChallengeMeasures.NoiseAttempts.M(int64(attempts)))
	}()

	for budget.MaxAttempts <= 0 || attempts < budget.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return nil, &NoiseNotFoundError{Attempts: attempts, Cause: err}
		}

		if _, err := io.ReadFull(rnd, cand.Noise); err != nil {
			return nil, xerrors.Errorf("drawing noise: %w", err)
		}
		attempts++

		root, err := c.RootWithNoise(target, &cand)
		if err != nil {
			return nil, err
		}
		if root.Less(difficulty) {
			log.Infow("found noise", "piece", p.PieceIndex, "attempts", attempts, "root", root)
			return &cand, nil
		}

		if attempts%100000 == 0 {
			log.Debugw("noise search", "attempts", attempts, "difficulty", difficulty)
		}
	}

	return nil, &NoiseNotFoundError{Attempts: attempts}
}
