package challenge

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	pre = "mixproof_challenge_"

	hashTypeKey, _ = tag.NewKey("hash_type")
)

var ChallengeMeasures = struct {
	CandidatesEvaluated *stats.Int64Measure
	NoiseAttempts       *stats.Int64Measure
	GrindDuration       *stats.Float64Measure
}{
	CandidatesEvaluated: stats.Int64(pre+"candidates_evaluated", "Number of candidate roots computed while grinding.", stats.UnitDimensionless),
	NoiseAttempts:       stats.Int64(pre+"noise_attempts", "Number of noise values tried.", stats.UnitDimensionless),
	GrindDuration:       stats.Float64(pre+"grind_duration_ms", "Time spent selecting a challenge chunk.", stats.UnitMilliseconds),
}

func init() {
	err := view.Register(
		&view.View{
			Measure:     ChallengeMeasures.CandidatesEvaluated,
			Aggregation: view.Sum(),
			TagKeys:     []tag.Key{hashTypeKey},
		},
		&view.View{
			Measure:     ChallengeMeasures.NoiseAttempts,
			Aggregation: view.Sum(),
			TagKeys:     []tag.Key{hashTypeKey},
		},
		&view.View{
			Measure:     ChallengeMeasures.GrindDuration,
			Aggregation: view.Distribution(1, 10, 100, 1000, 10000, 60000, 600000),
			TagKeys:     []tag.Key{hashTypeKey},
		},
	)
	if err != nil {
		panic(err)
	}
}

func recordWithHashType(ctx context.Context, hashType string, ms ...stats.Measurement) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(hashTypeKey, hashType)}, ms...)
}
