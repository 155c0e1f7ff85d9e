package config

import (
	"runtime"
	"time"

	"github.com/filecoin-project/mixproof/lib/chunker"
	"github.com/filecoin-project/mixproof/lib/proof"
)

const DefaultConfigPath = "~/.mixproof/config.toml"

func DefaultConfig() *Config {
	return &Config{
		Proof: ProofConfig{
			HashType:       proof.HashKeccak256,
			ChunkSize:      chunker.DefaultChunkSize,
			DigestWidth:    proof.DefaultDigestWidth,
			PairInputWidth: 0,
		},
		Challenge: ChallengeConfig{
			NoncePosition:    0,
			Parallelism:      runtime.NumCPU(),
			NoiseMaxAttempts: 0,
			NoiseTimeout:     Duration(10 * time.Minute),
		},
		Chain: ChainConfig{
			RPC: "",
		},
		Logging: LoggingConfig{
			SubsystemLevels: map[string]string{},
		},
	}
}

type Config struct {
	Proof     ProofConfig
	Challenge ChallengeConfig
	Chain     ChainConfig
	Logging   LoggingConfig
}

type ProofConfig struct {
	// Hash function used for leaves and nodes, "sha256" or "keccak256".
	HashType proof.HashType

	// Size in bytes of the chunks a file is split into. The last chunk is
	// zero-padded.
	ChunkSize int

	// Number of low bytes of each full hash kept as a tree node.
	DigestWidth int

	// Number of low bytes of each child fed into a layered pair hash.
	// 0 means DigestWidth. Setting 8 with a DigestWidth of 16 produces the
	// half-width layered variant.
	PairInputWidth int
}

// Hasher returns the hasher described by the proof section.
func (c ProofConfig) Hasher() (proof.Hasher, error) {
	h := proof.Hasher{
		Type:      c.HashType,
		Width:     c.DigestWidth,
		PairInput: c.PairInputWidth,
	}
	return h, h.Validate()
}

type ChallengeConfig struct {
	// Byte offset within a chunk where the challenge nonce is inserted.
	NoncePosition uint32

	// Number of chunks hashed concurrently while committing and grinding.
	Parallelism int

	// Upper bound on noise draws. 0 disables the bound, the search then
	// only stops on NoiseTimeout or interrupt.
	NoiseMaxAttempts int

	// Time limit for a noise search. 0 disables the limit.
	NoiseTimeout Duration
}

type ChainConfig struct {
	// Ethereum JSON-RPC endpoint used to fetch block hashes for nonces.
	RPC string
}

type LoggingConfig struct {
	// Log levels per subsystem, e.g. {challenge = "debug"}.
	SubsystemLevels map[string]string
}

// Duration is a time.Duration that reads and writes as "1m30s" in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	td, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(td)
	return nil
}
