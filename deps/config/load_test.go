package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/mixproof/lib/proof"
)

func TestDefaultConfigRoundTrip(t *testing.T) {
	def := DefaultConfig()
	out, err := Render(def)
	require.NoError(t, err)
	require.Contains(t, string(out), `HashType = "keccak256"`)
	require.Contains(t, string(out), `NoiseTimeout = "10m0s"`)

	back, err := FromReader(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, def, back)
}

func TestFromReaderOverrides(t *testing.T) {
	raw := `
[Proof]
HashType = "sha256"
PairInputWidth = 8

[Challenge]
NoncePosition = 12
NoiseTimeout = "30s"

[Logging.SubsystemLevels]
challenge = "debug"
`
	cfg, err := FromReader(strings.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, proof.HashSha256, cfg.Proof.HashType)
	require.Equal(t, 1024, cfg.Proof.ChunkSize)
	require.Equal(t, uint32(12), cfg.Challenge.NoncePosition)
	require.Equal(t, Duration(30*time.Second), cfg.Challenge.NoiseTimeout)
	require.Equal(t, []string{"challenge"}, cfg.SubsystemNames())

	h, err := cfg.Proof.Hasher()
	require.NoError(t, err)
	require.Equal(t, proof.Hasher{Type: proof.HashSha256, Width: 16, PairInput: 8}, h)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MIXPROOF_PROOF_HASHTYPE", "sha256")
	t.Setenv("MIXPROOF_CHALLENGE_PARALLELISM", "3")
	t.Setenv("MIXPROOF_CHAIN_RPC", "http://127.0.0.1:8545")

	cfg, err := FromReader(strings.NewReader(`[Proof]
HashType = "keccak256"
`))
	require.NoError(t, err)
	require.Equal(t, proof.HashSha256, cfg.Proof.HashType)
	require.Equal(t, 3, cfg.Challenge.Parallelism)
	require.Equal(t, "http://127.0.0.1:8545", cfg.Chain.RPC)
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"hash type", "[Proof]\nHashType = \"md5\"\n"},
		{"width", "[Proof]\nDigestWidth = 40\n"},
		{"chunk size", "[Proof]\nChunkSize = 0\n"},
		{"nonce position", "[Challenge]\nNoncePosition = 2000\n"},
		{"duration", "[Challenge]\nNoiseTimeout = \"soon\"\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromReader(strings.NewReader(tc.raw))
			require.Error(t, err)
		})
	}
}

func TestUnknownKeysWarn(t *testing.T) {
	var warn bytes.Buffer
	_, err := FromReader(strings.NewReader("[Proof]\nLeafSize = 3\n"), SetWarningWriter(&warn))
	require.NoError(t, err)
	require.Contains(t, warn.String(), "Proof.LeafSize")
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := FromFile(filepath.Join(dir, "nope.toml"))
		require.NoError(t, err)
		require.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("fallback refused", func(t *testing.T) {
		refuse := xerrors.New("config required")
		_, err := FromFile(filepath.Join(dir, "nope.toml"), SetCanFallbackOnDefault(func() error { return refuse }))
		require.ErrorIs(t, err, refuse)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(dir, "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[Chain]\nRPC = \"http://node:8545\"\n"), 0644))

		cfg, err := FromFile(path)
		require.NoError(t, err)
		require.Equal(t, "http://node:8545", cfg.Chain.RPC)
	})

	t.Run("validate", func(t *testing.T) {
		path := filepath.Join(dir, "config.toml")
		_, err := FromFile(path, SetValidate(func(s string) error {
			if strings.Contains(s, "node") {
				return xerrors.New("no node")
			}
			return nil
		}))
		require.Error(t, err)
	})
}
