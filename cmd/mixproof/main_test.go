package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/mixproof/lib/proof"
)

func runApp(t *testing.T, args ...string) error {
	t.Helper()
	app := newApp()
	app.Setup()
	return app.Run(append([]string{"mixproof", "--config", filepath.Join(t.TempDir(), "none.toml")}, args...))
}

func TestProveAndVerify(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "data.bin")
	data := make([]byte, 5000)
	for i := range data {
		data[i] = byte(i * 13)
	}
	require.NoError(t, os.WriteFile(file, data, 0644))

	snap := filepath.Join(dir, "tree.json")
	require.NoError(t, runApp(t, "commit", "--tree-out", snap, file))

	out := filepath.Join(dir, "proof.json")
	require.NoError(t, runApp(t, "prove", "--nonce", "0x0102030405", "--nonce-position", "7", "--tree", snap, "--no-progress", "--out", out, file))
	require.NoError(t, runApp(t, "verify", out))
	require.NoError(t, runApp(t, "compare", out, out))

	cf, err := readChallengeFile(out)
	require.NoError(t, err)
	require.Equal(t, uint32(7), cf.Target.NoncePosition)
	require.Equal(t, uint64(5000), cf.Target.Root.Length())

	noised := filepath.Join(dir, "noised.json")
	easy := "0x" + strings.Repeat("ff", 32)
	require.NoError(t, runApp(t, "prove", "--nonce", "0x01", "--difficulty", easy, "--max-attempts", "5", "--no-progress", "--out", noised, file))
	cf, err = readChallengeFile(noised)
	require.NoError(t, err)
	require.Len(t, cf.Proof.Noise, 32)
	require.NoError(t, runApp(t, "verify", noised))

	cf.Proof.PieceData[0] ^= 0xff
	tampered := filepath.Join(dir, "tampered.json")
	require.NoError(t, writeJSONFile(tampered, cf))
	require.ErrorIs(t, runApp(t, "verify", tampered), proof.ErrProofVerificationFailed)
}

func TestProveNeedsNonce(t *testing.T) {
	file := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0644))
	require.Error(t, runApp(t, "prove", "--no-progress", file))
	require.Error(t, runApp(t, "prove", "--height", "10", "--no-progress", file))
}

func TestLength(t *testing.T) {
	require.NoError(t, runApp(t, "length", "0x800000000000433d5b1a08ad89b22622452cbfd2243b159fd5f4883503cd5518"))
	require.Error(t, runApp(t, "length", "0x400000000000433d5b1a08ad89b22622452cbfd2243b159fd5f4883503cd5518"))
}

func TestTreeCommands(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "tree.json")
	require.NoError(t, runApp(t, "tree", "build", "--out", snap, "0x01", "0x02", "0x03"))

	tree, err := readStandardTree(snap)
	require.NoError(t, err)
	p, err := tree.Proof(proof.ByValue([]byte{0x02}))
	require.NoError(t, err)

	require.NoError(t, runApp(t, "tree", "prove", "--value", "0x02", snap))

	args := []string{"tree", "verify", "--root", tree.Root().String(), "--value", "0x02"}
	for _, d := range p {
		args = append(args, d.String())
	}
	require.NoError(t, runApp(t, args...))

	args[5] = "0x04"
	require.ErrorIs(t, runApp(t, args...), proof.ErrProofVerificationFailed)
}

func TestWriteJSONFileReportsFailures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, writeJSONFile(path, map[string]int{"a": 1}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"a": 1`)

	require.Error(t, writeJSONFile(filepath.Join(dir, "missing", "out.json"), 1))

	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full")
	}
	require.Error(t, writeJSONFile("/dev/full", map[string]int{"a": 1}))
}
