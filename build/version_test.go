package build

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// verify version is set from BuildVersionArray, not hardcoded placeholder
func TestBuildVersionNotZero(t *testing.T) {
	require.NotEqual(t, "0.0.0", BuildVersion)
	require.NotEmpty(t, BuildVersion)
}

func TestFormatVersion(t *testing.T) {
	require.Equal(t, "1.2.3", formatVersion([3]int{1, 2, 3}, 0))
	require.Equal(t, "1.2.3-rc2", formatVersion([3]int{1, 2, 3}, 2))
}

func TestUserVersion(t *testing.T) {
	old := CurrentCommit
	t.Cleanup(func() { CurrentCommit = old })

	CurrentCommit = "4c5e98f28"
	t.Setenv("MIXPROOF_VERSION_IGNORE_COMMIT", "")
	require.Equal(t, BuildVersion+"+4c5e98f28", UserVersion())

	t.Setenv("MIXPROOF_VERSION_IGNORE_COMMIT", "1")
	require.Equal(t, BuildVersion, UserVersion())
}
