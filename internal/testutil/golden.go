package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// GoldenUpdateEnv names the environment variable that rewrites golden files
// instead of comparing against them.
const GoldenUpdateEnv = "GOLDEN_UPDATE"

// GoldenString compares got against testdata/<name>.golden.
// Line endings in the golden file are normalised to \n.
func GoldenString(t *testing.T, name string, got string) {
	t.Helper()

	path := filepath.Join("testdata", name+".golden")

	if os.Getenv(GoldenUpdateEnv) != "" {
		require.NoError(t, os.MkdirAll("testdata", 0755))
		require.NoError(t, os.WriteFile(path, []byte(got), 0644))
		return
	}

	want, err := os.ReadFile(path)
	require.NoErrorf(t, err, "read golden file %s; got:\n%s", path, got)

	assert.Equal(t, strings.ReplaceAll(string(want), "\r\n", "\n"), got, "output mismatch for %s", name)
}
