package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := strings.Join([]string{
		"# credentials for live runs",
		"",
		"export DOTENV_TEST_EXPORT=exported",
		`DOTENV_TEST_QUOTED="a b"`,
		"DOTENV_TEST_SINGLE='solo'",
		"DOTENV_TEST_PRESET=from_file",
		"not a key value pair",
		"=orphan_value",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	for _, key := range []string{
		"DOTENV_TEST_EXPORT", "DOTENV_TEST_QUOTED", "DOTENV_TEST_SINGLE",
	} {
		key := key
		os.Unsetenv(key)
		t.Cleanup(func() { os.Unsetenv(key) })
	}
	t.Setenv("DOTENV_TEST_PRESET", "from_env")

	applyEnvFile(path)

	assert.Equal(t, "exported", os.Getenv("DOTENV_TEST_EXPORT"))
	assert.Equal(t, "a b", os.Getenv("DOTENV_TEST_QUOTED"))
	assert.Equal(t, "solo", os.Getenv("DOTENV_TEST_SINGLE"))

	// Existing environment always wins over the file.
	assert.Equal(t, "from_env", os.Getenv("DOTENV_TEST_PRESET"))
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "plain", unquote("plain"))
	assert.Equal(t, "wrapped", unquote(`"wrapped"`))
	assert.Equal(t, "wrapped", unquote("'wrapped'"))
	assert.Equal(t, `"mismatched'`, unquote(`"mismatched'`))
	assert.Equal(t, `"`, unquote(`"`))
}
