package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears key for the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()

	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("AUTOSLUG_TEST_DEFAULT=from-dotenv\nAUTOSLUG_TEST_SHARED=from-dotenv\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.env"),
		[]byte("AUTOSLUG_TEST_EXTRA=from-extra\nAUTOSLUG_TEST_SHARED=from-extra\n"), 0o600))
	t.Chdir(dir)

	for _, key := range []string{"AUTOSLUG_TEST_DEFAULT", "AUTOSLUG_TEST_EXTRA", "AUTOSLUG_TEST_SHARED"} {
		unsetEnv(t, key)
	}

	require.NoError(t, loadDotenv("extra.env"))
	assert.Equal(t, "from-dotenv", os.Getenv("AUTOSLUG_TEST_DEFAULT"))
	assert.Equal(t, "from-extra", os.Getenv("AUTOSLUG_TEST_EXTRA"))
	assert.Equal(t, "from-dotenv", os.Getenv("AUTOSLUG_TEST_SHARED"), "values already set are kept")
}

func TestLoadDotenv_Missing(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, loadDotenv(), "a missing .env is fine")
	require.Error(t, loadDotenv("missing.env"), "a missing extra file is not")
}
