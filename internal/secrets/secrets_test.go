// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingDirectory(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadReadsTrimmedValues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "semantic-scholar-api-key"), []byte("  s2-key-123\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "openalex-email"), []byte("researcher@example.org"), 0o600))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"semantic-scholar-api-key": "s2-key-123",
		"openalex-email":           "researcher@example.org",
	}, got)
}

func TestLoadSkipsHiddenAndEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty-key"), []byte("   \n"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, got)
}
