package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Cache, cfg.Cache)
	assert.Equal(t, Default().Server, cfg.Server)
}

func TestLoadParsesPartialFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".ctxopt.toml")
	contents := `
[cache]
max_entries = 1024

[server]
name = "ctxopt-test"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Cache.MaxEntries)
	assert.Equal(t, "ctxopt-test", cfg.Server.Name)
	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Pipeline, cfg.Pipeline)
	assert.Equal(t, Default().Session.MaxCommandLog, cfg.Session.MaxCommandLog)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".ctxopt.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadWithRootResolvesDefaultFileUnderRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(`
[project]
name = "widget"
`), 0o644))

	cfg, err := LoadWithRoot(DefaultFileName, dir)
	require.NoError(t, err)
	assert.Equal(t, "widget", cfg.Project.Name)

	absDir, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, absDir, cfg.Project.Root)
}
