package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpindexer/cpindexer/internal/config"
)

func TestDefaultConfig_MatchesEngineDefaults(t *testing.T) {
	def := config.DefaultConfig()
	assert.True(t, def.IndexerEnabled)
	assert.Equal(t, 1000, def.InstantIndexingLimit)
	assert.Equal(t, "en-US", def.Locale)
}

func TestEngineConfig_ProjectsEngineFields(t *testing.T) {
	def := config.DefaultConfig()
	ec := def.EngineConfig()
	assert.Equal(t, def.IndexerEnabled, ec.IndexerEnabled)
	assert.Equal(t, def.UpsertBatch, ec.UpsertBatch)
	assert.Equal(t, def.DeltaUpdateLimit, ec.DeltaUpdateLimit)
}

func TestSave_WritesReadableYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c := config.DefaultConfig()
	c.Locale = "pt-BR"
	require.NoError(t, config.Save(c))

	raw, err := os.ReadFile(filepath.Join(home, ".config", "cpindexer", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "pt-BR")
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	viper.Reset()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	got, err := config.Load()
	require.NoError(t, err)
	assert.True(t, got.IndexerEnabled)
	assert.Equal(t, 1000, got.InstantIndexingLimit)
}

func TestLoad_ReadsOverridesFromWorkingDirectory(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("locale: pt-BR\nupsert_batch: 25\n"), 0o644))

	got, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "pt-BR", got.Locale)
	assert.Equal(t, 25, got.UpsertBatch)
}
