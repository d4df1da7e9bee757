package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, 300, cfg.DebounceMs)
	assert.Equal(t, 10000, cfg.TimeoutMs)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.True(t, cfg.UISettings.RestoreFilters)
}

func TestSaveAndLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	svc := &configService{filePath: path}

	cfg := DefaultConfig()
	cfg.PageSize = 50
	cfg.Database.Host = "db.example.org"
	cfg.UISettings.ShowDescriptions = false

	require.NoError(t, svc.SaveToPath(cfg, path))

	loaded, err := svc.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 50, loaded.PageSize)
	assert.Equal(t, "db.example.org", loaded.Database.Host)
	assert.False(t, loaded.UISettings.ShowDescriptions)
}

func TestLoadFromPathMissingFile(t *testing.T) {
	svc := &configService{}
	_, err := svc.LoadFromPath(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadFromPathBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{ broken"), 0644))

	svc := &configService{}
	_, err := svc.LoadFromPath(path)
	assert.Error(t, err)
}

func TestVersionMismatchFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99, "page_size": 7}`), 0644))

	svc := &configService{}
	loaded, err := svc.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded, "unknown schema versions are discarded, not migrated")
}

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 1}`), 0644))

	svc := &configService{}
	loaded, err := svc.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 25, loaded.PageSize)
	assert.Equal(t, 300, loaded.DebounceMs)
	assert.Equal(t, 5432, loaded.Database.Port)
	assert.Equal(t, "require", loaded.Database.SSLMode)
}
