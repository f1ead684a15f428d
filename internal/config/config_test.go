package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "family.json", cfg.DataFile)
	assert.Equal(t, "TREE> ", cfg.Prompt)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.Autosave)
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("KINSHIP_DATA_FILE", "")
	t.Setenv("KINSHIP_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "nested", "kinship.yaml")

	cfg := DefaultConfig()
	cfg.DataFile = "smiths.json"
	cfg.Autosave = true
	cfg.ReferenceDate = "01-06-2024"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "smiths.json", loaded.DataFile)
	assert.True(t, loaded.Autosave)

	today, err := loaded.Today()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), today)
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv("KINSHIP_DATA_FILE", "")
	t.Setenv("KINSHIP_LOG_LEVEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KINSHIP_DATA_FILE", "env.json")
	t.Setenv("KINSHIP_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env.json", cfg.DataFile)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("prompt: [unterminated"), 0644))
	_, err := Load(bad)
	assert.Error(t, err)

	date := filepath.Join(dir, "date.yaml")
	require.NoError(t, os.WriteFile(date, []byte("reference_date: tomorrow\n"), 0644))
	_, err = Load(date)
	assert.Error(t, err)
}
