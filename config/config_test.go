package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "tsumiki.toml", `
[world]
collection_capacity = 256
free_list_limit = 32

[scheduler]
tick_rate = "20ms"
max_ticks = 100

[logging]
level = "debug"
format = "json"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.World.CollectionCapacity)
	assert.Equal(t, 32, cfg.World.FreeListLimit)
	assert.Equal(t, 20*time.Millisecond, cfg.Scheduler.TickRate)
	assert.Equal(t, 100, cfg.Scheduler.MaxTicks)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadYAMLKeepsDefaults(t *testing.T) {
	path := writeFile(t, "tsumiki.yaml", `
world:
  free_list_limit: 8
scheduler:
  tick_rate: 50ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	def := Default()
	assert.Equal(t, def.World.CollectionCapacity, cfg.World.CollectionCapacity)
	assert.Equal(t, 8, cfg.World.FreeListLimit)
	assert.Equal(t, 50*time.Millisecond, cfg.Scheduler.TickRate)
	assert.Equal(t, def.Logging, cfg.Logging)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, file, body, want string
	}{
		{"extension", "cfg.json", `{}`, "unsupported extension"},
		{"syntax", "cfg.toml", `[world`, "parse config"},
		{"invalid", "cfg.yml", "world:\n  collection_capacity: -1\n", "collection_capacity"},
		{"format", "cfg.toml", "[logging]\nformat = \"xml\"\n", "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.World.FreeListLimit = -1
	cfg.Scheduler.TickRate = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "free_list_limit")
	assert.ErrorContains(t, err, "tick_rate")
	assert.NoError(t, Default().Validate())
}
