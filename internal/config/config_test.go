package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvPort, EnvScenesDir, EnvAssetsDir, EnvWorkers, EnvLogLevel} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autonate.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DefaultMaxFrames, cfg.Server.MaxFrames)
	assert.True(t, cfg.Scenes.BuiltIn)
	assert.True(t, cfg.Scenes.Watch)
	assert.Positive(t, cfg.Render.Workers)
	assert.Equal(t, 1, cfg.Render.MaxJobs)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
[server]
addr = ":9000"
max_frames = 300

[scenes]
dir = "scenes"
watch = false

[render]
workers = 3
output_dir = "out"

[log]
level = "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 300, cfg.Server.MaxFrames)
	assert.Equal(t, "scenes", cfg.Scenes.Dir)
	assert.False(t, cfg.Scenes.Watch)
	assert.True(t, cfg.Scenes.BuiltIn, "unset keys keep their defaults")
	assert.Equal(t, 3, cfg.Render.Workers)
	assert.Equal(t, DefaultChunkSize, cfg.Render.ChunkSize)
	assert.Equal(t, "out", cfg.Render.OutputDir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "[render]\nworkers = 3\n")

	t.Setenv(EnvPort, "7070")
	t.Setenv(EnvScenesDir, "/srv/scenes")
	t.Setenv(EnvAssetsDir, "/srv/assets")
	t.Setenv(EnvWorkers, "6")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "/srv/scenes", cfg.Scenes.Dir)
	assert.Equal(t, "/srv/assets", cfg.Assets.Dir)
	assert.Equal(t, 6, cfg.Render.Workers)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "unknown key", content: "[server]\nport = 8080\n"},
		{name: "bad toml", content: "[server\n"},
		{name: "zero workers", content: "[render]\nworkers = 0\n"},
		{name: "no scenes", content: "[scenes]\nbuiltin = false\n"},
		{name: "bad env workers", content: "", env: map[string]string{EnvWorkers: "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_ReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Render.Workers = 0
	cfg.Render.ChunkSize = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render.workers")
	assert.Contains(t, err.Error(), "render.chunk_size")
}
