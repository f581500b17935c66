package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitliner/internal/engine"
	"github.com/thiagokokada/gitliner/internal/git"
	"github.com/thiagokokada/gitliner/internal/render"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, git.DefaultPageSize, cfg.PageSize)
	assert.Equal(t, engine.BackendCLI, cfg.Backend)
	assert.Equal(t, render.ColorAuto, cfg.Color)
	assert.Equal(t, render.ThemeAuto, cfg.Theme)
	assert.Equal(t, render.FormatTable, cfg.Output)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.Watch)
}

func TestLoadFromFileAndEnvironment(t *testing.T) {
	v := newViper(t)
	file := filepath.Join(t.TempDir(), "gitliner.yaml")
	require.NoError(t, os.WriteFile(file, []byte("page-size: 20\nbackend: native\ncache-ttl: 30s\ntheme: dark\n"), 0o600))
	v.Set(KeyConfig, file)
	t.Setenv("GITLINER_PAGE_SIZE", "10")
	t.Setenv("GITLINER_ARTIFACT_TTL", "2m")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.PageSize, "environment wins over the file")
	assert.Equal(t, engine.BackendNative, cfg.Backend)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 2*time.Minute, cfg.ArtifactTTL)
	assert.Equal(t, render.ThemeDark, cfg.Theme)

	opts := cfg.EngineOptions()
	assert.Equal(t, engine.BackendNative, opts.Backend)
	assert.Equal(t, 2*time.Minute, opts.ArtifactTTL)
}

func TestLoadRejectsBrokenConfigFile(t *testing.T) {
	v := newViper(t)
	file := filepath.Join(t.TempDir(), "gitliner.yaml")
	require.NoError(t, os.WriteFile(file, []byte("page-size: [\n"), 0o600))
	v.Set(KeyConfig, file)
	_, err := Load(v)
	assert.ErrorContains(t, err, "error reading config file")
}

func TestProcessCollectsEveryProblem(t *testing.T) {
	_, err := Process(RawInput{
		PageSize:    0,
		CacheTTL:    time.Minute,
		CacheSize:   1,
		ArtifactTTL: time.Minute,
		StatWorkers: 1,
		Backend:     "libgit2",
		Color:       "sometimes",
		Output:      "table",
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "page-size must be > 0")
	assert.ErrorContains(t, err, `backend must be cli or native, got "libgit2"`)
	assert.ErrorContains(t, err, "invalid color mode")
}

func TestProcessNormalizes(t *testing.T) {
	cfg, err := Process(RawInput{
		PageSize:    5,
		CacheTTL:    time.Minute,
		CacheSize:   1,
		ArtifactTTL: time.Minute,
		StatWorkers: 2,
		Backend:     " Native ",
		Color:       "NEVER",
		Theme:       "light",
		Output:      "csv",
		Width:       100,
	})
	require.NoError(t, err)
	assert.Equal(t, engine.BackendNative, cfg.Backend)
	assert.Equal(t, render.ColorNever, cfg.Color)
	assert.Equal(t, render.FormatCSV, cfg.Output)
	assert.Equal(t, render.Options{Color: render.ColorNever, Theme: render.ThemeLight, Width: 100}, cfg.RenderOptions())
}
