// Package config resolves settings from flags, GITLINER_* environment
// variables and an optional .gitliner.yaml file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/thiagokokada/gitliner/internal/cache"
	"github.com/thiagokokada/gitliner/internal/engine"
	"github.com/thiagokokada/gitliner/internal/git"
	"github.com/thiagokokada/gitliner/internal/ledger"
	"github.com/thiagokokada/gitliner/internal/render"
	"github.com/thiagokokada/gitliner/internal/watch"
)

const (
	EnvPrefix = "GITLINER"
	FileName  = ".gitliner"
)

// Keys shared by flags, environment variables and the config file.
const (
	KeyConfig      = "config"
	KeyPageSize    = "page-size"
	KeyCacheTTL    = "cache-ttl"
	KeyCacheSize   = "cache-size"
	KeyArtifactTTL = "artifact-ttl"
	KeyArtifactDir = "artifact-dir"
	KeyBackend     = "backend"
	KeyStatWorkers = "stat-workers"
	KeyWatch       = "watch"
	KeyWatchDelay  = "watch-delay"
	KeyColor       = "color"
	KeyTheme       = "theme"
	KeyOutput      = "output"
	KeyWidth       = "width"
	KeyVerbose     = "verbose"
)

// RawInput is what viper unmarshals into, before validation.
type RawInput struct {
	PageSize    int           `mapstructure:"page-size"`
	CacheTTL    time.Duration `mapstructure:"cache-ttl"`
	CacheSize   int           `mapstructure:"cache-size"`
	ArtifactTTL time.Duration `mapstructure:"artifact-ttl"`
	ArtifactDir string        `mapstructure:"artifact-dir"`
	Backend     string        `mapstructure:"backend"`
	StatWorkers int           `mapstructure:"stat-workers"`
	Watch       bool          `mapstructure:"watch"`
	WatchDelay  time.Duration `mapstructure:"watch-delay"`
	Color       string        `mapstructure:"color"`
	Theme       string        `mapstructure:"theme"`
	Output      string        `mapstructure:"output"`
	Width       int           `mapstructure:"width"`
	Verbose     bool          `mapstructure:"verbose"`
}

// Config is the validated configuration.
type Config struct {
	PageSize    int
	CacheTTL    time.Duration
	CacheSize   int
	ArtifactTTL time.Duration
	ArtifactDir string
	Backend     string
	StatWorkers int
	Watch       bool
	WatchDelay  time.Duration
	Color       render.ColorMode
	Theme       render.ThemePreference
	Output      render.Format
	Width       int
	Verbose     bool
}

// SetDefaults registers the default of every key and wires the environment.
func SetDefaults(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyPageSize, git.DefaultPageSize)
	v.SetDefault(KeyCacheTTL, cache.DefaultTTL)
	v.SetDefault(KeyCacheSize, cache.DefaultSize)
	v.SetDefault(KeyArtifactTTL, ledger.DefaultTTL)
	v.SetDefault(KeyArtifactDir, "")
	v.SetDefault(KeyBackend, engine.BackendCLI)
	v.SetDefault(KeyStatWorkers, git.DefaultStatWorkers)
	v.SetDefault(KeyWatch, false)
	v.SetDefault(KeyWatchDelay, watch.DefaultDelay)
	v.SetDefault(KeyColor, string(render.ColorAuto))
	v.SetDefault(KeyTheme, render.ThemeAuto.String())
	v.SetDefault(KeyOutput, string(render.FormatTable))
	v.SetDefault(KeyWidth, 0)
	v.SetDefault(KeyVerbose, false)
}

// Load reads the config file, if any, and validates the merged settings.
// A missing config file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if file := v.GetString(KeyConfig); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	var in RawInput
	if err := v.Unmarshal(&in); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return Process(in)
}

// Process validates raw input and converts it to a Config.
func Process(in RawInput) (*Config, error) {
	var errs []error
	if in.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("%s must be > 0, got %d", KeyPageSize, in.PageSize))
	}
	if in.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", KeyCacheTTL, in.CacheTTL))
	}
	if in.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("%s must be > 0, got %d", KeyCacheSize, in.CacheSize))
	}
	if in.ArtifactTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", KeyArtifactTTL, in.ArtifactTTL))
	}
	if in.StatWorkers <= 0 {
		errs = append(errs, fmt.Errorf("%s must be > 0, got %d", KeyStatWorkers, in.StatWorkers))
	}
	if in.WatchDelay < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %s", KeyWatchDelay, in.WatchDelay))
	}
	if in.Width < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %d", KeyWidth, in.Width))
	}
	backend := strings.ToLower(strings.TrimSpace(in.Backend))
	switch backend {
	case engine.BackendCLI, engine.BackendNative:
	default:
		errs = append(errs, fmt.Errorf("%s must be %s or %s, got %q", KeyBackend, engine.BackendCLI, engine.BackendNative, in.Backend))
	}
	colorMode, err := render.ParseColorMode(in.Color)
	if err != nil {
		errs = append(errs, err)
	}
	format, err := render.ParseFormat(in.Output)
	if err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Config{
		PageSize:    in.PageSize,
		CacheTTL:    in.CacheTTL,
		CacheSize:   in.CacheSize,
		ArtifactTTL: in.ArtifactTTL,
		ArtifactDir: in.ArtifactDir,
		Backend:     backend,
		StatWorkers: in.StatWorkers,
		Watch:       in.Watch,
		WatchDelay:  in.WatchDelay,
		Color:       colorMode,
		Theme:       render.ThemePreferenceFromString(in.Theme),
		Output:      format,
		Width:       in.Width,
		Verbose:     in.Verbose,
	}, nil
}

func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		CacheTTL:    c.CacheTTL,
		CacheSize:   c.CacheSize,
		ArtifactTTL: c.ArtifactTTL,
		ArtifactDir: c.ArtifactDir,
		Backend:     c.Backend,
		StatWorkers: c.StatWorkers,
		Watch:       c.Watch,
		WatchDelay:  c.WatchDelay,
	}
}

func (c *Config) RenderOptions() render.Options {
	return render.Options{Color: c.Color, Theme: c.Theme, Width: c.Width}
}
