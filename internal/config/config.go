// Package config loads organizer settings from a TOML file, PVO_
// environment variables, and command-line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Znapy/pv-organizer/internal/dispatch"
	"github.com/Znapy/pv-organizer/internal/logging"
)

const (
	DefaultMetricsPort   = 9278
	DefaultWatchDebounce = 2 * time.Second

	defaultSmallWidth  = 1280
	defaultSmallHeight = 720
)

// ConfigError marks a configuration problem that must abort the run
// before any filesystem work starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Config holds every runtime setting.
type Config struct {
	Source      string
	Destination string

	SmallWidth    int
	SmallHeight   int
	FramePercents []int

	Excludes []string
	Workers  int

	DryRun        bool
	Watch         bool
	WatchDebounce time.Duration

	MetricsEnabled bool
	MetricsPort    int

	JournalEnabled bool
	VipsEnabled    bool
}

func setDefaults() {
	viper.SetDefault("small_size", []int{defaultSmallWidth, defaultSmallHeight})
	viper.SetDefault("frames", []int{20})
	viper.SetDefault("excludes", []string{})
	viper.SetDefault("workers", 0)
	viper.SetDefault("watch_debounce", DefaultWatchDebounce)
	viper.SetDefault("metrics_enabled", true)
	viper.SetDefault("metrics_port", DefaultMetricsPort)
	viper.SetDefault("journal_enabled", true)
	viper.SetDefault("vips_enabled", true)
}

// Load reads the config file named by the --config flag (optional),
// applies PVO_ environment variables, and lets changed flags override
// both.
func Load(cmd *cobra.Command) (*Config, error) {
	setDefaults()

	if cmd.Flag("config").Changed {
		configPath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pv-organizer"))
		}
		viper.SetConfigName("pv-organizer")
		viper.SetConfigType("toml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	} else {
		logging.Debug("Loaded config file %s", viper.ConfigFileUsed())
	}

	bind := func(key, flag string) {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			logging.Error("failed to bind flag %s: %v", flag, err)
		}
	}
	bind("source", "source")
	bind("destination", "destination")
	bind("workers", "workers")
	bind("dry_run", "dry-run")
	bind("watch", "watch")

	viper.SetEnvPrefix("PVO")
	viper.AutomaticEnv()

	cfg := &Config{
		Source:         viper.GetString("source"),
		Destination:    viper.GetString("destination"),
		FramePercents:  viper.GetIntSlice("frames"),
		Excludes:       viper.GetStringSlice("excludes"),
		Workers:        viper.GetInt("workers"),
		DryRun:         viper.GetBool("dry_run"),
		Watch:          viper.GetBool("watch"),
		WatchDebounce:  viper.GetDuration("watch_debounce"),
		MetricsEnabled: viper.GetBool("metrics_enabled"),
		MetricsPort:    viper.GetInt("metrics_port"),
		JournalEnabled: viper.GetBool("journal_enabled"),
		VipsEnabled:    viper.GetBool("vips_enabled"),
	}

	smallSize := viper.GetIntSlice("small_size")
	switch len(smallSize) {
	case 2:
		cfg.SmallWidth, cfg.SmallHeight = smallSize[0], smallSize[1]
	case 0:
		cfg.SmallWidth, cfg.SmallHeight = defaultSmallWidth, defaultSmallHeight
	default:
		return nil, &ConfigError{Field: "small_size", Reason: "expected exactly two values [width, height]"}
	}

	return cfg, nil
}

// Validate checks the configuration and prepares the destination. The
// source must already exist as a directory. A missing destination is
// created, following the organizer's ownership of that tree.
func (c *Config) Validate() error {
	if c.Source == "" {
		return &ConfigError{Field: "source", Reason: "not set"}
	}
	if c.Destination == "" {
		return &ConfigError{Field: "destination", Reason: "not set"}
	}

	src, err := filepath.Abs(c.Source)
	if err != nil {
		return &ConfigError{Field: "source", Reason: err.Error()}
	}
	c.Source = src

	dest, err := filepath.Abs(c.Destination)
	if err != nil {
		return &ConfigError{Field: "destination", Reason: err.Error()}
	}
	c.Destination = dest

	info, err := os.Stat(c.Source)
	if err != nil {
		return &ConfigError{Field: "source", Reason: fmt.Sprintf("%s: %v", c.Source, err)}
	}
	if !info.IsDir() {
		return &ConfigError{Field: "source", Reason: fmt.Sprintf("%s is not a directory", c.Source)}
	}

	if info, err := os.Stat(c.Destination); err == nil {
		if !info.IsDir() {
			return &ConfigError{Field: "destination", Reason: fmt.Sprintf("%s is not a directory", c.Destination)}
		}
	} else if os.IsNotExist(err) {
		if err := os.MkdirAll(c.Destination, dispatch.DirectoryMode); err != nil {
			return &ConfigError{Field: "destination", Reason: fmt.Sprintf("create %s: %v", c.Destination, err)}
		}
		logging.Info("Created destination directory %s", c.Destination)
	} else {
		return &ConfigError{Field: "destination", Reason: fmt.Sprintf("%s: %v", c.Destination, err)}
	}

	if c.Source == c.Destination {
		return &ConfigError{Field: "destination", Reason: "must differ from source"}
	}

	if c.SmallWidth <= 0 || c.SmallHeight <= 0 {
		return &ConfigError{Field: "small_size", Reason: "dimensions must be positive"}
	}
	for _, p := range c.FramePercents {
		if p < 0 || p > 100 {
			return &ConfigError{Field: "frames", Reason: fmt.Sprintf("percent %d out of range [0,100]", p)}
		}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "workers", Reason: "must not be negative"}
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return &ConfigError{Field: "metrics_port", Reason: fmt.Sprintf("invalid port %d", c.MetricsPort)}
	}

	return nil
}
