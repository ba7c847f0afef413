package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Source:         t.TempDir(),
		Destination:    filepath.Join(t.TempDir(), "thumbs"),
		SmallWidth:     1280,
		SmallHeight:    720,
		FramePercents:  []int{20},
		WatchDebounce:  DefaultWatchDebounce,
		MetricsPort:    DefaultMetricsPort,
		MetricsEnabled: true,
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	// missing destination gets created
	info, err := os.Stat(cfg.Destination)
	if err != nil {
		t.Fatalf("destination not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("destination is not a directory")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, c *Config)
		field  string
	}{
		{
			name:   "source not set",
			mutate: func(t *testing.T, c *Config) { c.Source = "" },
			field:  "source",
		},
		{
			name:   "destination not set",
			mutate: func(t *testing.T, c *Config) { c.Destination = "" },
			field:  "destination",
		},
		{
			name: "source does not exist",
			mutate: func(t *testing.T, c *Config) {
				c.Source = filepath.Join(t.TempDir(), "absent")
			},
			field: "source",
		},
		{
			name: "source is a file",
			mutate: func(t *testing.T, c *Config) {
				f := filepath.Join(t.TempDir(), "file")
				if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
					t.Fatal(err)
				}
				c.Source = f
			},
			field: "source",
		},
		{
			name:   "source equals destination",
			mutate: func(t *testing.T, c *Config) { c.Destination = c.Source },
			field:  "destination",
		},
		{
			name:   "zero thumbnail width",
			mutate: func(t *testing.T, c *Config) { c.SmallWidth = 0 },
			field:  "small_size",
		},
		{
			name:   "frame percent out of range",
			mutate: func(t *testing.T, c *Config) { c.FramePercents = []int{20, 140} },
			field:  "frames",
		},
		{
			name:   "negative workers",
			mutate: func(t *testing.T, c *Config) { c.Workers = -1 },
			field:  "workers",
		},
		{
			name:   "invalid metrics port",
			mutate: func(t *testing.T, c *Config) { c.MetricsPort = 0 },
			field:  "metrics_port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(t, cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error type = %T, want *ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("error field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestValidate_AbsolutePaths(t *testing.T) {
	srcParent := t.TempDir()
	if err := os.Mkdir(filepath.Join(srcParent, "photos"), 0o755); err != nil {
		t.Fatal(err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(srcParent); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	}()

	cfg := validConfig(t)
	cfg.Source = "photos"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !filepath.IsAbs(cfg.Source) {
		t.Errorf("source %q not resolved to an absolute path", cfg.Source)
	}
}

func TestConfigError_Message(t *testing.T) {
	err := &ConfigError{Field: "source", Reason: "not set"}
	want := "config: source: not set"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDefaults(t *testing.T) {
	if DefaultWatchDebounce != 2*time.Second {
		t.Errorf("DefaultWatchDebounce = %v, want 2s", DefaultWatchDebounce)
	}
	if DefaultMetricsPort != 9278 {
		t.Errorf("DefaultMetricsPort = %d, want 9278", DefaultMetricsPort)
	}
}
