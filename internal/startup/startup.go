package startup

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/Znapy/pv-organizer/internal/config"
	"github.com/Znapy/pv-organizer/internal/logging"
	"github.com/Znapy/pv-organizer/internal/thumb"
	"github.com/Znapy/pv-organizer/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// LogStartup prints the banner and system information.
func LogStartup() {
	printBanner()
	logSystemInfo()
}

// LogConfig logs the effective configuration in one section.
func LogConfig(cfg *config.Config) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Source:          %s", cfg.Source)
	logging.Info("  Destination:     %s", cfg.Destination)
	logging.Info("  Thumbnail size:  %dx%d", cfg.SmallWidth, cfg.SmallHeight)
	logging.Info("  Frame percents:  %v", cfg.FramePercents)
	if len(cfg.Excludes) > 0 {
		logging.Info("  Excludes:        %v", cfg.Excludes)
	}
	logging.Info("  Workers:         %d", EffectiveWorkers(cfg))
	logging.Info("  Dry run:         %v", cfg.DryRun)
	logging.Info("  Watch mode:      %v", cfg.Watch)
	if cfg.Watch {
		logging.Info("  Watch debounce:  %s", cfg.WatchDebounce)
		logging.Info("  Metrics:         %s", enabledString(cfg.MetricsEnabled))
		if cfg.MetricsEnabled {
			logging.Info("  Metrics port:    %d", cfg.MetricsPort)
		}
	}
	logging.Info("  Journal:         %s", enabledString(cfg.JournalEnabled))
	logging.Info("  Log level:       %s", logging.GetLevel())
	logging.Info("")
}

// EffectiveWorkers resolves the worker count: an explicit setting wins,
// otherwise size the pool for mixed CPU and IO work.
func EffectiveWorkers(cfg *config.Config) int {
	if cfg.Workers > 0 {
		return cfg.Workers
	}
	return workers.ForMixed(0)
}

// LogGeneratorInit checks external tooling for the thumbnail generator
// and logs what is available.
func LogGeneratorInit(vipsEnabled bool) {
	logging.Info("------------------------------------------------------------")
	logging.Info("THUMBNAIL GENERATOR")
	logging.Info("------------------------------------------------------------")

	if err := thumb.CheckFFmpeg(); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Video thumbnails will fail until ffmpeg/ffprobe are installed")
	} else {
		logging.Info("  [OK] FFmpeg is available")
	}

	if vipsEnabled {
		if thumb.IsVipsAvailable() {
			logging.Info("  [OK] libvips fast path enabled")
		} else {
			logging.Info("  libvips unavailable, using pure-Go image decoding")
		}
	} else {
		logging.Info("  libvips disabled by configuration")
	}
	logging.Info("")
}

// LogRunStarted marks the beginning of a synchronization pass.
func LogRunStarted() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYNCHRONIZATION")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func printBanner() {
	banner := `
------------------------------------------------------------
    ____ _    __   ____                        _
   / __ \ |  / /  / __ \_________ _____ _____ (_)___ ___  _____
  / /_/ / | / /  / / / / ___/ __ '/ __ '/ __ \/ /_  / _ \/ ___/
 / ____/| |/ /  / /_/ / /  / /_/ / /_/ / / / / / / /_  __/ /
/_/     |___/   \____/_/   \__, /\__,_/_/ /_/_/ /___|___/_/
                          /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}
