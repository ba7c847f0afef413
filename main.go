package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Znapy/pv-organizer/internal/config"
	"github.com/Znapy/pv-organizer/internal/dispatch"
	"github.com/Znapy/pv-organizer/internal/engine"
	"github.com/Znapy/pv-organizer/internal/filesystem"
	"github.com/Znapy/pv-organizer/internal/journal"
	"github.com/Znapy/pv-organizer/internal/lockfile"
	"github.com/Znapy/pv-organizer/internal/logging"
	"github.com/Znapy/pv-organizer/internal/mediakind"
	"github.com/Znapy/pv-organizer/internal/metrics"
	"github.com/Znapy/pv-organizer/internal/plan"
	"github.com/Znapy/pv-organizer/internal/scan"
	"github.com/Znapy/pv-organizer/internal/startup"
	"github.com/Znapy/pv-organizer/internal/thumb"
	"github.com/Znapy/pv-organizer/internal/watch"
)

// journalDirName holds organizer-owned state inside the destination.
// Dotfiles there are excluded from orphan sweeps.
const journalDirName = ".pv-organizer"

var errRunHadFailures = errors.New("synchronization completed with failures")

var rootCmd = &cobra.Command{
	Use:     "pv-organizer",
	Short:   "Mirror a photo and video library as small copies",
	Long:    "pv-organizer walks a source library and maintains a destination tree of downscaled thumbnails, refreshing only what changed.",
	Version: startup.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		if level, _ := cmd.Flags().GetString("loglevel"); level != "" {
			logging.SetLevel(level)
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		startup.LogStartup()

		if err := cfg.Validate(); err != nil {
			return err
		}
		startup.LogConfig(cfg)

		// Config errors print usage; anything past validation is runtime.
		cmd.SilenceUsage = true

		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("source", "s", "", "Path to source directory (overrides config file)")
	rootCmd.Flags().StringP("destination", "d", "", "Path to destination directory (overrides config file)")
	rootCmd.Flags().IntP("workers", "w", 0, "Worker count (0 = automatic)")
	rootCmd.Flags().Bool("dry-run", false, "Log planned actions without writing anything")
	rootCmd.Flags().Bool("watch", false, "Keep running and re-sync on source changes")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to TOML config file")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "", "Log level: debug, info, warn, error")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errRunHadFailures) && !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	lock, err := lockfile.Acquire(cfg.Destination)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logging.Warn("%v", err)
		}
	}()

	metrics.InitializeMetrics()
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"source":      cfg.Source,
		"destination": cfg.Destination,
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	if cfg.VipsEnabled {
		if err := thumb.InitVips(); err != nil {
			logging.Warn("libvips init failed, using pure-Go decoding: %v", err)
		}
		defer thumb.ShutdownVips()
	}
	startup.LogGeneratorInit(cfg.VipsEnabled)

	var metricsServer *metrics.Server
	if cfg.Watch && cfg.MetricsEnabled {
		metricsServer = metrics.NewServer(strconv.Itoa(cfg.MetricsPort))
		metricsServer.Start()
	}

	var runJournal *journal.Journal
	if cfg.JournalEnabled && !cfg.DryRun {
		journalDir := filepath.Join(cfg.Destination, journalDirName)
		if err := os.MkdirAll(journalDir, dispatch.DirectoryMode); err != nil {
			logging.Warn("Journal disabled: %v", err)
		} else {
			j, err := journal.Open(ctx, filepath.Join(journalDir, "runs.db"))
			if err != nil {
				logging.Warn("Journal disabled: %v", err)
			} else {
				runJournal = j
			}
		}
	}

	classifier := mediakind.Default()
	walker := scan.NewWalker(cfg.Source, classifier)
	walker.Excludes = cfg.Excludes
	decider := plan.NewDecider(cfg.Source, cfg.Destination, classifier)
	generator := thumb.NewGenerator(cfg.SmallWidth, cfg.SmallHeight, cfg.FramePercents)
	dispatcher := dispatch.NewDispatcher(cfg.Destination, generator, cfg.DryRun)
	driver := engine.NewDriver(walker, decider, dispatcher, startup.EffectiveWorkers(cfg))

	runOnce := func(ctx context.Context) (*engine.RunResult, error) {
		startup.LogRunStarted()
		result, err := driver.Run(ctx)
		if err != nil {
			return nil, err
		}
		if runJournal != nil {
			// Recording uses a fresh context so a cancelled run still
			// lands in history.
			if err := runJournal.Record(context.Background(), result); err != nil {
				logging.Warn("Failed to record run in journal: %v", err)
			}
		}
		return result, nil
	}

	var runErr error
	if cfg.Watch {
		watcher := watch.NewWatcher(cfg.Source, cfg.WatchDebounce, func(ctx context.Context) error {
			_, err := runOnce(ctx)
			return err
		})
		runErr = watcher.Watch(ctx)
		if errors.Is(runErr, context.Canceled) {
			runErr = nil
		}
	} else {
		var result *engine.RunResult
		result, runErr = runOnce(ctx)
		if runErr == nil && result.HasFailures() {
			runErr = errRunHadFailures
		}
	}

	shutdown(metricsServer, runJournal)
	return runErr
}

func shutdown(metricsServer *metrics.Server, runJournal *journal.Journal) {
	startup.LogShutdownInitiated("signal or completion")

	if metricsServer != nil {
		startup.LogShutdownStep("Stopping metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Metrics server shutdown: %v", err)
		}
		cancel()
		startup.LogShutdownStepComplete("Metrics server stopped")
	}

	if runJournal != nil {
		startup.LogShutdownStep("Closing journal")
		if err := runJournal.Close(); err != nil {
			logging.Warn("Journal close: %v", err)
		}
		startup.LogShutdownStepComplete("Journal closed")
	}

	startup.LogShutdownComplete()
}
