package thumb

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/Znapy/pv-organizer/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// InitVips initializes the libvips library.
// This should be called once at startup, and only when the fast image
// path is enabled in configuration.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Route vips log output through our leveled logger, suppressing
	// chatter below the configured level.
	var vipsLogLevel vips.LogLevel
	switch logging.GetLevel() {
	case logging.LevelDebug:
		vipsLogLevel = vips.LogLevelInfo
	case logging.LevelInfo:
		vipsLogLevel = vips.LogLevelWarning
	default:
		vipsLogLevel = vips.LogLevelError
	}

	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLogLevel)

	// Conservative memory settings: thumbnails are small and the worker
	// pool already parallelizes across files.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// loadImageWithVips loads an image with decode-time shrinking, which is
// much more memory efficient than decoding the full image and resizing.
func loadImageWithVips(path string, targetWidth, targetHeight int) (image.Image, error) {
	logging.Debug("Loading %s with vips (target: %dx%d)", filepath.Base(path), targetWidth, targetHeight)

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips load: %w", err)
	}
	defer ref.Close()

	if err := ref.Thumbnail(targetWidth, targetHeight, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips thumbnail: %w", err)
	}

	imgBytes, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		StripMetadata:  false,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export: %w", err)
	}

	// Convert back to image.Image so the rest of the pipeline stays
	// library-agnostic.
	img, err := imaging.Decode(bytes.NewReader(imgBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode vips output: %w", err)
	}

	return img, nil
}
