package thumb

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/Znapy/pv-organizer/internal/logging"
	"github.com/Znapy/pv-organizer/internal/mediakind"
	"github.com/Znapy/pv-organizer/internal/metrics"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const jpegQuality = 85

// Generator produces reduced-size thumbnail bytes for images and videos.
// It is safe for concurrent use; all state is read-only after construction.
type Generator struct {
	maxWidth      int
	maxHeight     int
	framePercents []int
}

// NewGenerator creates a generator bounded to the given maximum dimensions.
// framePercents are the video positions (as percentages of the duration)
// to sample; exactly four positions produce a 2x2 collage, otherwise only
// the first position is used for a single representative frame.
func NewGenerator(maxWidth, maxHeight int, framePercents []int) *Generator {
	if len(framePercents) == 0 {
		framePercents = []int{20}
	}
	return &Generator{
		maxWidth:      maxWidth,
		maxHeight:     maxHeight,
		framePercents: framePercents,
	}
}

// Generate produces thumbnail bytes for the given media kind.
func (g *Generator) Generate(ctx context.Context, kind mediakind.Kind, path string) ([]byte, error) {
	start := time.Now()

	var data []byte
	var err error
	switch kind {
	case mediakind.KindImage:
		data, err = g.Image(path)
	case mediakind.KindVideo:
		data, err = g.Video(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported media kind: %s", kind)
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues(string(kind), status).Inc()
	metrics.ThumbnailGenerationDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	return data, err
}

// Image decodes, downscales and re-encodes an image in its own format
// (JPEG when the format has no encoder). Aspect ratio is preserved.
func (g *Generator) Image(path string) ([]byte, error) {
	img, err := g.load(path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	thumb := imaging.Fit(img, g.maxWidth, g.maxHeight, imaging.Lanczos)

	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		// Encoders exist for fewer formats than decoders (webp, tiff
		// thumbnails come out as JPEG).
		format = imaging.JPEG
	}

	return encode(thumb, format)
}

// load opens an image honoring EXIF orientation, using the libvips fast
// path with decode-time shrinking when available.
func (g *Generator) load(path string) (image.Image, error) {
	if IsVipsAvailable() && vipsSupports(path) {
		img, err := loadImageWithVips(path, g.maxWidth, g.maxHeight)
		if err == nil {
			return img, nil
		}
		logging.Debug("vips load failed for %s: %v, falling back to imaging", path, err)
	}
	return imaging.Open(path, imaging.AutoOrientation(true))
}

func vipsSupports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".webp", ".tiff", ".tif", ".gif":
		return true
	}
	return false
}

func encode(img image.Image, format imaging.Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if format == imaging.JPEG {
		err = imaging.Encode(&buf, img, format, imaging.JPEGQuality(jpegQuality))
	} else {
		err = imaging.Encode(&buf, img, format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
