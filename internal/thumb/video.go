package thumb

import (
	"bytes"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"context"

	"github.com/Znapy/pv-organizer/internal/logging"
	"github.com/Znapy/pv-organizer/internal/metrics"

	"github.com/disintegration/imaging"
)

// Video extracts representative frames from a video with ffmpeg and
// composes them into a JPEG thumbnail. With exactly four configured frame
// positions the result is a 2x2 collage; otherwise a single frame.
func (g *Generator) Video(ctx context.Context, path string) ([]byte, error) {
	duration, err := probeDuration(ctx, path)
	if err != nil {
		logging.Debug("ffprobe failed for %s: %v, sampling without seek", path, err)
		duration = 0
	}

	frames := make([]image.Image, 0, len(g.framePercents))
	percents := g.framePercents
	if len(percents) != 4 {
		percents = percents[:1]
	}

	for _, percent := range percents {
		var offset float64
		if duration > 0 {
			offset = duration * float64(percent) / 100
		}
		frame, err := extractFrame(ctx, path, offset)
		if err != nil {
			logging.Debug("frame extraction at %d%% failed for %s: %v", percent, path, err)
			continue
		}
		frames = append(frames, frame)
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames could be extracted from %s", path)
	}

	var thumb image.Image
	if len(frames) == 4 {
		thumb = g.collage(frames)
	} else {
		thumb = imaging.Fit(frames[0], g.maxWidth, g.maxHeight, imaging.Lanczos)
	}

	return encode(thumb, imaging.JPEG)
}

// collage lays four frames out in a 2x2 grid. Frames are resized to the
// exact cell size so the grid stays uniform regardless of aspect ratio.
func (g *Generator) collage(frames []image.Image) image.Image {
	cellW, cellH := g.maxWidth, g.maxHeight
	grid := imaging.New(cellW*2, cellH*2, image.Black)
	for i, frame := range frames {
		cell := imaging.Resize(frame, cellW, cellH, imaging.Lanczos)
		x := (i % 2) * cellW
		y := (i / 2) * cellH
		grid = imaging.Paste(grid, cell, image.Pt(x, y))
	}
	return grid
}

// probeDuration returns the video duration in seconds using ffprobe.
func probeDuration(ctx context.Context, path string) (float64, error) {
	start := time.Now()
	defer func() {
		metrics.ThumbnailFFmpegDuration.Observe(time.Since(start).Seconds())
	}()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe: %w - %s", err, stderr.String())
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned no duration: %w", err)
	}
	return duration, nil
}

// extractFrame grabs one frame at the given offset (seconds) as an image.
// A zero offset skips seeking, which also serves as the fallback for
// streams ffprobe could not measure.
func extractFrame(ctx context.Context, path string, offset float64) (image.Image, error) {
	start := time.Now()
	defer func() {
		metrics.ThumbnailFFmpegDuration.Observe(time.Since(start).Seconds())
	}()

	args := []string{}
	if offset > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", offset))
	}
	args = append(args,
		"-i", path,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Seeking past the end of short clips makes ffmpeg produce
		// nothing; retry from the start before giving up.
		if offset > 0 {
			logging.Debug("ffmpeg seek to %.3fs failed for %s, retrying from start", offset, path)
			return extractFrame(ctx, path, 0)
		}
		return nil, fmt.Errorf("ffmpeg: %w - %s", err, stderr.String())
	}

	if stdout.Len() == 0 {
		if offset > 0 {
			return extractFrame(ctx, path, 0)
		}
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode ffmpeg output: %w", err)
	}
	return img, nil
}

// CheckFFmpeg verifies that ffmpeg is present on PATH. Called once at
// startup so a missing binary is reported before the first video fails.
func CheckFFmpeg() error {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH")
	}
	logging.Debug("Using ffmpeg: %s", path)
	return nil
}
