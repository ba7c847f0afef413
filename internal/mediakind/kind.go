package mediakind

import (
	"path/filepath"
	"strings"
)

// Kind represents the media kind of a filesystem entry.
type Kind string

const (
	// KindDirectory represents a directory.
	KindDirectory Kind = "directory"
	// KindImage represents a supported image file.
	KindImage Kind = "image"
	// KindVideo represents a supported video file.
	KindVideo Kind = "video"
	// KindUnsupported represents anything the organizer does not thumbnail.
	KindUnsupported Kind = "unsupported"
)

// DefaultImageExtensions maps file extensions to whether they are supported image formats.
var DefaultImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// DefaultVideoExtensions maps file extensions to whether they are supported video formats.
var DefaultVideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".webm": true,
}

// Classifier maps file paths to media kinds based on two extension sets.
// Classification never reads file contents and never fails.
type Classifier struct {
	images map[string]bool
	videos map[string]bool
}

// NewClassifier creates a classifier from explicit extension lists.
// Extensions may be given with or without the leading dot and are
// matched case-insensitively. Empty lists fall back to the defaults.
func NewClassifier(imageExts, videoExts []string) *Classifier {
	c := &Classifier{
		images: DefaultImageExtensions,
		videos: DefaultVideoExtensions,
	}
	if len(imageExts) > 0 {
		c.images = buildSet(imageExts)
	}
	if len(videoExts) > 0 {
		c.videos = buildSet(videoExts)
	}
	return c
}

// Default returns a classifier using the built-in extension sets.
func Default() *Classifier {
	return NewClassifier(nil, nil)
}

func buildSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}

// Classify returns the media kind for a file path based on its extension.
// Directories are not detected here; the walker tags those itself.
func (c *Classifier) Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if c.images[ext] {
		return KindImage
	}
	if c.videos[ext] {
		return KindVideo
	}
	return KindUnsupported
}

// IsMedia returns true if the path classifies as image or video.
func (c *Classifier) IsMedia(path string) bool {
	return c.Classify(path) != KindUnsupported
}
