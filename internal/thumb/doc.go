// Package thumb generates reduced-size thumbnail bytes for images and
// videos. Images are decoded with disintegration/imaging (libvips fast
// path when enabled) and downscaled with Lanczos resampling; video frames
// are extracted with ffmpeg and composed into a single frame or a 2x2
// collage depending on the configured frame positions.
package thumb
