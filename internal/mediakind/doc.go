// Package mediakind classifies file paths into media kinds (image, video,
// unsupported) by extension. The extension sets are configurable so that a
// library of, say, RAW photos can still be mirrored.
package mediakind
