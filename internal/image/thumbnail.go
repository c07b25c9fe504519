// Package image produces the small previews stored with journal entries.
package image

import (
	"errors"
	"fmt"

	"github.com/h2non/bimg"
)

// ErrMetadataRetained is returned when a processed image still carries
// identifying EXIF fields.
var ErrMetadataRetained = errors.New("image metadata not stripped")

// ThumbnailConfig controls thumbnail encoding.
// Width is the maximum output width in pixels; narrower images keep their
// size. Quality is the JPEG quality (1-100).
type ThumbnailConfig struct {
	Width   int
	Quality int
}

// DefaultThumbnailConfig returns the settings used for journal previews.
func DefaultThumbnailConfig() ThumbnailConfig {
	return ThumbnailConfig{
		Width:   160,
		Quality: 70,
	}
}

// Thumbnail turns a rendered scene image, given as a data URL, into a
// JPEG preview data URL with all metadata stripped.
func Thumbnail(dataURL string) (string, error) {
	return ThumbnailWithConfig(dataURL, DefaultThumbnailConfig())
}

// ThumbnailWithConfig is Thumbnail with explicit settings.
func ThumbnailWithConfig(dataURL string, config ThumbnailConfig) (string, error) {
	_, input, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	out, err := Resize(input, config)
	if err != nil {
		return "", err
	}
	return EncodeDataURL("image/jpeg", out), nil
}

// Resize re-encodes raw image bytes as a metadata-free JPEG no wider than
// config.Width, preserving the aspect ratio.
func Resize(input []byte, config ThumbnailConfig) ([]byte, error) {
	img := bimg.NewImage(input)
	metadata, err := img.Metadata()
	if err != nil {
		return nil, fmt.Errorf("failed to read image metadata: %w", err)
	}

	options := bimg.Options{
		Type:          bimg.JPEG,
		Quality:       config.Quality,
		StripMetadata: true,
	}
	if config.Width > 0 && metadata.Size.Width > config.Width {
		options.Width = config.Width
	}

	out, err := img.Process(options)
	if err != nil {
		return nil, fmt.Errorf("failed to process image: %w", err)
	}

	clean, err := verifyNoEXIF(out)
	if err != nil {
		return nil, err
	}
	if !clean {
		return nil, ErrMetadataRetained
	}
	return out, nil
}

// verifyNoEXIF reports whether imageBytes carries no identifying EXIF fields.
func verifyNoEXIF(imageBytes []byte) (bool, error) {
	metadata, err := bimg.NewImage(imageBytes).Metadata()
	if err != nil {
		return false, fmt.Errorf("failed to read image metadata: %w", err)
	}

	exif := metadata.EXIF
	hasEXIF := exif.Make != "" || exif.Model != "" ||
		exif.GPSLatitude != "" || exif.GPSLongitude != "" ||
		exif.DateTimeOriginal != "" || exif.Software != ""

	return !hasEXIF, nil
}
