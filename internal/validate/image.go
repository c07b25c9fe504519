package validate

import (
	"errors"
	"fmt"
	"strings"
)

// Image validation errors
var (
	ErrInvalidMIMEType = errors.New("invalid MIME type")
	ErrImageTooLarge   = errors.New("image too large")
	ErrImageEmpty      = errors.New("image is empty")
)

// Image MIME types accepted for scene images.
const (
	MIMEImageJPEG = "image/jpeg"
	MIMEImagePNG  = "image/png"
	MIMEImageWebP = "image/webp"
)

// AllowedImageTypes defines allowed image MIME types.
var AllowedImageTypes = []string{
	MIMEImageJPEG,
	MIMEImagePNG,
	MIMEImageWebP,
}

// MaxImageBytes caps a decoded scene image.
const MaxImageBytes = 10 * 1024 * 1024

// ImageConstraints defines validation constraints for an image payload.
type ImageConstraints struct {
	AllowedTypes []string
	MaxSizeBytes int64
}

// MIMEType validates a MIME type against allowed types.
// Returns the normalized MIME type (lowercased) and an error if invalid.
func MIMEType(mimeType string, allowedTypes []string) (string, error) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "" {
		return "", ErrEmpty
	}

	for _, allowed := range allowedTypes {
		if mimeType == strings.ToLower(allowed) {
			return mimeType, nil
		}
	}
	return "", fmt.Errorf("%w: %q not in allowed types", ErrInvalidMIMEType, mimeType)
}

// Image validates the MIME type and decoded size of an image.
func Image(mimeType string, sizeBytes int64, constraints ImageConstraints) (string, error) {
	validatedType, err := MIMEType(mimeType, constraints.AllowedTypes)
	if err != nil {
		return "", err
	}
	if sizeBytes <= 0 {
		return "", ErrImageEmpty
	}
	if constraints.MaxSizeBytes > 0 && sizeBytes > constraints.MaxSizeBytes {
		return "", fmt.Errorf("%w: got %d bytes, maximum is %d", ErrImageTooLarge, sizeBytes, constraints.MaxSizeBytes)
	}
	return validatedType, nil
}

// SceneImage validates a rendered scene image using the default
// constraints: PNG, JPEG or WebP up to 10MB.
func SceneImage(mimeType string, sizeBytes int64) (string, error) {
	return Image(mimeType, sizeBytes, ImageConstraints{
		AllowedTypes: AllowedImageTypes,
		MaxSizeBytes: MaxImageBytes,
	})
}
