package image

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/h2non/bimg"
)

// gradient builds a w x h test image.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(w, h)); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return EncodeDataURL("image/png", buf.Bytes())
}

func decodeThumbnail(t *testing.T, dataURL string) bimg.ImageMetadata {
	t.Helper()
	mimeType, data, err := DecodeDataURL(dataURL)
	if err != nil {
		t.Fatalf("DecodeDataURL() error = %v", err)
	}
	if mimeType != "image/jpeg" {
		t.Errorf("thumbnail mime type = %q, want image/jpeg", mimeType)
	}
	metadata, err := bimg.NewImage(data).Metadata()
	if err != nil {
		t.Fatalf("Failed to read thumbnail metadata: %v", err)
	}
	if metadata.Type != "jpeg" {
		t.Errorf("thumbnail type = %q, want jpeg", metadata.Type)
	}
	noEXIF, err := verifyNoEXIF(data)
	if err != nil {
		t.Fatalf("verifyNoEXIF failed: %v", err)
	}
	if !noEXIF {
		t.Error("EXIF metadata still present in thumbnail")
	}
	return metadata
}

// TestThumbnail_Downscales checks that a wide render is reduced to the
// thumbnail width with its aspect ratio kept.
func TestThumbnail_Downscales(t *testing.T) {
	thumb, err := Thumbnail(pngDataURL(t, 640, 480))
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}

	metadata := decodeThumbnail(t, thumb)
	if metadata.Size.Width != 160 || metadata.Size.Height != 120 {
		t.Errorf("thumbnail size = %dx%d, want 160x120", metadata.Size.Width, metadata.Size.Height)
	}
}

// TestThumbnail_KeepsSmallImages checks that narrow images are not upscaled.
func TestThumbnail_KeepsSmallImages(t *testing.T) {
	thumb, err := Thumbnail(pngDataURL(t, 100, 50))
	if err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}

	metadata := decodeThumbnail(t, thumb)
	if metadata.Size.Width != 100 || metadata.Size.Height != 50 {
		t.Errorf("thumbnail size = %dx%d, want 100x50", metadata.Size.Width, metadata.Size.Height)
	}
}

func TestThumbnailWithConfig_Width(t *testing.T) {
	thumb, err := ThumbnailWithConfig(pngDataURL(t, 400, 400), ThumbnailConfig{Width: 64, Quality: 90})
	if err != nil {
		t.Fatalf("ThumbnailWithConfig() error = %v", err)
	}
	if metadata := decodeThumbnail(t, thumb); metadata.Size.Width != 64 {
		t.Errorf("thumbnail width = %d, want 64", metadata.Size.Width)
	}
}

func TestResize_JPEGInput(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(320, 200), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}

	out, err := Resize(buf.Bytes(), DefaultThumbnailConfig())
	if err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	if len(out) >= buf.Len() {
		t.Errorf("Resize() produced %d bytes from %d, want smaller", len(out), buf.Len())
	}
}

func TestThumbnail_InvalidInput(t *testing.T) {
	if _, err := Thumbnail("not a data url"); !errors.Is(err, ErrInvalidDataURL) {
		t.Errorf("Thumbnail() error = %v, want %v", err, ErrInvalidDataURL)
	}

	if _, err := Thumbnail(EncodeDataURL("image/png", []byte("not an image"))); err == nil {
		t.Error("Thumbnail() on garbage bytes returned nil error")
	}
}

func TestDefaultThumbnailConfig(t *testing.T) {
	config := DefaultThumbnailConfig()
	if config.Width != 160 {
		t.Errorf("Width = %d, want 160", config.Width)
	}
	if config.Quality != 70 {
		t.Errorf("Quality = %d, want 70", config.Quality)
	}
}

// BenchmarkThumbnail measures a full-size render reduced to a preview.
func BenchmarkThumbnail(b *testing.B) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(1024, 768)); err != nil {
		b.Fatalf("Failed to encode test image: %v", err)
	}
	dataURL := EncodeDataURL("image/png", buf.Bytes())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Thumbnail(dataURL); err != nil {
			b.Fatalf("Thumbnail failed: %v", err)
		}
	}
}

func TestVerifyNoEXIF_RejectsUndecodable(t *testing.T) {
	if _, err := verifyNoEXIF([]byte("not an image")); err == nil {
		t.Error("verifyNoEXIF() error = nil for undecodable bytes")
	}
}
