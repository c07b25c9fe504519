package validate

import (
	"errors"
	"testing"
)

func TestMIMEType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"png", "image/png", "image/png", nil},
		{"jpeg", "image/jpeg", "image/jpeg", nil},
		{"case insensitive", "IMAGE/WEBP", "image/webp", nil},
		{"whitespace trimmed", "  image/png  ", "image/png", nil},
		{"gif rejected", "image/gif", "", ErrInvalidMIMEType},
		{"svg rejected", "image/svg+xml", "", ErrInvalidMIMEType},
		{"empty", "", "", ErrEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MIMEType(tt.input, AllowedImageTypes)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("MIMEType() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("MIMEType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSceneImage(t *testing.T) {
	tests := []struct {
		name    string
		mime    string
		size    int64
		wantErr error
	}{
		{"small png", MIMEImagePNG, 1024, nil},
		{"at limit", MIMEImageJPEG, MaxImageBytes, nil},
		{"too large", MIMEImagePNG, MaxImageBytes + 1, ErrImageTooLarge},
		{"empty payload", MIMEImagePNG, 0, ErrImageEmpty},
		{"wrong type", "text/plain", 10, ErrInvalidMIMEType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SceneImage(tt.mime, tt.size)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SceneImage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
