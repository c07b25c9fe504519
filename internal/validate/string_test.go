package validate

import (
	"errors"
	"regexp"
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		constraints StringConstraints
		wantErr     error
		wantOutput  string
	}{
		{
			name:  "valid string within length constraints",
			input: "Hello World",
			constraints: StringConstraints{
				MinLength: 5,
				MaxLength: 20,
				TrimSpace: true,
			},
			wantOutput: "Hello World",
		},
		{
			name:  "string too short",
			input: "Hi",
			constraints: StringConstraints{
				MinLength: 5,
				MaxLength: 20,
			},
			wantErr: ErrStringTooShort,
		},
		{
			name:  "string too long",
			input: strings.Repeat("a", 101),
			constraints: StringConstraints{
				MinLength: 1,
				MaxLength: 100,
			},
			wantErr: ErrStringTooLong,
		},
		{
			name:  "length counts runes",
			input: "Zürich, Schweiz",
			constraints: StringConstraints{
				MaxLength: 15,
			},
			wantOutput: "Zürich, Schweiz",
		},
		{
			name:        "empty string not allowed",
			input:       "",
			constraints: StringConstraints{},
			wantErr:     ErrEmpty,
		},
		{
			name:        "empty string allowed",
			input:       "",
			constraints: StringConstraints{AllowEmpty: true},
			wantOutput:  "",
		},
		{
			name:        "whitespace trimmed to empty",
			input:       "   ",
			constraints: StringConstraints{TrimSpace: true},
			wantErr:     ErrEmpty,
		},
		{
			name:        "pattern mismatch",
			input:       "abc123",
			constraints: StringConstraints{AllowedPattern: regexp.MustCompile(`^[a-z]+$`)},
			wantErr:     ErrInvalidCharacters,
		},
		{
			name:        "control character",
			input:       "Giza\x00Egypt",
			constraints: StringConstraints{},
			wantErr:     ErrInvalidCharacters,
		},
		{
			name:        "newline rejected by default",
			input:       "line one\nline two",
			constraints: StringConstraints{},
			wantErr:     ErrInvalidCharacters,
		},
		{
			name:        "newline allowed",
			input:       "line one\nline two",
			constraints: StringConstraints{AllowNewlines: true},
			wantOutput:  "line one\nline two",
		},
		{
			name:        "invalid utf-8",
			input:       "caf\xe9",
			constraints: StringConstraints{},
			wantErr:     ErrInvalidCharacters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := String(tt.input, tt.constraints)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("String() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("String() unexpected error = %v", err)
			}
			if got != tt.wantOutput {
				t.Errorf("String() = %q, want %q", got, tt.wantOutput)
			}
		})
	}
}

func TestLocationName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "Giza, Egypt", "Giza, Egypt", false},
		{"trimmed", "  Paris, France  ", "Paris, France", false},
		{"punctuation kept", "Sea of Tranquility, The Moon", "Sea of Tranquility, The Moon", false},
		{"empty", "", "", true},
		{"too long", strings.Repeat("x", MaxLocationNameLength+1), "", true},
		{"multi-line", "Giza\nEgypt", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LocationName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LocationName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("LocationName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescription(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty allowed", "", false},
		{"paragraphs", "The pyramid rises.\n\nWorkers haul stone.", false},
		{"at limit", strings.Repeat("a", MaxDescriptionLength), false},
		{"too long", strings.Repeat("a", MaxDescriptionLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Description(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Description() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
