// Package validate checks the free-text and image fields that clients send
// alongside coordinates.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// String validation errors
var (
	ErrStringTooShort    = errors.New("string is too short")
	ErrStringTooLong     = errors.New("string is too long")
	ErrInvalidCharacters = errors.New("string contains invalid characters")
	ErrEmpty             = errors.New("string is empty")
)

// Field limits, in characters.
const (
	MaxLocationNameLength = 200
	MaxDescriptionLength  = 2000
)

// StringConstraints defines validation constraints for a string.
// MinLength and MaxLength count runes; zero disables the bound.
type StringConstraints struct {
	MinLength      int
	MaxLength      int
	AllowedPattern *regexp.Regexp
	AllowEmpty     bool
	AllowNewlines  bool
	TrimSpace      bool
}

// String validates a string against the given constraints.
// Returns the validated (and optionally trimmed) string and an error if validation fails.
func String(s string, constraints StringConstraints) (string, error) {
	if constraints.TrimSpace {
		s = strings.TrimSpace(s)
	}

	if s == "" {
		if !constraints.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrInvalidCharacters)
	}
	if err := checkControl(s, constraints.AllowNewlines); err != nil {
		return "", err
	}

	length := utf8.RuneCountInString(s)
	if constraints.MinLength > 0 && length < constraints.MinLength {
		return "", fmt.Errorf("%w: got %d chars, need at least %d", ErrStringTooShort, length, constraints.MinLength)
	}
	if constraints.MaxLength > 0 && length > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, constraints.MaxLength)
	}

	if constraints.AllowedPattern != nil && !constraints.AllowedPattern.MatchString(s) {
		return "", fmt.Errorf("%w: does not match required pattern", ErrInvalidCharacters)
	}
	return s, nil
}

// checkControl rejects control characters. Newline and tab pass when
// allowNewlines is set.
func checkControl(s string, allowNewlines bool) error {
	for _, r := range s {
		if !unicode.IsControl(r) {
			continue
		}
		if allowNewlines && (r == '\n' || r == '\r' || r == '\t') {
			continue
		}
		return fmt.Errorf("%w: control character %U", ErrInvalidCharacters, r)
	}
	return nil
}

// LocationName validates a scene's location label:
// - Required
// - Max 200 characters on a single line
func LocationName(name string) (string, error) {
	return String(name, StringConstraints{
		MinLength: 1,
		MaxLength: MaxLocationNameLength,
		TrimSpace: true,
	})
}

// Description validates a description field:
// - Optional (can be empty)
// - Max 2000 characters, line breaks allowed
func Description(desc string) (string, error) {
	return String(desc, StringConstraints{
		MaxLength:     MaxDescriptionLength,
		AllowEmpty:    true,
		AllowNewlines: true,
		TrimSpace:     true,
	})
}
