// Package validation checks user-supplied names before they reach the server.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFolderNameLength is the longest folder name accepted, in characters.
const MaxFolderNameLength = 255

var (
	// ErrEmptyName is returned for a folder name that is blank after trimming.
	ErrEmptyName = errors.New("folder name must not be empty")

	// ErrInvalidName is returned for names the server would reject.
	ErrInvalidName = errors.New("invalid name")
)

// FolderName trims name and checks it can be used as a folder name.
// It returns the trimmed name.
//
// A folder name is rejected if it:
//   - is empty after trimming
//   - is longer than MaxFolderNameLength characters
//   - is not valid UTF-8
//   - contains control characters (including newlines and tabs)
func FolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if !utf8.ValidString(name) {
		return "", fmt.Errorf("%w: folder name is not valid UTF-8", ErrInvalidName)
	}
	if n := utf8.RuneCountInString(name); n > MaxFolderNameLength {
		return "", fmt.Errorf("%w: folder name is %d characters, limit is %d", ErrInvalidName, n, MaxFolderNameLength)
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return "", fmt.Errorf("%w: folder name contains control characters: %q", ErrInvalidName, name)
	}
	return name, nil
}

// FileName checks the base name an image is uploaded under.
//
// Path separators, a bare ".." and null bytes are rejected so the name can
// never be read as a path on either side. Names like "foo..bar.jpg" are fine.
func FileName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: file name cannot be empty", ErrInvalidName)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: file name contains null byte: %q", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: file name cannot contain path separators: %s", ErrInvalidName, name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: file name cannot be %q", ErrInvalidName, name)
	}
	return nil
}
