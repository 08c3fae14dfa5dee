package util

import (
	"errors"
	"strings"
)

// ErrInvalidFileName is returned for empty names and traversal attempts.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName makes an uploaded document name safe to embed in a
// storage key. Names containing ".." are rejected outright; path
// separators are flattened to underscores rather than stripped, so the
// stored key still resembles what the user uploaded.
func SanitizeFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	return name, nil
}
