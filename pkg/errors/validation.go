package errors

import (
	"strings"
	"unicode"
)

// ValidateLayerName validates a layer name for safety.
// Layer names map to directories under the static root, so they must be a
// single path element.
func ValidateLayerName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidLayer, "layer name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidLayer, "layer name too long (max 128 characters)")
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return New(ErrCodeInvalidLayer, "layer name must be a single path element: %q", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidLayer, "layer name contains invalid control characters")
		}
	}
	return nil
}

// ValidateAssetName validates an asset filename for safety.
// It ensures the filename is a simple basename without path components.
//
// Validation rules:
//   - Name cannot be empty or whitespace only
//   - Maximum length of 255 characters
//   - No path separators, null bytes or control characters
//   - No hidden files (leading dot)
func ValidateAssetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "asset name cannot be empty")
	}
	if len(name) > 255 {
		return New(ErrCodeInvalidName, "asset name too long (max 255 characters)")
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidName, "asset name cannot contain path separators")
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidName, "asset name cannot be a hidden file")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "asset name contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates an output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if len(path) > 4096 {
		return New(ErrCodeInvalidPath, "path too long (max 4096 characters)")
	}
	if strings.ContainsRune(path, 0) {
		return New(ErrCodeInvalidPath, "path contains null bytes")
	}
	return nil
}
