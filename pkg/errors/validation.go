package errors

import (
	"math"
	"strings"
	"unicode"
)

// maxTableKeyLength bounds schema-qualified table keys received over IPC.
const maxTableKeyLength = 256

// ValidateTableKey validates a schema-qualified table key ("schema.name")
// received from an untrusted source such as the editor transport.
//
// The validation rules are intentionally conservative:
//   - No empty keys
//   - No control characters or null bytes
//   - Maximum length of 256 characters
//   - Both the schema and the name part must be non-empty
func ValidateTableKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "table key cannot be empty")
	}

	if len(key) > maxTableKeyLength {
		return New(ErrCodeInvalidInput, "table key too long (max %d characters)", maxTableKeyLength)
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "table key contains invalid control characters")
		}
	}

	schema, name, ok := strings.Cut(key, ".")
	if !ok || schema == "" || name == "" {
		return New(ErrCodeInvalidInput, "table key must have the form schema.name: %q", key)
	}

	return nil
}

// ValidateCoordinate checks that a world coordinate pair is finite.
// Non-numeric coordinates are the only fatal model condition and must be
// rejected at the boundary, before the layout engine sees them.
func ValidateCoordinate(x, y float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return New(ErrCodeInvalidDiagram, "x coordinate is not finite: %v", x)
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return New(ErrCodeInvalidDiagram, "y coordinate is not finite: %v", y)
	}
	return nil
}

// ValidateOutputPath validates a user-supplied output file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
