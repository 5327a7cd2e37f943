package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrTruncated          = errors.New("file too small")
	ErrWrongPayload       = errors.New("unexpected payload kind")
	ErrMalformed          = errors.New("malformed payload")
)

// ValidationError provides detailed information about decoded values that
// exceed the format limits.
type ValidationError struct {
	Type    string // Type of error (e.g., "too_many_nodes", "index_too_large")
	Field   string // Message field involved
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field %q: %s", e.Type, e.Field, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}
