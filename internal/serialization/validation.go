package serialization

import (
	"fmt"
)

// Validation limits for resource protection.
const (
	MaxFileSize = 1 << 30 // 1GB
	MaxNodes    = 1 << 26
	MaxIndex    = 1 << 26 // node operands, input and parameter slots
	MaxParams   = 1 << 26
	MaxNameLen  = 4096
)

// validateIndex checks a decoded operand, slot or slot count.
func validateIndex(field string, v uint64) error {
	if v > MaxIndex {
		return &ValidationError{
			Type:    "index_too_large",
			Field:   field,
			Details: fmt.Sprintf("got %d, max %d", v, MaxIndex),
		}
	}
	return nil
}

// validateName checks a decoded parameter name.
func validateName(field, name string) error {
	if len(name) > MaxNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Field:   field,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxNameLen),
		}
	}
	return nil
}

// validateCount checks the number of repeated elements decoded so far.
func validateCount(field string, n, limit int) error {
	if n > limit {
		return &ValidationError{
			Type:    "too_many_elements",
			Field:   field,
			Details: fmt.Sprintf("more than %d", limit),
		}
	}
	return nil
}
