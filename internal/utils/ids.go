package utils

import (
	"strings"

	"github.com/google/uuid"
)

// ObjectSuffix returns a short random suffix for storage object keys
func ObjectSuffix() string {
	return uuid.NewString()[:8]
}

// NormalizeName trims and collapses internal whitespace in a display name
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
