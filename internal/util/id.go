package util

import "github.com/google/uuid"

// NewID returns a random UUIDv4 string.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether s is a canonical UUID.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}
