package app

import "github.com/google/uuid"

// generateID produces an opaque UUIDv4 tenant identifier, independent
// of any human-readable name.
func generateID() string {
	return uuid.NewString()
}
