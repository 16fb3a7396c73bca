// Package uid generates the random identifiers used for request tracing.
// Player identities use github.com/google/uuid directly; this wrapper only
// exists for call sites that want the string form.
package uid

import "github.com/google/uuid"

// New returns a fresh random UUID as a string.
func New() string {
	return uuid.New().String()
}

// IsValid reports whether id parses as a UUID. Used to vet identifiers
// supplied by clients before trusting them in logs.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
