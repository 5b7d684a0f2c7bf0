package uuidx

import "github.com/google/uuid"

// New generates a new UUID using the version 7 format and returns it.
// V7 identifiers sort by creation time, which keeps generation runs
// ordered in event logs. It panics if the UUID generation fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString generates a new UUID using the version 7 format and returns it
// as a string.
func NewString() string {
	return New().String()
}
