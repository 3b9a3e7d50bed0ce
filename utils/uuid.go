package utils

import (
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation ID
const RequestIDHeader = "X-Request-ID"

// GenerateID returns a new unique identifier string
func GenerateID() string {
	return uuid.NewString()
}

// RequestID keeps a caller-supplied ID when it parses as a UUID, otherwise it makes a new one
func RequestID(incoming string) string {
	if id, err := uuid.Parse(incoming); err == nil {
		return id.String()
	}
	return GenerateID()
}
