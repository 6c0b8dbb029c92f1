// Package slugid generates and validates task identifiers: random v4 UUIDs
// encoded as 22 characters of URL-safe base64.
package slugid

import (
	"encoding/base64"
	"regexp"

	"github.com/google/uuid"
)

var validPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8}[Q-T][A-Za-z0-9_-][CGKOSWaeimquy26-][A-Za-z0-9_-]{10}[AQgw]$`)

// V4 returns a random slug id. It may start with '-'.
func V4() string {
	id := uuid.New()
	return encode(id)
}

// Nice returns a random slug id that never starts with '-', which keeps it
// safe to pass as a command line argument.
func Nice() string {
	id := uuid.New()
	id[0] &= 0x7f
	return encode(id)
}

// Valid reports whether id is a well formed v4 slug id.
func Valid(id string) bool {
	return validPattern.MatchString(id)
}

func encode(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}
