package hardware

import (
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// IdentifierOf derives a stable record identifier from a session key.
func IdentifierOf(key string) int32 {
	return int32(uint32(xxhash.Sum64String(key)))
}

// NewIdentifier returns an identifier for a fresh session together with
// the session key it was derived from.
func NewIdentifier() (int32, string) {
	key := uuid.NewString()
	return IdentifierOf(key), key
}
