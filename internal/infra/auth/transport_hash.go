package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// TransportHashLength is the length of a hex-encoded SHA-256 digest.
const TransportHashLength = sha256.Size * 2

// TransportHash is the client-side stage: the raw password never crosses the
// network, only this digest does. The server stores a bcrypt hash of it.
func TransportHash(rawPassword string) string {
	sum := sha256.Sum256([]byte(rawPassword))

	return hex.EncodeToString(sum[:])
}

// IsTransportHash reports whether s has the shape TransportHash produces.
func IsTransportHash(s string) bool {
	if len(s) != TransportHashLength {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}

	return true
}
