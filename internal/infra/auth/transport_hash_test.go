package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransportHash_KnownDigest(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", TransportHash("abc"))
}

func TestTransportHash_Deterministic(t *testing.T) {
	assert.Equal(t, TransportHash("secret1"), TransportHash("secret1"))
	assert.NotEqual(t, TransportHash("secret1"), TransportHash("secret2"))
	assert.Len(t, TransportHash(""), TransportHashLength)
}

func TestIsTransportHash(t *testing.T) {
	assert.True(t, IsTransportHash(TransportHash("secret1")))

	assert.False(t, IsTransportHash("secret1"))
	assert.False(t, IsTransportHash(strings.ToUpper(TransportHash("secret1"))))
	assert.False(t, IsTransportHash(TransportHash("secret1")+"0"))
	assert.False(t, IsTransportHash(strings.Repeat("g", TransportHashLength)))
}
