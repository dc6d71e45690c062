// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// PasswordHasher produces and checks storage-hashes.
//
// The input is always a transport-hash: a fixed-length digest the client
// computed from the raw password before sending it. The storage-hash is a
// salted, slow hash of that digest. The two stages are distinct and neither
// replaces the other.
type PasswordHasher interface {
	// Hash generates a salted storage-hash from a transport-hash.
	Hash(transportHash string) (string, error)

	// Check compares a transport-hash with a stored storage-hash.
	Check(transportHash, storageHash string) bool
}
