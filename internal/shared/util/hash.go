package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey derives the per-owner namespace used in blob storage keys
// from a user ID. Hashing keeps user IDs out of object paths and yields
// a fixed-length, filesystem-safe segment.
func HashUserKey(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])
}
