// Package hashx computes content-integrity digests for uploaded blobs.
package hashx

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of b. The same digest is
// stored on the vault record and handed to the anchoring collaborator.
func Sum(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
