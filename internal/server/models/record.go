// Package models defines server-side data models persisted in the database.
package models

import "time"

// VaultRecord describes custody metadata for one encrypted file. The
// ciphertext itself lives in object storage under StorageLocator; the
// record holds everything needed to find, verify and unwrap it.
type VaultRecord struct {
	// ID is assigned at creation and never changes.
	ID string
	// Owner is the uploading identity reference.
	Owner string
	// Recipient is an optional second identity. A non-empty recipient
	// means the record is shared and its blob lives in the shared
	// namespace.
	Recipient string
	// DisplayName is the human-readable original filename.
	DisplayName string
	// StorageLocator is the object-storage key of the ciphertext blob.
	// At most one live record may claim a given locator.
	StorageLocator string
	// ContentHash is the hex SHA-256 digest of the plaintext content.
	ContentHash string
	// AnchorRef is the reference returned by the external anchoring
	// collaborator for ContentHash. Empty when anchoring is disabled or
	// was unavailable.
	AnchorRef string

	// WrappedContentKey is the per-file content key encrypted under the
	// owner's master key. Never stored in clear.
	WrappedContentKey []byte
	// KeyWrapAlg identifies the authenticated construction used to wrap
	// the content key.
	KeyWrapAlg string
	// KeyWrapNonce is the AEAD nonce used during wrapping.
	KeyWrapNonce []byte
	// ContentNonce is the AEAD nonce used to encrypt the file body.
	ContentNonce []byte

	// CreatedAt is set once at creation.
	CreatedAt time.Time
}

// Shared reports whether the record has a recipient.
func (r *VaultRecord) Shared() bool {
	return r.Recipient != ""
}
