// Package common defines shared constants and sentinel errors used across
// the vault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound         = errors.New("not found")
	ErrDuplicateLocator = errors.New("storage locator already in use")
	ErrAlreadyShared    = errors.New("record already shared")

	// Validation errors (never retried).
	ErrValidation      = errors.New("validation error")
	ErrUnknownIdentity = errors.New("unknown identity")

	// Sharing a personal-namespace record after creation would leave the
	// blob routed by its past state. The caller has to upload again with
	// the recipient set, or use the explicit relocation path.
	ErrShareRequiresReupload = errors.New("sharing requires a fresh upload")

	// ErrKeyUnwrap means the authenticated unwrap of a content key failed:
	// tampered ciphertext, wrong master key, or corrupted wrap metadata.
	// Treated as a security event and never retried.
	ErrKeyUnwrap = errors.New("content key unwrap failed")

	// Blob/store I/O errors. ErrTransientStore marks failures worth
	// retrying; ErrPersistence is what surfaces once retries are exhausted.
	ErrTransientStore = errors.New("transient store error")
	ErrPersistence    = errors.New("persistence error")
)
