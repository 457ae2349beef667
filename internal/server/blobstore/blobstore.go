// Package blobstore abstracts the external object storage holding the
// encrypted file bodies. The vault core never touches plaintext blobs;
// everything written here is ciphertext.
package blobstore

import "context"

// BlobStore is the boundary contract with the object storage collaborator.
//
// Delete must be idempotent: removing a missing locator is not an error,
// so a rollback after a partial failure can always be replayed.
type BlobStore interface {
	Put(ctx context.Context, locator string, body []byte) error
	Get(ctx context.Context, locator string) ([]byte, error)
	Delete(ctx context.Context, locator string) error
	Copy(ctx context.Context, src, dst string) error
}
