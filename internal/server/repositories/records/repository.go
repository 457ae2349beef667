// Package records persists vault record metadata and enforces its
// invariants: locator uniqueness, one-time sharing, and immutability of
// everything else after creation.
package records

import (
	"context"

	"github.com/cryptovault/vaultd/internal/server/models"
)

// Namespace is the storage partition a blob is routed to.
type Namespace string

const (
	// NamespacePersonal holds blobs visible to the owner only.
	NamespacePersonal Namespace = "secure_vault_files"
	// NamespaceShared holds blobs with a recipient.
	NamespaceShared Namespace = "sharedfiles"
)

// Route decides the storage partition for a blob. It must be evaluated
// with the final intended recipient state, never an intermediate one:
// the routing of a blob reflects whether the record is shared, not
// whether the recipient field happened to be set yet.
func Route(hasRecipient bool) Namespace {
	if hasRecipient {
		return NamespaceShared
	}
	return NamespacePersonal
}

type Repository interface {
	// Create persists a new record and returns its assigned id.
	// Fails with common.ErrDuplicateLocator when the locator is already
	// claimed by a live record, and with common.ErrValidation when a
	// required field is missing.
	Create(ctx context.Context, record *models.VaultRecord) (string, error)

	// Get returns the record by id, or common.ErrNotFound.
	Get(ctx context.Context, id string) (*models.VaultRecord, error)

	// SetRecipient marks the record shared with the given identity.
	// Sharing is one-time: common.ErrAlreadyShared when a recipient is
	// already set, common.ErrNotFound when the id is absent.
	SetRecipient(ctx context.Context, id string, recipient string) (*models.VaultRecord, error)

	// UpdateLocator moves the record to a new locator and recipient in
	// one step, backing blob relocation on share. Same duplicate-locator
	// semantics as Create.
	UpdateLocator(ctx context.Context, id string, locator string, recipient string) error

	// SetAnchorRef stores the anchoring reference for the record.
	SetAnchorRef(ctx context.Context, id string, ref string) error

	// Delete removes the record, or fails with common.ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns all records owned by the given identity, newest first.
	List(ctx context.Context, owner string) ([]*models.VaultRecord, error)
}

// validate checks the fields required before a record may be persisted.
func validate(r *models.VaultRecord) bool {
	return r != nil &&
		r.Owner != "" &&
		r.DisplayName != "" &&
		r.StorageLocator != "" &&
		r.ContentHash != "" &&
		len(r.WrappedContentKey) > 0 &&
		r.KeyWrapAlg != "" &&
		len(r.KeyWrapNonce) > 0
}
