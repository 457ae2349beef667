// Package services orchestrates the vault file lifecycle: upload,
// retrieval, sharing and deletion. It is the only layer allowed to
// initiate compensating rollback, and the only writer of records and
// blobs; presentation layers consume it read-only.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/cryptovault/vaultd/internal/common"
	"github.com/cryptovault/vaultd/internal/cryptox"
	"github.com/cryptovault/vaultd/internal/hashx"
	"github.com/cryptovault/vaultd/internal/logging"
	"github.com/cryptovault/vaultd/internal/server/anchor"
	"github.com/cryptovault/vaultd/internal/server/blobstore"
	"github.com/cryptovault/vaultd/internal/server/identity"
	"github.com/cryptovault/vaultd/internal/server/models"
	"github.com/cryptovault/vaultd/internal/server/repositories/records"
	"github.com/cryptovault/vaultd/internal/server/repositories/repomanager"
)

// RetryPolicy bounds the exponential backoff applied to transient
// blob-store failures. Validation and unwrap failures are never retried.
type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}

// DefaultRetryPolicy is used when the caller passes a zero policy.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond}

// UploadRequest carries everything an upload needs, decided up front.
// The recipient is part of the request so namespace routing always sees
// the final sharing state, never an intermediate one.
type UploadRequest struct {
	Owner       string
	Recipient   string
	DisplayName string
	Data        []byte
	MasterKey   []byte
}

type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobstore.BlobStore
	identities  identity.Provider
	anchorer    anchor.Anchorer
	log         logging.Logger
	retryPolicy RetryPolicy
}

func NewVaultService(db *sql.DB, rm repomanager.RepositoryManager, blobs blobstore.BlobStore,
	identities identity.Provider, anchorer anchor.Anchorer, log logging.Logger, policy RetryPolicy) *VaultService {
	if policy.MaxRetries == 0 {
		policy = DefaultRetryPolicy
	}
	if anchorer == nil {
		anchorer = anchor.Noop{}
	}
	return &VaultService{
		db:          db,
		repomanager: rm,
		blobs:       blobs,
		identities:  identities,
		anchorer:    anchorer,
		log:         log,
		retryPolicy: policy,
	}
}

// newLocator computes the blob key for a fresh upload. The namespace
// comes from the routing rule and the uuid segment keeps locators unique
// across identical display names.
func newLocator(ns records.Namespace, displayName string) string {
	return fmt.Sprintf("%s/%s/%s", ns, uuid.NewString(), displayName)
}

// retryTransient runs op under the configured bounded exponential
// backoff. Context cancellation surfaces as-is; exhaustion surfaces as
// common.ErrPersistence wrapping common.ErrTransientStore.
func (s *VaultService) retryTransient(ctx context.Context, op func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(s.retryPolicy.MaxRetries, retry.NewExponential(s.retryPolicy.BaseDelay))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := op(ctx); err != nil {
			return retry.RetryableError(fmt.Errorf("%w: %w", common.ErrTransientStore, err))
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrPersistence, err)
}

// rollbackBlob removes a blob written during a failed operation. It runs
// detached from the caller's context so a cancellation that aborted the
// upload cannot also abort its own cleanup.
func (s *VaultService) rollbackBlob(ctx context.Context, locator string) {
	cleanupCtx := context.WithoutCancel(ctx)
	err := s.retryTransient(cleanupCtx, func(ctx context.Context) error {
		return s.blobs.Delete(ctx, locator)
	})
	if err != nil {
		s.log.Error(cleanupCtx, "blob rollback failed", "locator", locator, "error", err)
	}
}

func (s *VaultService) checkIdentity(ctx context.Context, ref string) error {
	ok, err := s.identities.Exists(ctx, ref)
	if err != nil {
		return fmt.Errorf("identity lookup: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrUnknownIdentity, ref)
	}
	return nil
}

// Upload runs the full lifecycle of a new file: hash, generate and wrap
// the content key, encrypt the body, store the blob, persist the record,
// then optionally anchor the digest. Any failure before the record is
// persisted rolls back the blob, so a surfaced error always means "no
// usable file".
func (s *VaultService) Upload(ctx context.Context, req UploadRequest) (*models.VaultRecord, error) {
	if req.Owner == "" || req.DisplayName == "" || len(req.Data) == 0 || len(req.MasterKey) == 0 {
		return nil, common.ErrValidation
	}
	if err := s.checkIdentity(ctx, req.Owner); err != nil {
		return nil, err
	}
	if req.Recipient != "" {
		if err := s.checkIdentity(ctx, req.Recipient); err != nil {
			return nil, err
		}
	}

	digest := hashx.Sum(req.Data)

	rawKey, err := cryptox.GenerateContentKey()
	if err != nil {
		return nil, fmt.Errorf("generate content key: %w", err)
	}
	defer common.WipeByteArray(rawKey)

	wrapped, meta, err := cryptox.Wrap(rawKey, req.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("wrap content key: %w", err)
	}

	ciphertext, contentNonce, err := cryptox.EncryptContent(req.Data, rawKey)
	if err != nil {
		return nil, fmt.Errorf("encrypt content: %w", err)
	}

	ns := records.Route(req.Recipient != "")
	locator := newLocator(ns, req.DisplayName)

	err = s.retryTransient(ctx, func(ctx context.Context) error {
		return s.blobs.Put(ctx, locator, ciphertext)
	})
	if err != nil {
		s.rollbackBlob(ctx, locator)
		return nil, err
	}

	record := &models.VaultRecord{
		Owner:             req.Owner,
		Recipient:         req.Recipient,
		DisplayName:       req.DisplayName,
		StorageLocator:    locator,
		ContentHash:       digest,
		WrappedContentKey: wrapped,
		KeyWrapAlg:        meta.Alg,
		KeyWrapNonce:      meta.Nonce,
		ContentNonce:      contentNonce,
	}

	repo := s.repomanager.Records(s.db)
	if _, err := repo.Create(ctx, record); err != nil {
		s.rollbackBlob(ctx, locator)
		return nil, err
	}

	s.log.Info(ctx, "file uploaded", "record_id", record.ID, "namespace", string(ns))

	// Anchoring is best effort: an unavailable collaborator leaves the
	// reference empty without failing the upload.
	if ref, err := s.anchorer.Anchor(ctx, digest); err != nil {
		s.log.Warn(ctx, "anchoring unavailable", "record_id", record.ID, "error", err)
	} else if ref != "" {
		if err := repo.SetAnchorRef(ctx, record.ID, ref); err != nil {
			s.log.Warn(ctx, "storing anchor ref failed", "record_id", record.ID, "error", err)
		} else {
			record.AnchorRef = ref
		}
	}

	return record, nil
}

// Retrieve fetches and decrypts a stored file. The unwrapped content key
// lives only for the duration of the call.
func (s *VaultService) Retrieve(ctx context.Context, id string, masterKey []byte) (string, []byte, error) {
	repo := s.repomanager.Records(s.db)

	record, err := repo.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}

	ciphertext, err := s.blobs.Get(ctx, record.StorageLocator)
	if err != nil {
		return "", nil, err
	}

	rawKey, err := cryptox.Unwrap(record.WrappedContentKey,
		cryptox.WrapMeta{Alg: record.KeyWrapAlg, Nonce: record.KeyWrapNonce}, masterKey)
	if err != nil {
		// security event: tampering or a wrong master key
		s.log.Error(ctx, "content key unwrap failed", "record_id", id)
		return "", nil, err
	}
	defer common.WipeByteArray(rawKey)

	plaintext, err := cryptox.DecryptContent(ciphertext, record.ContentNonce, rawKey)
	if err != nil {
		return "", nil, fmt.Errorf("decrypt content: %w", err)
	}

	return record.DisplayName, plaintext, nil
}

// Share marks an existing record as shared with a recipient. The blob
// namespace is fixed at creation, so this only succeeds for records that
// could legally carry a recipient there: a personal-namespace record is
// rejected with ErrShareRequiresReupload and an already shared record
// with ErrAlreadyShared. Use ShareRelocate to move the blob instead.
func (s *VaultService) Share(ctx context.Context, id string, recipient string) error {
	if err := s.checkIdentity(ctx, recipient); err != nil {
		return err
	}

	repo := s.repomanager.Records(s.db)
	record, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if record.Shared() {
		return common.ErrAlreadyShared
	}
	return common.ErrShareRequiresReupload
}

// ShareRelocate shares a personal record by moving its blob into the
// shared namespace: copy to the new locator, repoint the record, then
// drop the old blob. The copy is rolled back if the record update fails.
func (s *VaultService) ShareRelocate(ctx context.Context, id string, recipient string) (*models.VaultRecord, error) {
	if err := s.checkIdentity(ctx, recipient); err != nil {
		return nil, err
	}

	repo := s.repomanager.Records(s.db)
	record, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Shared() {
		return nil, common.ErrAlreadyShared
	}

	oldLocator := record.StorageLocator
	newLoc := newLocator(records.NamespaceShared, record.DisplayName)

	err = s.retryTransient(ctx, func(ctx context.Context) error {
		return s.blobs.Copy(ctx, oldLocator, newLoc)
	})
	if err != nil {
		return nil, err
	}

	if err := repo.UpdateLocator(ctx, id, newLoc, recipient); err != nil {
		s.rollbackBlob(ctx, newLoc)
		return nil, err
	}

	err = s.retryTransient(ctx, func(ctx context.Context) error {
		return s.blobs.Delete(ctx, oldLocator)
	})
	if err != nil {
		// the record already points at the new blob; the stale one is
		// the only leftover
		s.log.Error(ctx, "stale blob cleanup failed", "locator", oldLocator, "error", err)
		return nil, err
	}

	s.log.Info(ctx, "record relocated to shared namespace", "record_id", id)

	return repo.Get(ctx, id)
}

// Delete removes the record and its blob. The record row goes first so a
// concurrent Get can never observe a record whose blob is already gone.
func (s *VaultService) Delete(ctx context.Context, id string) error {
	repo := s.repomanager.Records(s.db)

	record, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	err = s.retryTransient(ctx, func(ctx context.Context) error {
		return s.blobs.Delete(ctx, record.StorageLocator)
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "record deleted", "record_id", id)
	return nil
}

// List returns the records owned by the given identity for read-only
// presentation.
func (s *VaultService) List(ctx context.Context, owner string) ([]*models.VaultRecord, error) {
	return s.repomanager.Records(s.db).List(ctx, owner)
}
