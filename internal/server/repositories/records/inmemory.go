package records

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cryptovault/vaultd/internal/common"
	"github.com/cryptovault/vaultd/internal/server/models"
	"github.com/google/uuid"
)

// InMemoryRepository keeps records in a mutex-guarded map. Used in tests
// and wherever a database is not worth the setup. The single lock keeps
// the locator uniqueness check atomic with the insert, matching the
// guarantee the unique index gives the Postgres implementation.
type InMemoryRepository struct {
	mu      sync.Mutex
	byID    map[string]*models.VaultRecord
	locator map[string]string // storage locator -> record id
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]*models.VaultRecord),
		locator: make(map[string]string),
	}
}

func clone(r *models.VaultRecord) *models.VaultRecord {
	c := *r
	c.WrappedContentKey = append([]byte(nil), r.WrappedContentKey...)
	c.KeyWrapNonce = append([]byte(nil), r.KeyWrapNonce...)
	c.ContentNonce = append([]byte(nil), r.ContentNonce...)
	return &c
}

func (r *InMemoryRepository) Create(ctx context.Context, record *models.VaultRecord) (string, error) {
	if !validate(record) {
		return "", common.ErrValidation
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.locator[record.StorageLocator]; taken {
		return "", common.ErrDuplicateLocator
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	r.byID[record.ID] = clone(record)
	r.locator[record.StorageLocator] = record.ID

	return record.ID, nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*models.VaultRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(record), nil
}

func (r *InMemoryRepository) SetRecipient(ctx context.Context, id string, recipient string) (*models.VaultRecord, error) {
	if recipient == "" {
		return nil, common.ErrValidation
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if record.Recipient != "" {
		return nil, common.ErrAlreadyShared
	}

	record.Recipient = recipient
	return clone(record), nil
}

func (r *InMemoryRepository) UpdateLocator(ctx context.Context, id string, locator string, recipient string) error {
	if locator == "" || recipient == "" {
		return common.ErrValidation
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	if owner, taken := r.locator[locator]; taken && owner != id {
		return common.ErrDuplicateLocator
	}

	delete(r.locator, record.StorageLocator)
	record.StorageLocator = locator
	record.Recipient = recipient
	r.locator[locator] = id
	return nil
}

func (r *InMemoryRepository) SetAnchorRef(ctx context.Context, id string, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	record.AnchorRef = ref
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}

	delete(r.locator, record.StorageLocator)
	delete(r.byID, id)
	return nil
}

func (r *InMemoryRepository) List(ctx context.Context, owner string) ([]*models.VaultRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.VaultRecord
	for _, record := range r.byID {
		if record.Owner == owner {
			result = append(result, clone(record))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
