package records

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/cryptovault/vaultd/internal/common"
	"github.com/cryptovault/vaultd/internal/server/models"
)

func memRecord(locator string) *models.VaultRecord {
	return &models.VaultRecord{
		Owner:             "u1",
		DisplayName:       "report.pdf",
		StorageLocator:    locator,
		ContentHash:       "deadbeef",
		WrappedContentKey: []byte("wrapped"),
		KeyWrapAlg:        "aes-256-gcm",
		KeyWrapNonce:      []byte("nonce-key"),
		ContentNonce:      []byte("nonce-body"),
	}
}

func TestInMemory_CreateGetDelete(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	id, err := repo.Create(ctx, memRecord("personal/a"))
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if id == "" {
		t.Fatal("expected an assigned id")
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if got.StorageLocator != "personal/a" {
		t.Fatalf("unexpected locator: %s", got.StorageLocator)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if _, err := repo.Get(ctx, id); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// the locator is free again after deletion
	if _, err := repo.Create(ctx, memRecord("personal/a")); err != nil {
		t.Fatalf("create after delete error: %v", err)
	}
}

func TestInMemory_CreateValidation(t *testing.T) {
	repo := NewInMemoryRepository()

	record := memRecord("personal/a")
	record.DisplayName = ""

	if _, err := repo.Create(context.Background(), record); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestInMemory_ConcurrentCreateSameLocator(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(ctx, memRecord("personal/contested"))
		}(i)
	}
	wg.Wait()

	var winners, losers int
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, common.ErrDuplicateLocator):
			losers++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 || losers != n-1 {
		t.Fatalf("expected 1 winner and %d duplicate errors, got %d and %d", n-1, winners, losers)
	}
}

func TestInMemory_SetRecipientOneTime(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	id, err := repo.Create(ctx, memRecord("shared/b"))
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	got, err := repo.SetRecipient(ctx, id, "u2")
	if err != nil {
		t.Fatalf("set recipient error: %v", err)
	}
	if got.Recipient != "u2" {
		t.Fatalf("unexpected recipient: %s", got.Recipient)
	}

	if _, err := repo.SetRecipient(ctx, id, "u3"); !errors.Is(err, common.ErrAlreadyShared) {
		t.Fatalf("expected ErrAlreadyShared, got %v", err)
	}
	if _, err := repo.SetRecipient(ctx, "missing", "u3"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemory_UpdateLocator(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	id1, _ := repo.Create(ctx, memRecord("personal/a"))
	_, _ = repo.Create(ctx, memRecord("personal/b"))

	if err := repo.UpdateLocator(ctx, id1, "personal/b", "u2"); !errors.Is(err, common.ErrDuplicateLocator) {
		t.Fatalf("expected ErrDuplicateLocator, got %v", err)
	}

	if err := repo.UpdateLocator(ctx, id1, "sharedfiles/a", "u2"); err != nil {
		t.Fatalf("update locator error: %v", err)
	}
	got, _ := repo.Get(ctx, id1)
	if got.StorageLocator != "sharedfiles/a" || got.Recipient != "u2" {
		t.Fatalf("unexpected record after relocation: %+v", got)
	}

	// the old locator can be claimed again
	if _, err := repo.Create(ctx, memRecord("personal/a")); err != nil {
		t.Fatalf("create on freed locator error: %v", err)
	}
}

func TestInMemory_ListByOwner(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = repo.Create(ctx, memRecord(fmt.Sprintf("personal/%d", i)))
	}
	other := memRecord("personal/other")
	other.Owner = "u2"
	_, _ = repo.Create(ctx, other)

	got, err := repo.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
}

func TestRoute(t *testing.T) {
	if Route(true) != NamespaceShared {
		t.Fatal("recipient set must route to the shared namespace")
	}
	if Route(false) != NamespacePersonal {
		t.Fatal("no recipient must route to the personal namespace")
	}
}
