package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cryptovault/vaultd/internal/common"
	"github.com/cryptovault/vaultd/internal/server/services"
)

func (a *App) upload(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("usage: upload <owner> <path> [recipient]")
	}
	owner, path := args[0], args[1]
	recipient := ""
	if len(args) == 3 {
		recipient = args[2]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	key, err := masterKey(owner)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	record, err := a.app.Vault().Upload(ctx, services.UploadRequest{
		Owner:       owner,
		Recipient:   recipient,
		DisplayName: filepath.Base(path),
		Data:        data,
		MasterKey:   key,
	})
	if err != nil {
		return err
	}

	fmt.Printf("uploaded %s\n  id: %s\n  locator: %s\n  sha256: %s\n",
		record.DisplayName, record.ID, record.StorageLocator, record.ContentHash)
	if record.AnchorRef != "" {
		fmt.Printf("  anchor: %s\n", record.AnchorRef)
	}
	return nil
}

func (a *App) get(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: get <id> <owner> <outpath>")
	}
	id, owner, outPath := args[0], args[1], args[2]

	key, err := masterKey(owner)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	name, plaintext, err := a.app.Vault().Retrieve(ctx, id, key)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, plaintext, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Printf("retrieved %s -> %s\n", name, outPath)
	return nil
}

func (a *App) share(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: share <id> <recipient>")
	}
	return a.app.Vault().Share(ctx, args[0], args[1])
}

func (a *App) shareRelocate(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: share-relocate <id> <recipient>")
	}
	record, err := a.app.Vault().ShareRelocate(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("shared %s with %s\n  locator: %s\n", record.ID, record.Recipient, record.StorageLocator)
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <id>")
	}
	if err := a.app.Vault().Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}

func (a *App) list(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: list <owner>")
	}
	result, err := a.app.Vault().List(ctx, args[0])
	if err != nil {
		return err
	}

	for _, r := range result {
		shared := ""
		if r.Shared() {
			shared = " (shared with " + r.Recipient + ")"
		}
		fmt.Printf("%s  %s  %s%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.DisplayName, shared)
	}
	fmt.Printf("%d record(s)\n", len(result))
	return nil
}
