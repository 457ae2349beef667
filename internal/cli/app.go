// Package cli implements the vaultcli operator tool: one-shot vault
// lifecycle commands against the configured database and object store.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/cryptovault/vaultd/internal/common"
	"github.com/cryptovault/vaultd/internal/cryptox"
	"github.com/cryptovault/vaultd/internal/server"
	"github.com/cryptovault/vaultd/internal/server/config"
)

type App struct {
	app *server.App
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &App{app: app}, nil
}

var commands = map[string]bool{
	"upload":         true,
	"get":            true,
	"share":          true,
	"share-relocate": true,
	"delete":         true,
	"list":           true,
	"help":           true,
}

// commandArgs extracts the command word and its positional arguments,
// skipping over configuration flags handled elsewhere.
func commandArgs(args []string) (string, []string) {
	for i, a := range args {
		if commands[a] {
			var rest []string
			for _, v := range args[i+1:] {
				if strings.HasPrefix(v, "-") {
					break
				}
				rest = append(rest, v)
			}
			return a, rest
		}
	}
	return "", nil
}

// readPassword is a seam for tests.
var readPassword = func() ([]byte, error) {
	fmt.Fprint(os.Stderr, "Master passphrase: ")
	defer fmt.Fprintln(os.Stderr)
	return term.ReadPassword(int(os.Stdin.Fd()))
}

// masterKey derives the caller's master key from the passphrase. The
// owner reference doubles as the derivation salt so each identity gets a
// distinct key from the same passphrase.
func masterKey(owner string) ([]byte, error) {
	pass, err := readPassword()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(pass)
	return cryptox.DeriveMasterKey(pass, []byte(owner)), nil
}

func usage() {
	fmt.Println(`Usage: vaultcli [flags] <command>

Commands:
  upload <owner> <path> [recipient]   encrypt and store a file
  get <id> <owner> <outpath>          retrieve and decrypt a file
  share <id> <recipient>              mark a record shared (shared-namespace records only)
  share-relocate <id> <recipient>     share by moving the blob to the shared namespace
  delete <id>                         remove a record and its blob
  list <owner>                        list records for an owner`)
}

func (a *App) Run(ctx context.Context) error {
	defer a.app.Close()

	cmd, args := commandArgs(os.Args[1:])

	switch cmd {
	case "upload":
		return a.upload(ctx, args)
	case "get":
		return a.get(ctx, args)
	case "share":
		return a.share(ctx, args)
	case "share-relocate":
		return a.shareRelocate(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "list":
		return a.list(ctx, args)
	case "help", "":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}
