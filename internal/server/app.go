// Package server wires the vault core together: database, migrations,
// object storage, identity and anchoring collaborators, and the
// lifecycle service on top of them.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/cryptovault/vaultd/internal/logging"
	"github.com/cryptovault/vaultd/internal/server/anchor"
	"github.com/cryptovault/vaultd/internal/server/blobstore"
	"github.com/cryptovault/vaultd/internal/server/config"
	"github.com/cryptovault/vaultd/internal/server/identity"
	"github.com/cryptovault/vaultd/internal/server/repositories/repomanager"
	"github.com/cryptovault/vaultd/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	vault  *services.VaultService
}

// NewApp builds the vault from configuration: opens the database, runs
// migrations, connects object storage and constructs the lifecycle
// service. Identity checks default to AllowAll because authentication is
// owned by the surrounding application. Anchoring uses the configured
// HTTP service when enabled and Noop otherwise.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	blobs, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
		Region:       cfg.S3Region,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Bucket:       cfg.S3Bucket,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	var anchorer anchor.Anchorer = anchor.Noop{}
	if cfg.AnchorEnabled && cfg.AnchorEndpoint != "" {
		anchorer = anchor.NewHTTPAnchorer(cfg.AnchorEndpoint)
	}

	vault := services.NewVaultService(db, rm, blobs, identity.AllowAll{}, anchorer, logger,
		services.RetryPolicy{MaxRetries: cfg.RetryMaxAttempts, BaseDelay: cfg.RetryBaseDelay})

	return &App{config: cfg, logger: logger, db: db, vault: vault}, nil
}

// Vault returns the lifecycle service. All mutations of vault state go
// through it.
func (app *App) Vault() *services.VaultService {
	return app.vault
}

func (app *App) Logger() logging.Logger {
	return app.logger
}

func (app *App) Close() error {
	return app.db.Close()
}
