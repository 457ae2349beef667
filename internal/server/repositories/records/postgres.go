package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cryptovault/vaultd/internal/common"
	"github.com/cryptovault/vaultd/internal/dbx"
	"github.com/cryptovault/vaultd/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PostgresRepository implements record storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Create inserts a new record. The unique index on storage_locator makes
// the uniqueness check and the write atomic: two concurrent creates
// racing to the same locator yield exactly one winner.
func (r *PostgresRepository) Create(ctx context.Context, record *models.VaultRecord) (string, error) {
	if !validate(record) {
		return "", common.ErrValidation
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	query := `
		INSERT INTO vault_records
			(id, owner_id, recipient_id, display_name, storage_locator, content_hash,
			 anchor_ref, wrapped_content_key, key_wrap_alg, key_wrap_nonce, content_nonce)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		record.ID, record.Owner, record.Recipient, record.DisplayName, record.StorageLocator,
		record.ContentHash, record.AnchorRef, record.WrappedContentKey, record.KeyWrapAlg,
		record.KeyWrapNonce, record.ContentNonce).Scan(&record.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return "", common.ErrDuplicateLocator
		}
		return "", fmt.Errorf("error performing sql request: %w", err)
	}

	return record.ID, nil
}

const selectColumns = `id, owner_id, COALESCE(recipient_id, ''), display_name, storage_locator,
	content_hash, anchor_ref, wrapped_content_key, key_wrap_alg, key_wrap_nonce, content_nonce, created_at`

func scanRecord(row *sql.Row) (*models.VaultRecord, error) {
	record := &models.VaultRecord{}
	err := row.Scan(&record.ID, &record.Owner, &record.Recipient, &record.DisplayName,
		&record.StorageLocator, &record.ContentHash, &record.AnchorRef, &record.WrappedContentKey,
		&record.KeyWrapAlg, &record.KeyWrapNonce, &record.ContentNonce, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return record, nil
}

// Get returns the record by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.VaultRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM vault_records WHERE id = $1`
	return scanRecord(r.db.QueryRowContext(ctx, query, id))
}

// SetRecipient marks the record as shared. The recipient IS NULL guard
// makes the one-time check atomic with the update.
func (r *PostgresRepository) SetRecipient(ctx context.Context, id string, recipient string) (*models.VaultRecord, error) {
	if recipient == "" {
		return nil, common.ErrValidation
	}

	query := `UPDATE vault_records SET recipient_id = $2 WHERE id = $1 AND recipient_id IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, recipient)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		// distinguish a missing record from a record already shared
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, common.ErrAlreadyShared
	}

	return r.Get(ctx, id)
}

// UpdateLocator moves the record to a new locator and recipient.
func (r *PostgresRepository) UpdateLocator(ctx context.Context, id string, locator string, recipient string) error {
	if locator == "" || recipient == "" {
		return common.ErrValidation
	}

	query := `UPDATE vault_records SET storage_locator = $2, recipient_id = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, locator, recipient)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrDuplicateLocator
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// SetAnchorRef stores the anchoring reference.
func (r *PostgresRepository) SetAnchorRef(ctx context.Context, id string, ref string) error {
	query := `UPDATE vault_records SET anchor_ref = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, ref)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Delete removes the record row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM vault_records WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// List returns all records owned by the given identity, newest first.
func (r *PostgresRepository) List(ctx context.Context, owner string) ([]*models.VaultRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM vault_records WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []*models.VaultRecord
	for rows.Next() {
		record := &models.VaultRecord{}
		if err := rows.Scan(&record.ID, &record.Owner, &record.Recipient, &record.DisplayName,
			&record.StorageLocator, &record.ContentHash, &record.AnchorRef, &record.WrappedContentKey,
			&record.KeyWrapAlg, &record.KeyWrapNonce, &record.ContentNonce, &record.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
