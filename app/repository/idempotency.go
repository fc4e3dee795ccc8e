package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
)

var ErrIdempotencyKeyExists = errors.New("idempotency key already exists")

type IdempotencyRepository struct {
	db DBTX
}

func NewIdempotencyRepository(db DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Insert is the single serialization point of the create path: exactly one
// concurrent caller succeeds per (project_id, key).
func (r *IdempotencyRepository) Insert(ctx context.Context, rec *entity.IdempotencyKey) error {
	query := `
		INSERT INTO idempotency_keys (project_id, idem_key, request_hash, lease_expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		rec.ProjectID,
		rec.Key,
		rec.RequestHash,
		rec.LeaseExpiresAt,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrIdempotencyKeyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

func (r *IdempotencyRepository) FindByProjectAndKey(ctx context.Context, projectID uint64, key string) (*entity.IdempotencyKey, error) {
	query := `
		SELECT id, project_id, idem_key, request_hash, response_status, response_body, lease_expires_at, created_at, updated_at
		FROM idempotency_keys
		WHERE project_id = ? AND idem_key = ?
		LIMIT 1
	`

	rec := &entity.IdempotencyKey{}
	var responseStatus sql.NullInt32
	var responseBody sql.NullString

	err := r.db.QueryRowContext(ctx, query, projectID, key).Scan(
		&rec.ID,
		&rec.ProjectID,
		&rec.Key,
		&rec.RequestHash,
		&responseStatus,
		&responseBody,
		&rec.LeaseExpiresAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.ResponseStatus = int32PtrFromNull(responseStatus)
	rec.ResponseBody = stringPtrFromNull(responseBody)
	return rec, nil
}

// Reclaim takes over an in-flight record whose lease has expired. The
// conditional update guarantees at most one concurrent reclaimer wins.
func (r *IdempotencyRepository) Reclaim(ctx context.Context, id uint64, leaseExpiresAt, now time.Time) (bool, error) {
	query := `
		UPDATE idempotency_keys
		SET lease_expires_at = ?, updated_at = ?
		WHERE id = ? AND response_status IS NULL AND lease_expires_at <= ?
	`

	result, err := r.db.ExecContext(ctx, query, leaseExpiresAt, now, id, now)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *IdempotencyRepository) StoreResponse(ctx context.Context, id uint64, status int32, body string, now time.Time) error {
	query := `
		UPDATE idempotency_keys
		SET response_status = ?, response_body = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query, status, body, now, id)
	return err
}
