package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
)

var ErrWithdrawalNotFound = errors.New("withdrawal not found")

type WithdrawalRepository struct {
	db DBTX
}

func NewWithdrawalRepository(db DBTX) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(ctx context.Context, w *entity.Withdrawal) error {
	query := `
		INSERT INTO withdrawals (
			project_id, status, amount_gross, amount_fee, amount_net,
			payout_bank_name, payout_account_name, payout_account_number,
			note, processed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		w.ProjectID,
		w.Status,
		w.AmountGross,
		w.AmountFee,
		w.AmountNet,
		w.PayoutBankName,
		w.PayoutAccountName,
		w.PayoutAccountNumber,
		w.Note,
		nullableTimeValue(w.ProcessedAt),
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = uint64(id)
	return nil
}

// SumReserved totals the gross amounts still reserving withdrawable funds.
// Rejected withdrawals release their reservation.
func (r *WithdrawalRepository) SumReserved(ctx context.Context, projectID uint64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_gross), 0)
		FROM withdrawals
		WHERE project_id = ? AND status IN (?, ?, ?)
	`

	var total int64
	err := r.db.QueryRowContext(ctx, query,
		projectID,
		entity.WithdrawalStatusPending,
		entity.WithdrawalStatusProcessing,
		entity.WithdrawalStatusCompleted,
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *WithdrawalRepository) ListForProject(ctx context.Context, projectID uint64, limit int32) ([]*entity.Withdrawal, error) {
	query := `
		SELECT id, project_id, status, amount_gross, amount_fee, amount_net,
			payout_bank_name, payout_account_name, payout_account_number,
			note, processed_at, created_at, updated_at
		FROM withdrawals
		WHERE project_id = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.Withdrawal, 0)
	for rows.Next() {
		item := &entity.Withdrawal{}
		var processedAt sql.NullTime
		if err := rows.Scan(
			&item.ID,
			&item.ProjectID,
			&item.Status,
			&item.AmountGross,
			&item.AmountFee,
			&item.AmountNet,
			&item.PayoutBankName,
			&item.PayoutAccountName,
			&item.PayoutAccountNumber,
			&item.Note,
			&processedAt,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		item.ProcessedAt = timePtrFromNull(processedAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *WithdrawalRepository) UpdateStatus(ctx context.Context, id uint64, status string, processedAt *time.Time, now time.Time) error {
	query := `UPDATE withdrawals SET status = ?, processed_at = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, status, nullableTimeValue(processedAt), now, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrWithdrawalNotFound
	}
	return nil
}
