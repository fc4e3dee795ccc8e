package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrOrderIDExists       = errors.New("gateway order id already exists")
)

type TransactionFilter struct {
	ProjectID uint64
	Status    string
	Limit     int32
	Offset    int32
}

type TransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, project_id, external_id, gateway_order_id, method, status,
		amount, fee, platform_share, provider_share, total_payment,
		payment_number, qr_string, qr_image_url,
		expired_at, paid_at, gateway_status, gateway_completed_at, gateway_raw,
		created_at, updated_at`

func (r *TransactionRepository) Create(ctx context.Context, tx *entity.Transaction) error {
	rawJSON, err := serializeRawPayload(tx.GatewayRaw)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO transactions (
			project_id, external_id, gateway_order_id, method, status,
			amount, fee, platform_share, provider_share, total_payment,
			payment_number, qr_string, qr_image_url,
			expired_at, paid_at, gateway_status, gateway_completed_at, gateway_raw,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		tx.ProjectID,
		tx.ExternalID,
		tx.GatewayOrderID,
		tx.Method,
		tx.Status,
		tx.Amount,
		tx.Fee,
		tx.PlatformShare,
		tx.ProviderShare,
		tx.TotalPayment,
		nullableStringValue(tx.PaymentNumber),
		nullableStringValue(tx.QRString),
		nullableStringValue(tx.QRImageURL),
		nullableTimeValue(tx.ExpiredAt),
		nullableTimeValue(tx.PaidAt),
		nullableStringValue(tx.GatewayStatus),
		nullableTimeValue(tx.GatewayCompletedAt),
		rawJSON,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrOrderIDExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	tx.ID = uint64(id)
	return nil
}

func (r *TransactionRepository) Update(ctx context.Context, tx *entity.Transaction) error {
	rawJSON, err := serializeRawPayload(tx.GatewayRaw)
	if err != nil {
		return err
	}

	query := `
		UPDATE transactions SET
			status = ?,
			fee = ?,
			platform_share = ?,
			provider_share = ?,
			total_payment = ?,
			payment_number = ?,
			qr_string = ?,
			qr_image_url = ?,
			expired_at = ?,
			paid_at = ?,
			gateway_status = ?,
			gateway_completed_at = ?,
			gateway_raw = ?,
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		tx.Status,
		tx.Fee,
		tx.PlatformShare,
		tx.ProviderShare,
		tx.TotalPayment,
		nullableStringValue(tx.PaymentNumber),
		nullableStringValue(tx.QRString),
		nullableStringValue(tx.QRImageURL),
		nullableTimeValue(tx.ExpiredAt),
		nullableTimeValue(tx.PaidAt),
		nullableStringValue(tx.GatewayStatus),
		nullableTimeValue(tx.GatewayCompletedAt),
		rawJSON,
		tx.UpdatedAt,
		tx.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id uint64) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

	tx := &entity.Transaction{}
	if err := scanTransaction(r.db.QueryRowContext(ctx, query, id), tx); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *TransactionRepository) FindByIDForProject(ctx context.Context, id, projectID uint64) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ? AND project_id = ?`

	tx := &entity.Transaction{}
	if err := scanTransaction(r.db.QueryRowContext(ctx, query, id, projectID), tx); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *TransactionRepository) FindByGatewayOrderID(ctx context.Context, orderID string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE gateway_order_id = ? LIMIT 1`

	tx := &entity.Transaction{}
	if err := scanTransaction(r.db.QueryRowContext(ctx, query, orderID), tx); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *TransactionRepository) List(ctx context.Context, filter TransactionFilter) ([]*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE project_id = ?`
	args := []interface{}{filter.ProjectID}

	if strings.TrimSpace(filter.Status) != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	return r.queryTransactions(ctx, query, args...)
}

func (r *TransactionRepository) Count(ctx context.Context, projectID uint64, status string) (int64, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE project_id = ?`
	args := []interface{}{projectID}
	if strings.TrimSpace(status) != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ListPaidForProject backs the balance ledger.
func (r *TransactionRepository) ListPaidForProject(ctx context.Context, projectID uint64) ([]*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE project_id = ? AND status = ?`
	return r.queryTransactions(ctx, query, projectID, entity.StatusPaid)
}

// ListStalePending backs the reconcile poller: pending transactions whose
// last update is older than the cutoff.
func (r *TransactionRepository) ListStalePending(ctx context.Context, before time.Time, limit int32) ([]*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = ? AND updated_at <= ?
		ORDER BY updated_at ASC
		LIMIT ?`
	return r.queryTransactions(ctx, query, entity.StatusPending, before, limit)
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]*entity.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.Transaction, 0)
	for rows.Next() {
		item := &entity.Transaction{}
		if err := scanTransaction(rows, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(scan rowScanner, tx *entity.Transaction) error {
	var paymentNumber sql.NullString
	var qrString sql.NullString
	var qrImageURL sql.NullString
	var expiredAt sql.NullTime
	var paidAt sql.NullTime
	var gatewayStatus sql.NullString
	var gatewayCompletedAt sql.NullTime
	var rawJSON string

	err := scan.Scan(
		&tx.ID,
		&tx.ProjectID,
		&tx.ExternalID,
		&tx.GatewayOrderID,
		&tx.Method,
		&tx.Status,
		&tx.Amount,
		&tx.Fee,
		&tx.PlatformShare,
		&tx.ProviderShare,
		&tx.TotalPayment,
		&paymentNumber,
		&qrString,
		&qrImageURL,
		&expiredAt,
		&paidAt,
		&gatewayStatus,
		&gatewayCompletedAt,
		&rawJSON,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return err
	}

	tx.PaymentNumber = stringPtrFromNull(paymentNumber)
	tx.QRString = stringPtrFromNull(qrString)
	tx.QRImageURL = stringPtrFromNull(qrImageURL)
	tx.ExpiredAt = timePtrFromNull(expiredAt)
	tx.PaidAt = timePtrFromNull(paidAt)
	tx.GatewayStatus = stringPtrFromNull(gatewayStatus)
	tx.GatewayCompletedAt = timePtrFromNull(gatewayCompletedAt)

	raw, err := parseRawPayload(rawJSON)
	if err != nil {
		return err
	}
	tx.GatewayRaw = raw

	return nil
}
