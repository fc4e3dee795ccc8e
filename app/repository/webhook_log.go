package repository

import (
	"context"
	"database/sql"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
)

type WebhookLogRepository struct {
	db DBTX
}

func NewWebhookLogRepository(db DBTX) *WebhookLogRepository {
	return &WebhookLogRepository{db: db}
}

func (r *WebhookLogRepository) Create(ctx context.Context, log *entity.WebhookLog) error {
	query := `
		INSERT INTO webhook_logs (
			project_id, transaction_id, event_type, attempt_no, is_success,
			target_url, request_body, response_code, response_body, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		log.ProjectID,
		log.TransactionID,
		log.EventType,
		log.AttemptNo,
		log.IsSuccess,
		log.TargetURL,
		log.RequestBody,
		nullableInt32Value(log.ResponseCode),
		nullableStringValue(log.ResponseBody),
		log.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	log.ID = uint64(id)
	return nil
}

func (r *WebhookLogRepository) ListForProject(ctx context.Context, projectID uint64, transactionID uint64, limit int32) ([]*entity.WebhookLog, error) {
	query := `
		SELECT id, project_id, transaction_id, event_type, attempt_no, is_success,
			target_url, request_body, response_code, response_body, created_at
		FROM webhook_logs
		WHERE project_id = ?
	`
	args := []interface{}{projectID}

	if transactionID > 0 {
		query += " AND transaction_id = ?"
		args = append(args, transactionID)
	}

	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.WebhookLog, 0)
	for rows.Next() {
		item := &entity.WebhookLog{}
		var responseCode sql.NullInt32
		var responseBody sql.NullString
		if err := rows.Scan(
			&item.ID,
			&item.ProjectID,
			&item.TransactionID,
			&item.EventType,
			&item.AttemptNo,
			&item.IsSuccess,
			&item.TargetURL,
			&item.RequestBody,
			&responseCode,
			&responseBody,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.ResponseCode = int32PtrFromNull(responseCode)
		item.ResponseBody = stringPtrFromNull(responseBody)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
