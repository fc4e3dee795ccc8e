package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
)

type ProjectRepository struct {
	db DBTX
}

func NewProjectRepository(db DBTX) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, name, app_slug, webhook_url,
		payout_bank_name, payout_account_name, payout_account_number,
		is_active, created_at, updated_at`

func (r *ProjectRepository) FindByID(ctx context.Context, id uint64) (*entity.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

	project := &entity.Project{}
	if err := scanProject(r.db.QueryRowContext(ctx, query, id), project); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return project, nil
}

// FindActiveByAPIKeyHash resolves a bearer credential to its project in one
// query: the key must be unrevoked and the project active.
func (r *ProjectRepository) FindActiveByAPIKeyHash(ctx context.Context, keyHash string) (*entity.Project, uint64, error) {
	query := `
		SELECT k.id, ` + prefixedProjectColumns("p") + `
		FROM api_keys k
		JOIN projects p ON p.id = k.project_id
		WHERE k.key_hash = ? AND k.revoked_at IS NULL AND p.is_active = 1
		LIMIT 1
	`

	project := &entity.Project{}
	var keyID uint64
	var payoutBankName, payoutAccountName, payoutAccountNumber sql.NullString

	err := r.db.QueryRowContext(ctx, query, keyHash).Scan(
		&keyID,
		&project.ID,
		&project.Name,
		&project.AppSlug,
		&project.WebhookURL,
		&payoutBankName,
		&payoutAccountName,
		&payoutAccountNumber,
		&project.IsActive,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	project.PayoutBankName = stringPtrFromNull(payoutBankName)
	project.PayoutAccountName = stringPtrFromNull(payoutAccountName)
	project.PayoutAccountNumber = stringPtrFromNull(payoutAccountNumber)
	return project, keyID, nil
}

func (r *ProjectRepository) TouchAPIKey(ctx context.Context, keyID uint64, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = ? WHERE id = ?`, now, keyID)
	return err
}

func prefixedProjectColumns(alias string) string {
	return alias + `.id, ` + alias + `.name, ` + alias + `.app_slug, ` + alias + `.webhook_url,
		` + alias + `.payout_bank_name, ` + alias + `.payout_account_name, ` + alias + `.payout_account_number,
		` + alias + `.is_active, ` + alias + `.created_at, ` + alias + `.updated_at`
}

func scanProject(scan rowScanner, project *entity.Project) error {
	var payoutBankName, payoutAccountName, payoutAccountNumber sql.NullString

	err := scan.Scan(
		&project.ID,
		&project.Name,
		&project.AppSlug,
		&project.WebhookURL,
		&payoutBankName,
		&payoutAccountName,
		&payoutAccountNumber,
		&project.IsActive,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return err
	}

	project.PayoutBankName = stringPtrFromNull(payoutBankName)
	project.PayoutAccountName = stringPtrFromNull(payoutAccountName)
	project.PayoutAccountNumber = stringPtrFromNull(payoutAccountNumber)
	return nil
}
