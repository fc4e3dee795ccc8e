package repository

import (
	"context"
	"database/sql"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
)

const platformConfigID = 1

type PlatformConfigRepository struct {
	db DBTX
}

func NewPlatformConfigRepository(db DBTX) *PlatformConfigRepository {
	return &PlatformConfigRepository{db: db}
}

// Get returns the singleton config row, or zero fees when the row has not
// been seeded yet.
func (r *PlatformConfigRepository) Get(ctx context.Context) (*entity.PlatformConfig, error) {
	query := `SELECT id, platform_fee, gateway_fee, updated_at FROM platform_configs WHERE id = ?`

	cfg := &entity.PlatformConfig{}
	err := r.db.QueryRowContext(ctx, query, platformConfigID).Scan(
		&cfg.ID,
		&cfg.PlatformFee,
		&cfg.GatewayFee,
		&cfg.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return &entity.PlatformConfig{ID: platformConfigID}, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
