package entity

import "time"

// PlatformConfig is the singleton fee-split configuration row.
type PlatformConfig struct {
	ID          int64
	PlatformFee int64
	GatewayFee  int64
	UpdatedAt   time.Time
}
