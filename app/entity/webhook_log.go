package entity

import "time"

// WebhookLog records a single outbound delivery attempt. Append-only.
type WebhookLog struct {
	ID            uint64
	ProjectID     uint64
	TransactionID uint64

	EventType string
	AttemptNo int32
	IsSuccess bool

	TargetURL   string
	RequestBody string

	ResponseCode *int32
	ResponseBody *string

	CreatedAt time.Time
}
