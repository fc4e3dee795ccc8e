package entity

import "time"

const (
	WithdrawalStatusPending    = "pending"
	WithdrawalStatusProcessing = "processing"
	WithdrawalStatusCompleted  = "completed"
	WithdrawalStatusRejected   = "rejected"
)

type Withdrawal struct {
	ID        uint64
	ProjectID uint64

	Status string

	AmountGross int64
	AmountFee   int64
	AmountNet   int64

	// Payout destination is snapshotted at request time.
	PayoutBankName      string
	PayoutAccountName   string
	PayoutAccountNumber string

	Note string

	ProcessedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
