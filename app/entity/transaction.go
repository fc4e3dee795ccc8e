package entity

import "time"

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
	StatusExpired = "expired"
)

// IsTerminalStatus reports whether no further transition is expected.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusPaid, StatusFailed, StatusExpired:
		return true
	default:
		return false
	}
}

type Transaction struct {
	ID        uint64
	ProjectID uint64

	// ExternalID is the merchant's own reference; not unique on our side.
	ExternalID string
	// GatewayOrderID is generated per transaction and never reused.
	GatewayOrderID string

	Method string
	Status string

	Amount        int64
	Fee           int64
	PlatformShare int64
	ProviderShare int64
	TotalPayment  int64

	PaymentNumber *string
	QRString      *string
	QRImageURL    *string

	ExpiredAt *time.Time
	PaidAt    *time.Time

	GatewayStatus      *string
	GatewayCompletedAt *time.Time
	GatewayRaw         map[string]interface{}

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SettledAt is the effective settlement time used by the balance ledger.
func (t *Transaction) SettledAt() time.Time {
	if t.PaidAt != nil {
		return *t.PaidAt
	}
	return t.CreatedAt
}

// GrossReceived is the amount the ledger treats as received for a paid
// transaction.
func (t *Transaction) GrossReceived() int64 {
	if t.TotalPayment > 0 {
		return t.TotalPayment
	}
	return t.Amount
}
