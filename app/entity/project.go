package entity

import "time"

type Project struct {
	ID uint64

	Name       string
	AppSlug    string
	WebhookURL string

	PayoutBankName      *string
	PayoutAccountName   *string
	PayoutAccountNumber *string

	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Project) HasPayoutAccount() bool {
	return p.PayoutBankName != nil && *p.PayoutBankName != "" &&
		p.PayoutAccountName != nil && *p.PayoutAccountName != "" &&
		p.PayoutAccountNumber != nil && *p.PayoutAccountNumber != ""
}

type APIKey struct {
	ID        uint64
	ProjectID uint64

	KeyHash   string
	KeyPrefix string

	RevokedAt  *time.Time
	LastUsedAt *time.Time

	CreatedAt time.Time
}
