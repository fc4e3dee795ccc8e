package entity

import "time"

// IdempotencyKey reserves a (project, key) pair for at most one creation
// effect. A row without a stored response is in-flight until its lease
// expires; rows are never deleted.
type IdempotencyKey struct {
	ID        uint64
	ProjectID uint64

	Key         string
	RequestHash string

	ResponseStatus *int32
	ResponseBody   *string

	LeaseExpiresAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (k *IdempotencyKey) HasResponse() bool {
	return k.ResponseStatus != nil && k.ResponseBody != nil
}
