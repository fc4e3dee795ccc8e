package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
	"github.com/bayarqu/ms-go-paybridge/app/repository"
)

type idempotencyRepository interface {
	Insert(ctx context.Context, rec *entity.IdempotencyKey) error
	FindByProjectAndKey(ctx context.Context, projectID uint64, key string) (*entity.IdempotencyKey, error)
	Reclaim(ctx context.Context, id uint64, leaseExpiresAt, now time.Time) (bool, error)
	StoreResponse(ctx context.Context, id uint64, status int32, body string, now time.Time) error
}

type BeginOutcome int

const (
	// BeginNew means the caller owns the key and must perform the effect.
	BeginNew BeginOutcome = iota
	// BeginReplay means a stored response must be returned verbatim.
	BeginReplay
	// BeginConflict means the key was reused with a different request body.
	BeginConflict
	// BeginInFlight means another caller holds a live lease on the key.
	BeginInFlight
)

type BeginResult struct {
	Outcome  BeginOutcome
	RecordID uint64

	// Stored response, set only for BeginReplay.
	ResponseStatus int32
	ResponseBody   string
}

// IdempotencyGuard reserves an idempotency key before the create effect runs
// and stores the serialized response after it succeeds. A crashed owner is
// detected through lease expiry and its key reclaimed by a later caller.
type IdempotencyGuard struct {
	repo          idempotencyRepository
	leaseDuration time.Duration
	now           func() time.Time
}

func NewIdempotencyGuard(repo *repository.IdempotencyRepository, leaseDuration time.Duration) *IdempotencyGuard {
	return newIdempotencyGuard(repo, leaseDuration)
}

func newIdempotencyGuard(repo idempotencyRepository, leaseDuration time.Duration) *IdempotencyGuard {
	if leaseDuration <= 0 {
		leaseDuration = time.Minute
	}
	return &IdempotencyGuard{
		repo:          repo,
		leaseDuration: leaseDuration,
		now:           time.Now,
	}
}

func (g *IdempotencyGuard) Begin(ctx context.Context, projectID uint64, key, requestHash string) (*BeginResult, error) {
	now := g.now().UTC()

	rec := &entity.IdempotencyKey{
		ProjectID:      projectID,
		Key:            key,
		RequestHash:    requestHash,
		LeaseExpiresAt: now.Add(g.leaseDuration),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := g.repo.Insert(ctx, rec)
	if err == nil {
		return &BeginResult{Outcome: BeginNew, RecordID: rec.ID}, nil
	}
	if !errors.Is(err, repository.ErrIdempotencyKeyExists) {
		return nil, err
	}

	existing, err := g.repo.FindByProjectAndKey(ctx, projectID, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		// Row vanished between insert and lookup; keys are never deleted, so
		// treat it as a storage fault rather than retrying.
		return nil, errors.New("idempotency key exists but could not be read back")
	}

	if existing.RequestHash != requestHash {
		return &BeginResult{Outcome: BeginConflict, RecordID: existing.ID}, nil
	}

	if existing.HasResponse() {
		return &BeginResult{
			Outcome:        BeginReplay,
			RecordID:       existing.ID,
			ResponseStatus: *existing.ResponseStatus,
			ResponseBody:   *existing.ResponseBody,
		}, nil
	}

	if existing.LeaseExpiresAt.After(now) {
		return &BeginResult{Outcome: BeginInFlight, RecordID: existing.ID}, nil
	}

	reclaimed, err := g.repo.Reclaim(ctx, existing.ID, now.Add(g.leaseDuration), now)
	if err != nil {
		return nil, err
	}
	if !reclaimed {
		// Lost the reclaim race, or the original owner finished just now.
		refreshed, err := g.repo.FindByProjectAndKey(ctx, projectID, key)
		if err != nil {
			return nil, err
		}
		if refreshed != nil && refreshed.HasResponse() {
			return &BeginResult{
				Outcome:        BeginReplay,
				RecordID:       refreshed.ID,
				ResponseStatus: *refreshed.ResponseStatus,
				ResponseBody:   *refreshed.ResponseBody,
			}, nil
		}
		return &BeginResult{Outcome: BeginInFlight, RecordID: existing.ID}, nil
	}

	return &BeginResult{Outcome: BeginNew, RecordID: existing.ID}, nil
}

// Complete records the response for a key owned through Begin. The lease is
// left as is: a stored response always wins over lease state.
func (g *IdempotencyGuard) Complete(ctx context.Context, recordID uint64, status int32, body string) error {
	return g.repo.StoreResponse(ctx, recordID, status, body, g.now().UTC())
}

// HashRequest fingerprints a request body for equivalence checks. The hash is
// over the canonical JSON form, so field order in the incoming payload does
// not matter.
func HashRequest(req interface{}) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
