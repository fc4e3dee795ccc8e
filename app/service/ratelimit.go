package service

import (
	"context"
	"time"

	"github.com/bayarqu/ms-go-paybridge/app/repository"
	"github.com/bayarqu/ms-go-paybridge/config"
)

type rateLimitRepository interface {
	Increment(ctx context.Context, projectID uint64, routeKey string, windowStart time.Time) (int64, error)
}

const (
	RouteCreate = "create"
	RouteSync   = "sync"
	RouteRead   = "read"
)

type RateLimitDecision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	// Reset is when the current fixed window ends.
	Reset time.Time
}

// RateLimiter enforces fixed-window per-project limits backed by shared
// counter rows, so every instance of the service sees the same counts.
type RateLimiter struct {
	repo   rateLimitRepository
	window time.Duration
	limits map[string]int64
	now    func() time.Time
}

func NewRateLimiter(repo *repository.RateLimitRepository, cfg config.RateLimitConfig) *RateLimiter {
	return newRateLimiter(repo, cfg)
}

func newRateLimiter(repo rateLimitRepository, cfg config.RateLimitConfig) *RateLimiter {
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		repo:   repo,
		window: window,
		limits: map[string]int64{
			RouteCreate: cfg.CreateLimit,
			RouteSync:   cfg.SyncLimit,
			RouteRead:   cfg.ReadLimit,
		},
		now: time.Now,
	}
}

// Check counts the current request against its window and decides. A request
// that gets rejected still consumed one increment; the window boundary resets
// everything.
func (l *RateLimiter) Check(ctx context.Context, projectID uint64, routeKey string) (*RateLimitDecision, error) {
	limit, ok := l.limits[routeKey]
	if !ok || limit <= 0 {
		limit = l.limits[RouteRead]
	}
	if limit <= 0 {
		limit = 60
	}

	now := l.now().UTC()
	windowStart := now.Truncate(l.window)

	count, err := l.repo.Increment(ctx, projectID, routeKey, windowStart)
	if err != nil {
		return nil, err
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &RateLimitDecision{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		Reset:     windowStart.Add(l.window),
	}, nil
}
