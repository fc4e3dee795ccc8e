package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
	"github.com/bayarqu/ms-go-paybridge/app/gateway"
	"github.com/bayarqu/ms-go-paybridge/app/repository"
)

type fakeIdempotencyRepo struct {
	mu      sync.Mutex
	records map[string]*entity.IdempotencyKey
	nextID  uint64
}

func newFakeIdempotencyRepo() *fakeIdempotencyRepo {
	return &fakeIdempotencyRepo{records: map[string]*entity.IdempotencyKey{}}
}

func idemKey(projectID uint64, key string) string {
	return fmt.Sprintf("%d/%s", projectID, key)
}

func (f *fakeIdempotencyRepo) Insert(_ context.Context, rec *entity.IdempotencyKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := idemKey(rec.ProjectID, rec.Key)
	if _, ok := f.records[k]; ok {
		return repository.ErrIdempotencyKeyExists
	}
	f.nextID++
	rec.ID = f.nextID
	stored := *rec
	f.records[k] = &stored
	return nil
}

func (f *fakeIdempotencyRepo) FindByProjectAndKey(_ context.Context, projectID uint64, key string) (*entity.IdempotencyKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.records[idemKey(projectID, key)]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeIdempotencyRepo) Reclaim(_ context.Context, id uint64, leaseExpiresAt, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rec := range f.records {
		if rec.ID == id && rec.ResponseStatus == nil && !rec.LeaseExpiresAt.After(now) {
			rec.LeaseExpiresAt = leaseExpiresAt
			rec.UpdatedAt = now
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeIdempotencyRepo) StoreResponse(_ context.Context, id uint64, status int32, body string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rec := range f.records {
		if rec.ID == id {
			rec.ResponseStatus = &status
			rec.ResponseBody = &body
			rec.UpdatedAt = now
			return nil
		}
	}
	return errors.New("record not found")
}

type fakeRateLimitRepo struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeRateLimitRepo() *fakeRateLimitRepo {
	return &fakeRateLimitRepo{counts: map[string]int64{}}
}

func (f *fakeRateLimitRepo) Increment(_ context.Context, projectID uint64, routeKey string, windowStart time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := fmt.Sprintf("%d/%s/%d", projectID, routeKey, windowStart.Unix())
	f.counts[k]++
	return f.counts[k], nil
}

type fakeTransactionRepo struct {
	mu     sync.Mutex
	items  map[uint64]*entity.Transaction
	nextID uint64

	createErr error
	updateErr error
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{items: map[uint64]*entity.Transaction{}}
}

func (f *fakeTransactionRepo) Create(_ context.Context, tx *entity.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.items {
		if existing.GatewayOrderID == tx.GatewayOrderID {
			return repository.ErrOrderIDExists
		}
	}
	f.nextID++
	tx.ID = f.nextID
	stored := *tx
	f.items[tx.ID] = &stored
	return nil
}

func (f *fakeTransactionRepo) Update(_ context.Context, tx *entity.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.items[tx.ID]; !ok {
		return repository.ErrTransactionNotFound
	}
	stored := *tx
	f.items[tx.ID] = &stored
	return nil
}

func (f *fakeTransactionRepo) FindByID(_ context.Context, id uint64) (*entity.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	copied := *tx
	return &copied, nil
}

func (f *fakeTransactionRepo) FindByIDForProject(_ context.Context, id, projectID uint64) (*entity.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx, ok := f.items[id]
	if !ok || tx.ProjectID != projectID {
		return nil, nil
	}
	copied := *tx
	return &copied, nil
}

func (f *fakeTransactionRepo) FindByGatewayOrderID(_ context.Context, orderID string) (*entity.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, tx := range f.items {
		if tx.GatewayOrderID == orderID {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeTransactionRepo) List(_ context.Context, filter repository.TransactionFilter) ([]*entity.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := make([]*entity.Transaction, 0)
	for _, tx := range f.items {
		if tx.ProjectID != filter.ProjectID {
			continue
		}
		if strings.TrimSpace(filter.Status) != "" && tx.Status != filter.Status {
			continue
		}
		copied := *tx
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	start := int(filter.Offset)
	if start > len(matched) {
		start = len(matched)
	}
	end := start + int(filter.Limit)
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (f *fakeTransactionRepo) Count(_ context.Context, projectID uint64, status string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var total int64
	for _, tx := range f.items {
		if tx.ProjectID != projectID {
			continue
		}
		if strings.TrimSpace(status) != "" && tx.Status != status {
			continue
		}
		total++
	}
	return total, nil
}

func (f *fakeTransactionRepo) ListPaidForProject(_ context.Context, projectID uint64) ([]*entity.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := make([]*entity.Transaction, 0)
	for _, tx := range f.items {
		if tx.ProjectID == projectID && tx.Status == entity.StatusPaid {
			copied := *tx
			matched = append(matched, &copied)
		}
	}
	return matched, nil
}

func (f *fakeTransactionRepo) ListStalePending(_ context.Context, before time.Time, limit int32) ([]*entity.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := make([]*entity.Transaction, 0)
	for _, tx := range f.items {
		if tx.Status == entity.StatusPending && !tx.UpdatedAt.After(before) {
			copied := *tx
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].UpdatedAt.Before(matched[j].UpdatedAt) })
	if int32(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeTransactionRepo) seed(tx *entity.Transaction) *entity.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	tx.ID = f.nextID
	stored := *tx
	f.items[tx.ID] = &stored
	return tx
}

type fakeProjectRepo struct {
	projects map[uint64]*entity.Project
}

func (f *fakeProjectRepo) FindByID(_ context.Context, id uint64) (*entity.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

type fakePlatformRepo struct {
	cfg *entity.PlatformConfig
	err error
}

func (f *fakePlatformRepo) Get(_ context.Context) (*entity.PlatformConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.cfg == nil {
		return &entity.PlatformConfig{ID: 1}, nil
	}
	return f.cfg, nil
}

type fakeGatewayClient struct {
	createDetail *gateway.Detail
	createErr    error
	createCalls  int

	detailFn    func(amount int64, orderID string) (*gateway.Detail, error)
	detailCalls int
}

func (f *fakeGatewayClient) CreateTransaction(_ context.Context, _ *gateway.CreateInput) (*gateway.Detail, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createDetail, nil
}

func (f *fakeGatewayClient) FetchDetail(_ context.Context, amount int64, orderID string) (*gateway.Detail, error) {
	f.detailCalls++
	if f.detailFn != nil {
		return f.detailFn(amount, orderID)
	}
	return &gateway.Detail{Status: entity.StatusPending}, nil
}

type fakeWebhookLogRepo struct {
	mu     sync.Mutex
	logs   []*entity.WebhookLog
	nextID uint64
}

func (f *fakeWebhookLogRepo) Create(_ context.Context, log *entity.WebhookLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	log.ID = f.nextID
	stored := *log
	f.logs = append(f.logs, &stored)
	return nil
}

func (f *fakeWebhookLogRepo) all() []*entity.WebhookLog {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*entity.WebhookLog, len(f.logs))
	copy(out, f.logs)
	return out
}

type fakeWithdrawalRepo struct {
	mu     sync.Mutex
	items  []*entity.Withdrawal
	nextID uint64
}

func (f *fakeWithdrawalRepo) Create(_ context.Context, w *entity.Withdrawal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	w.ID = f.nextID
	stored := *w
	f.items = append(f.items, &stored)
	return nil
}

func (f *fakeWithdrawalRepo) SumReserved(_ context.Context, projectID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var total int64
	for _, w := range f.items {
		if w.ProjectID != projectID {
			continue
		}
		switch w.Status {
		case entity.WithdrawalStatusPending, entity.WithdrawalStatusProcessing, entity.WithdrawalStatusCompleted:
			total += w.AmountGross
		}
	}
	return total, nil
}

func (f *fakeWithdrawalRepo) ListForProject(_ context.Context, projectID uint64, limit int32) ([]*entity.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := make([]*entity.Withdrawal, 0)
	for i := len(f.items) - 1; i >= 0 && int32(len(matched)) < limit; i-- {
		if f.items[i].ProjectID == projectID {
			copied := *f.items[i]
			matched = append(matched, &copied)
		}
	}
	return matched, nil
}

func (f *fakeWithdrawalRepo) UpdateStatus(_ context.Context, id uint64, status string, processedAt *time.Time, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, w := range f.items {
		if w.ID == id {
			w.Status = status
			w.ProcessedAt = processedAt
			w.UpdatedAt = now
			return nil
		}
	}
	return repository.ErrWithdrawalNotFound
}
