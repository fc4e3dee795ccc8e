package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
	"github.com/bayarqu/ms-go-paybridge/app/factory"
	"github.com/bayarqu/ms-go-paybridge/app/gateway"
	"github.com/bayarqu/ms-go-paybridge/app/metrics"
	"github.com/bayarqu/ms-go-paybridge/app/repository"
	"github.com/bayarqu/ms-go-paybridge/config"
)

type projectRepository interface {
	FindByID(ctx context.Context, id uint64) (*entity.Project, error)
}

// SyncService reconciles local transaction state against the gateway, which
// is authoritative for payment completion. It is the only writer of status
// transitions after creation; a per-transaction mutex keeps the callback
// path and the poller from racing each other.
type SyncService struct {
	transactions transactionRepository
	projects     projectRepository
	platform     platformConfigRepository
	gateway      gatewayClient
	dispatcher   *WebhookDispatcher
	staleAfter   time.Duration
	batchSize    int32
	locks        keyedMutex
	logger       logrus.FieldLogger
	now          func() time.Time
}

func NewSyncService(
	transactions *repository.TransactionRepository,
	projects *repository.ProjectRepository,
	platform *repository.PlatformConfigRepository,
	gw *gateway.Client,
	dispatcher *WebhookDispatcher,
	cfg config.JobsConfig,
) *SyncService {
	return newSyncService(transactions, projects, platform, gw, dispatcher, cfg)
}

func newSyncService(
	transactions transactionRepository,
	projects projectRepository,
	platform platformConfigRepository,
	gw gatewayClient,
	dispatcher *WebhookDispatcher,
	cfg config.JobsConfig,
) *SyncService {
	staleAfter := cfg.ReconcileStaleAfter
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	return &SyncService{
		transactions: transactions,
		projects:     projects,
		platform:     platform,
		gateway:      gw,
		dispatcher:   dispatcher,
		staleAfter:   staleAfter,
		batchSize:    batchSize,
		logger:       factory.NewModuleLogger("sync-service"),
		now:          time.Now,
	}
}

// Reconcile refreshes one transaction on behalf of its owning project.
func (s *SyncService) Reconcile(ctx context.Context, projectID, id uint64) (*entity.Transaction, error) {
	tx, err := s.transactions.FindByIDForProject(ctx, id, projectID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrTransactionNotFound
	}
	return s.reconcile(ctx, tx)
}

// ReconcileByOrderID handles the gateway callback path. The callback body is
// treated as a hint only; the authoritative state is re-fetched.
func (s *SyncService) ReconcileByOrderID(ctx context.Context, orderID string) (*entity.Transaction, error) {
	tx, err := s.transactions.FindByGatewayOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrTransactionNotFound
	}
	return s.reconcile(ctx, tx)
}

// RunReconcileBatch refreshes pending transactions that have not been
// touched recently. Per-transaction failures are logged and skipped so one
// bad row cannot stall the batch.
func (s *SyncService) RunReconcileBatch(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-s.staleAfter)
	stale, err := s.transactions.ListStalePending(ctx, cutoff, s.batchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, tx := range stale {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if _, err := s.reconcile(ctx, tx); err != nil {
			s.logger.WithError(err).WithField("transaction_id", tx.ID).Warn("reconcile failed for stale transaction")
			continue
		}
		processed++
	}
	return processed, nil
}

func (s *SyncService) reconcile(ctx context.Context, tx *entity.Transaction) (*entity.Transaction, error) {
	unlock := s.locks.lock(tx.ID)
	defer unlock()

	// Re-read under the lock in case a concurrent reconcile finished first.
	fresh, err := s.transactions.FindByID(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	if fresh != nil {
		tx = fresh
	}

	terminal := entity.IsTerminalStatus(tx.Status)

	detail, err := s.fetchDetail(ctx, tx)
	if err != nil {
		return nil, err
	}

	// Terminal statuses never transition again and never re-fire the
	// webhook; a re-sync still refreshes the gateway metadata on the row.
	if terminal {
		applyGatewayDetail(tx, detail, s.loadPlatformCut(ctx))
		tx.UpdatedAt = s.now().UTC()
		if err := s.transactions.Update(ctx, tx); err != nil {
			return nil, err
		}
		return tx, nil
	}

	now := s.now().UTC()
	previousStatus := tx.Status

	applyGatewayDetail(tx, detail, s.loadPlatformCut(ctx))
	tx.Status = detail.Status
	tx.GatewayCompletedAt = detail.PaidAt
	if tx.Status == entity.StatusPaid && tx.PaidAt == nil {
		if detail.PaidAt != nil {
			tx.PaidAt = detail.PaidAt
		} else {
			tx.PaidAt = &now
		}
	}
	tx.UpdatedAt = now

	if err := s.transactions.Update(ctx, tx); err != nil {
		return nil, err
	}

	if tx.Status != previousStatus && entity.IsTerminalStatus(tx.Status) {
		s.notify(ctx, tx)
	}

	return tx, nil
}

func (s *SyncService) fetchDetail(ctx context.Context, tx *entity.Transaction) (*gateway.Detail, error) {
	detail, err := s.gateway.FetchDetail(ctx, tx.Amount, tx.GatewayOrderID)
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("detail", "error").Inc()
		s.logger.WithError(err).WithField("transaction_id", tx.ID).Error("gateway detail fetch failed")
		return nil, ErrGatewayFailure
	}
	metrics.GatewayRequests.WithLabelValues("detail", "ok").Inc()
	return detail, nil
}

func (s *SyncService) loadPlatformCut(ctx context.Context) int64 {
	cfg, err := s.platform.Get(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to load platform config, platform share defaults to zero")
		return 0
	}
	return cfg.PlatformFee
}

func (s *SyncService) notify(ctx context.Context, tx *entity.Transaction) {
	project, err := s.projects.FindByID(ctx, tx.ProjectID)
	if err != nil {
		s.logger.WithError(err).WithField("project_id", tx.ProjectID).Error("failed to load project for webhook delivery")
		return
	}
	if project == nil {
		s.logger.WithField("project_id", tx.ProjectID).Error("transaction references unknown project")
		return
	}
	s.dispatcher.Dispatch(ctx, project, tx)
}
