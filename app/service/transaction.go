package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
	"github.com/bayarqu/ms-go-paybridge/app/factory"
	"github.com/bayarqu/ms-go-paybridge/app/fee"
	"github.com/bayarqu/ms-go-paybridge/app/gateway"
	"github.com/bayarqu/ms-go-paybridge/app/metrics"
	"github.com/bayarqu/ms-go-paybridge/app/repository"
	"github.com/bayarqu/ms-go-paybridge/app/types"
)

type transactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	Update(ctx context.Context, tx *entity.Transaction) error
	FindByID(ctx context.Context, id uint64) (*entity.Transaction, error)
	FindByIDForProject(ctx context.Context, id, projectID uint64) (*entity.Transaction, error)
	FindByGatewayOrderID(ctx context.Context, orderID string) (*entity.Transaction, error)
	List(ctx context.Context, filter repository.TransactionFilter) ([]*entity.Transaction, error)
	Count(ctx context.Context, projectID uint64, status string) (int64, error)
	ListStalePending(ctx context.Context, before time.Time, limit int32) ([]*entity.Transaction, error)
}

type platformConfigRepository interface {
	Get(ctx context.Context) (*entity.PlatformConfig, error)
}

type gatewayClient interface {
	CreateTransaction(ctx context.Context, in *gateway.CreateInput) (*gateway.Detail, error)
	FetchDetail(ctx context.Context, amount int64, orderID string) (*gateway.Detail, error)
}

// TransactionService owns the creation and read paths of the transaction
// lifecycle. Status transitions after creation belong to SyncService.
type TransactionService struct {
	transactions transactionRepository
	platform     platformConfigRepository
	gateway      gatewayClient
	callbackURL  string
	logger       logrus.FieldLogger
	now          func() time.Time
	newSuffix    func() string
}

func NewTransactionService(
	transactions *repository.TransactionRepository,
	platform *repository.PlatformConfigRepository,
	gw *gateway.Client,
	appBaseURL string,
) *TransactionService {
	return newTransactionService(transactions, platform, gw, appBaseURL)
}

func newTransactionService(
	transactions transactionRepository,
	platform platformConfigRepository,
	gw gatewayClient,
	appBaseURL string,
) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		platform:     platform,
		gateway:      gw,
		callbackURL:  strings.TrimRight(strings.TrimSpace(appBaseURL), "/") + "/api/v1/internal/gateway/callback",
		logger:       factory.NewModuleLogger("transactions-service"),
		now:          time.Now,
		newSuffix:    randomOrderSuffix,
	}
}

// Create opens a payment on the gateway and persists the resulting
// transaction. The caller is expected to hold the idempotency lease for this
// request; Create itself performs the effect exactly once per call.
func (s *TransactionService) Create(ctx context.Context, project *entity.Project, req *types.CreateTransactionRequest) (*entity.Transaction, error) {
	now := s.now().UTC()
	orderID := s.buildOrderID(project.AppSlug, now)

	detail, err := s.gateway.CreateTransaction(ctx, &gateway.CreateInput{
		Method:      req.Method,
		Amount:      req.Amount,
		OrderID:     orderID,
		PayerName:   req.CustomerName,
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		metrics.GatewayRequests.WithLabelValues("create", "error").Inc()
		s.logger.WithError(err).WithFields(logrus.Fields{
			"project_id": project.ID,
			"order_id":   orderID,
		}).Error("gateway create failed")
		return nil, ErrGatewayFailure
	}
	metrics.GatewayRequests.WithLabelValues("create", "ok").Inc()

	tx := &entity.Transaction{
		ProjectID:      project.ID,
		ExternalID:     req.ExternalID,
		GatewayOrderID: orderID,
		Method:         req.Method,
		Status:         entity.StatusPending,
		Amount:         req.Amount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.applyDetail(ctx, tx, detail)

	if err := s.transactions.Create(ctx, tx); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Error("failed to persist transaction")
		return nil, err
	}

	return tx, nil
}

func (s *TransactionService) Get(ctx context.Context, projectID, id uint64) (*entity.Transaction, error) {
	tx, err := s.transactions.FindByIDForProject(ctx, id, projectID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

func (s *TransactionService) List(ctx context.Context, projectID uint64, req *types.ListTransactionsRequest) ([]*entity.Transaction, int64, error) {
	items, err := s.transactions.List(ctx, repository.TransactionFilter{
		ProjectID: projectID,
		Status:    req.Status,
		Limit:     req.PerPage,
		Offset:    req.Offset(),
	})
	if err != nil {
		return nil, 0, err
	}

	total, err := s.transactions.Count(ctx, projectID, req.Status)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (s *TransactionService) applyDetail(ctx context.Context, tx *entity.Transaction, detail *gateway.Detail) {
	applyGatewayDetail(tx, detail, s.loadPlatformCut(ctx))
}

func (s *TransactionService) loadPlatformCut(ctx context.Context) int64 {
	cfg, err := s.platform.Get(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("failed to load platform config, platform share defaults to zero")
		return 0
	}
	return cfg.PlatformFee
}

// applyGatewayDetail copies the instrument fields from a gateway payload onto
// a transaction. The money figures are never taken from the gateway: the fee
// is recomputed locally from the method table and the charged total is always
// the request amount, so a gateway reporting amount plus fee as its total
// cannot inflate the ledger. Instrument fields are only ever filled in, never
// cleared.
func applyGatewayDetail(tx *entity.Transaction, detail *gateway.Detail, platformCut int64) {
	computedFee := fee.Compute(tx.Method, tx.Amount)
	tx.Fee = computedFee
	tx.PlatformShare, tx.ProviderShare = fee.Split(computedFee, platformCut)
	tx.TotalPayment = tx.Amount

	if detail == nil {
		return
	}

	if detail.PaymentNumber != nil {
		tx.PaymentNumber = detail.PaymentNumber
	}
	if detail.QRString != nil {
		tx.QRString = detail.QRString
	}
	if detail.QRImageURL != nil {
		tx.QRImageURL = detail.QRImageURL
	}
	if detail.ExpiredAt != nil {
		tx.ExpiredAt = detail.ExpiredAt
	}
	if detail.GatewayStatus != "" {
		gatewayStatus := detail.GatewayStatus
		tx.GatewayStatus = &gatewayStatus
	}
	if detail.Raw != nil {
		tx.GatewayRaw = detail.Raw
	}
}

// buildOrderID yields a gateway order id that is unique per creation attempt:
// the project slug, the creation instant, and a random suffix. A retry under
// the same idempotency key still produces a fresh order id, which is what the
// gateway requires.
func (s *TransactionService) buildOrderID(appSlug string, now time.Time) string {
	slug := strings.TrimSpace(appSlug)
	if slug == "" {
		slug = "tx"
	}
	return slug + "-" + strconv.FormatInt(now.UnixMilli(), 36) + "-" + s.newSuffix()
}

func randomOrderSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:5]
}
