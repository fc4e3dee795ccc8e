package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
	"github.com/bayarqu/ms-go-paybridge/app/factory"
	"github.com/bayarqu/ms-go-paybridge/app/repository"
	"github.com/bayarqu/ms-go-paybridge/config"
)

type withdrawalRepository interface {
	Create(ctx context.Context, w *entity.Withdrawal) error
	ListForProject(ctx context.Context, projectID uint64, limit int32) ([]*entity.Withdrawal, error)
	UpdateStatus(ctx context.Context, id uint64, status string, processedAt *time.Time, now time.Time) error
}

const withdrawalListLimit = 100

// WithdrawalService books payout requests against the withdrawable balance.
// A created withdrawal immediately reserves its gross amount; only a rejected
// withdrawal releases it.
type WithdrawalService struct {
	withdrawals withdrawalRepository
	balances    *BalanceService
	minAmount   int64
	flatFee     int64
	logger      logrus.FieldLogger
	now         func() time.Time
}

func NewWithdrawalService(withdrawals *repository.WithdrawalRepository, balances *BalanceService, cfg config.WithdrawalsConfig) *WithdrawalService {
	return newWithdrawalService(withdrawals, balances, cfg)
}

func newWithdrawalService(withdrawals withdrawalRepository, balances *BalanceService, cfg config.WithdrawalsConfig) *WithdrawalService {
	minAmount := cfg.MinAmount
	if minAmount <= 0 {
		minAmount = 100000
	}
	flatFee := cfg.FlatFee
	if flatFee < 0 {
		flatFee = 0
	}

	return &WithdrawalService{
		withdrawals: withdrawals,
		balances:    balances,
		minAmount:   minAmount,
		flatFee:     flatFee,
		logger:      factory.NewModuleLogger("withdrawals-service"),
		now:         time.Now,
	}
}

func (s *WithdrawalService) Request(ctx context.Context, project *entity.Project, amount int64) (*entity.Withdrawal, error) {
	if amount < s.minAmount {
		return nil, ErrWithdrawalBelowMinimum
	}
	if !project.HasPayoutAccount() {
		return nil, ErrPayoutAccountNotSet
	}

	balance, err := s.balances.Summarize(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	if amount > balance.Withdrawable {
		return nil, ErrInsufficientBalance
	}

	now := s.now().UTC()
	w := &entity.Withdrawal{
		ProjectID:           project.ID,
		Status:              entity.WithdrawalStatusPending,
		AmountGross:         amount,
		AmountFee:           s.flatFee,
		AmountNet:           amount - s.flatFee,
		PayoutBankName:      *project.PayoutBankName,
		PayoutAccountName:   *project.PayoutAccountName,
		PayoutAccountNumber: *project.PayoutAccountNumber,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.withdrawals.Create(ctx, w); err != nil {
		s.logger.WithError(err).WithField("project_id", project.ID).Error("failed to persist withdrawal")
		return nil, err
	}

	return w, nil
}

func (s *WithdrawalService) List(ctx context.Context, projectID uint64) ([]*entity.Withdrawal, error) {
	return s.withdrawals.ListForProject(ctx, projectID, withdrawalListLimit)
}

// UpdateStatus moves a withdrawal forward through its lifecycle. Completed
// and rejected withdrawals get their processing timestamp stamped.
func (s *WithdrawalService) UpdateStatus(ctx context.Context, id uint64, status string) error {
	switch status {
	case entity.WithdrawalStatusPending, entity.WithdrawalStatusProcessing,
		entity.WithdrawalStatusCompleted, entity.WithdrawalStatusRejected:
	default:
		return ErrInvalidRequest
	}

	now := s.now().UTC()
	var processedAt *time.Time
	if status == entity.WithdrawalStatusCompleted || status == entity.WithdrawalStatusRejected {
		processedAt = &now
	}

	if err := s.withdrawals.UpdateStatus(ctx, id, status, processedAt, now); err != nil {
		if err == repository.ErrWithdrawalNotFound {
			return ErrWithdrawalNotFound
		}
		return err
	}
	return nil
}
