package service

import (
	"context"
	"time"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
	"github.com/bayarqu/ms-go-paybridge/app/fee"
	"github.com/bayarqu/ms-go-paybridge/app/repository"
)

// maturityWindow is how long a paid transaction's funds stay unavailable for
// withdrawal after settlement.
const maturityWindow = 24 * time.Hour

type paidTransactionLister interface {
	ListPaidForProject(ctx context.Context, projectID uint64) ([]*entity.Transaction, error)
}

type reservedWithdrawalSummer interface {
	SumReserved(ctx context.Context, projectID uint64) (int64, error)
}

type Balance struct {
	// Total is everything the merchant has earned, net of fees. Outstanding
	// withdrawals do not reduce it.
	Total int64
	// Withdrawable is the matured portion of Total minus reserved
	// withdrawals.
	Withdrawable int64
}

// BalanceService derives a project's balance from its paid transactions and
// outstanding withdrawals. Balances are never stored; every read recomputes
// them from the ledger rows.
type BalanceService struct {
	transactions paidTransactionLister
	withdrawals  reservedWithdrawalSummer
	now          func() time.Time
}

func NewBalanceService(transactions *repository.TransactionRepository, withdrawals *repository.WithdrawalRepository) *BalanceService {
	return newBalanceService(transactions, withdrawals)
}

func newBalanceService(transactions paidTransactionLister, withdrawals reservedWithdrawalSummer) *BalanceService {
	return &BalanceService{
		transactions: transactions,
		withdrawals:  withdrawals,
		now:          time.Now,
	}
}

func (s *BalanceService) Summarize(ctx context.Context, projectID uint64) (*Balance, error) {
	paid, err := s.transactions.ListPaidForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	maturedBefore := s.now().UTC().Add(-maturityWindow)

	var total, matured int64
	for _, tx := range paid {
		net := fee.ReceivedAmount(tx.GrossReceived(), tx.Fee)
		total += net
		if !tx.SettledAt().After(maturedBefore) {
			matured += net
		}
	}

	reserved, err := s.withdrawals.SumReserved(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &Balance{
		Total:        clampNonNegative(total),
		Withdrawable: clampNonNegative(matured - reserved),
	}, nil
}

func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
