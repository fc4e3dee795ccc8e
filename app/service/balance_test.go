package service

import (
	"context"
	"testing"
	"time"

	"github.com/bayarqu/ms-go-paybridge/app/entity"
)

func seedPaid(repo *fakeTransactionRepo, projectID uint64, amount, fee int64, paidAt time.Time) {
	repo.seed(&entity.Transaction{
		ProjectID:    projectID,
		Status:       entity.StatusPaid,
		Amount:       amount,
		Fee:          fee,
		TotalPayment: amount,
		PaidAt:       &paidAt,
		CreatedAt:    paidAt,
		UpdatedAt:    paidAt,
	})
}

func TestBalanceAppliesMaturityWindow(t *testing.T) {
	transactions := newFakeTransactionRepo()
	withdrawals := &fakeWithdrawalRepo{}
	svc := newBalanceService(transactions, withdrawals)

	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	// Settled 25h ago: matured. Settled 23h ago: still locked.
	seedPaid(transactions, 1, 100000, 2500, now.Add(-25*time.Hour))
	seedPaid(transactions, 1, 50000, 1500, now.Add(-23*time.Hour))

	balance, err := svc.Summarize(context.Background(), 1)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	if want := int64(97500 + 48500); balance.Total != want {
		t.Fatalf("total = %d, want %d", balance.Total, want)
	}
	if balance.Withdrawable != 97500 {
		t.Fatalf("withdrawable = %d, want 97500", balance.Withdrawable)
	}
}

func TestBalanceIgnoresNonPaidTransactions(t *testing.T) {
	transactions := newFakeTransactionRepo()
	old := time.Now().UTC().Add(-48 * time.Hour)
	transactions.seed(&entity.Transaction{ProjectID: 1, Status: entity.StatusPending, Amount: 80000, CreatedAt: old, UpdatedAt: old})
	transactions.seed(&entity.Transaction{ProjectID: 1, Status: entity.StatusExpired, Amount: 80000, CreatedAt: old, UpdatedAt: old})

	svc := newBalanceService(transactions, &fakeWithdrawalRepo{})

	balance, err := svc.Summarize(context.Background(), 1)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if balance.Total != 0 || balance.Withdrawable != 0 {
		t.Fatalf("balance = %+v, want zero", balance)
	}
}

func TestBalanceReservationsReduceOnlyWithdrawable(t *testing.T) {
	transactions := newFakeTransactionRepo()
	withdrawals := &fakeWithdrawalRepo{}
	svc := newBalanceService(transactions, withdrawals)

	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	seedPaid(transactions, 1, 300000, 7500, now.Add(-48*time.Hour))

	ctx := context.Background()
	_ = withdrawals.Create(ctx, &entity.Withdrawal{ProjectID: 1, Status: entity.WithdrawalStatusPending, AmountGross: 100000})
	_ = withdrawals.Create(ctx, &entity.Withdrawal{ProjectID: 1, Status: entity.WithdrawalStatusCompleted, AmountGross: 50000})
	// Rejected withdrawals release their reservation.
	_ = withdrawals.Create(ctx, &entity.Withdrawal{ProjectID: 1, Status: entity.WithdrawalStatusRejected, AmountGross: 70000})

	balance, err := svc.Summarize(ctx, 1)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	// Total is the plain sum of nets; reservations never touch it.
	if balance.Total != 292500 {
		t.Fatalf("total = %d, want 292500", balance.Total)
	}
	if want := int64(292500 - 150000); balance.Withdrawable != want {
		t.Fatalf("withdrawable = %d, want %d", balance.Withdrawable, want)
	}
}

func TestBalanceTotalUnaffectedByPendingWithdrawal(t *testing.T) {
	transactions := newFakeTransactionRepo()
	withdrawals := &fakeWithdrawalRepo{}
	svc := newBalanceService(transactions, withdrawals)

	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	seedPaid(transactions, 1, 100000, 2500, now.Add(-48*time.Hour))
	_ = withdrawals.Create(context.Background(), &entity.Withdrawal{ProjectID: 1, Status: entity.WithdrawalStatusPending, AmountGross: 50000})

	balance, err := svc.Summarize(context.Background(), 1)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if balance.Total != 97500 {
		t.Fatalf("total = %d, want the full 97500", balance.Total)
	}
	if balance.Withdrawable != 47500 {
		t.Fatalf("withdrawable = %d, want 47500", balance.Withdrawable)
	}
}

func TestBalanceNeverGoesNegative(t *testing.T) {
	transactions := newFakeTransactionRepo()
	withdrawals := &fakeWithdrawalRepo{}
	_ = withdrawals.Create(context.Background(), &entity.Withdrawal{ProjectID: 1, Status: entity.WithdrawalStatusPending, AmountGross: 999999})

	svc := newBalanceService(transactions, withdrawals)

	balance, err := svc.Summarize(context.Background(), 1)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if balance.Total != 0 || balance.Withdrawable != 0 {
		t.Fatalf("balance = %+v, want clamped to zero", balance)
	}
}
