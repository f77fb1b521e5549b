package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arena-pay/arena_pay/internal/ledger"
	"github.com/arena-pay/arena_pay/internal/money"
)

func newFixture(t *testing.T, pageSize int) (*Service, *ledger.Service, ledger.Store) {
	t.Helper()
	store := ledger.NewInMemoryStore()
	ledgerSvc := ledger.NewService(store, ledger.Bounds{})
	return NewService(ledgerSvc, ledger.NewStatsReader(store), pageSize), ledgerSvc, store
}

func TestProvisionIsIdempotentPerOwner(t *testing.T) {
	svc, _, _ := newFixture(t, 0)
	ctx := context.Background()

	first, err := svc.Provision(ctx, "owner-1")
	require.NoError(t, err)
	require.Equal(t, ledger.AccountStatusActive, first.Status)
	require.Equal(t, money.Amount(0), first.Balance)

	again, err := svc.Provision(ctx, "owner-1")
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
}

func TestBalanceReflectsLedger(t *testing.T) {
	svc, ledgerSvc, _ := newFixture(t, 0)
	ctx := context.Background()

	account, err := svc.Provision(ctx, "owner-1")
	require.NoError(t, err)
	_, err = ledgerSvc.Deposit(ctx, ledger.DepositInput{AccountID: account.ID, Amount: 7_500})
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, money.Amount(7_500), balance.Amount)
	require.False(t, balance.AsOf.IsZero())
}

func TestHistoryAppliesDefaultPageSize(t *testing.T) {
	svc, ledgerSvc, _ := newFixture(t, 3)
	ctx := context.Background()

	account, err := svc.Provision(ctx, "owner-1")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := ledgerSvc.Deposit(ctx, ledger.DepositInput{AccountID: account.ID, Amount: 100})
		require.NoError(t, err)
	}

	page, err := svc.History(ctx, account.ID, ledger.EntryFilter{})
	require.NoError(t, err)
	require.Equal(t, 3, page.PageSize)
	require.Len(t, page.Entries, 3)
	require.Equal(t, 5, page.Total)
}

func TestStatsDelegatesToReader(t *testing.T) {
	svc, ledgerSvc, _ := newFixture(t, 0)
	ctx := context.Background()

	account, err := svc.Provision(ctx, "owner-1")
	require.NoError(t, err)
	_, err = ledgerSvc.Deposit(ctx, ledger.DepositInput{AccountID: account.ID, Amount: 4_000})
	require.NoError(t, err)
	_, err = ledgerSvc.Withdraw(ctx, ledger.WithdrawInput{AccountID: account.ID, Amount: 1_500})
	require.NoError(t, err)

	summary, err := svc.Stats(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, money.Amount(4_000), summary.Income)
	require.Equal(t, money.Amount(1_500), summary.Expense)
	require.Equal(t, money.Amount(2_500), summary.Net)
}

func TestFreezeAndUnfreeze(t *testing.T) {
	svc, ledgerSvc, _ := newFixture(t, 0)
	ctx := context.Background()

	account, err := svc.Provision(ctx, "owner-1")
	require.NoError(t, err)
	require.NoError(t, svc.Freeze(ctx, account.ID))

	_, err = ledgerSvc.Deposit(ctx, ledger.DepositInput{AccountID: account.ID, Amount: 100})
	require.ErrorIs(t, err, ledger.ErrAccountLocked)

	require.NoError(t, svc.Unfreeze(ctx, account.ID))
	_, err = ledgerSvc.Deposit(ctx, ledger.DepositInput{AccountID: account.ID, Amount: 100})
	require.NoError(t, err)
}
