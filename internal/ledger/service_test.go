package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arena-pay/arena_pay/internal/money"
)

func newTestService(t *testing.T) (*Service, Store) {
	t.Helper()
	store := NewInMemoryStore()
	return NewService(store, Bounds{}), store
}

func mustAccount(t *testing.T, svc *Service, owner string) Account {
	t.Helper()
	account, err := svc.EnsureAccount(context.Background(), owner)
	require.NoError(t, err)
	return account
}

// reconcile asserts that the balance equals the sum of completed entry
// amounts.
func reconcile(t *testing.T, store Store, accountID string) {
	t.Helper()
	ctx := context.Background()
	account, err := store.GetAccount(ctx, accountID)
	require.NoError(t, err)
	page, err := store.ListEntries(ctx, accountID, EntryFilter{})
	require.NoError(t, err)
	var sum money.Amount
	for _, entry := range page.Entries {
		sum += entry.Amount
	}
	require.Equal(t, account.Balance, sum, "balance must equal the sum of completed entries")
}

func TestDepositIntoNewAccount(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	account := mustAccount(t, svc, "user-1")

	res, err := svc.Deposit(ctx, DepositInput{AccountID: account.ID, Amount: 100_000})
	require.NoError(t, err)
	require.Equal(t, money.Amount(100_000), res.Balance)
	require.Equal(t, EntryTypeDeposit, res.Entry.Type)
	require.Equal(t, money.Amount(100_000), res.Entry.Amount)
	require.Equal(t, money.Amount(100_000), res.Entry.BalanceAfter)
	require.Equal(t, EntryStatusCompleted, res.Entry.Status)

	page, err := svc.GetHistory(ctx, account.ID, EntryFilter{})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	reconcile(t, store, account.ID)
}

func TestDepositRejectsInvalidAmount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	account := mustAccount(t, svc, "user-1")

	_, err := svc.Deposit(ctx, DepositInput{AccountID: account.ID, Amount: 0})
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.Deposit(ctx, DepositInput{AccountID: account.ID, Amount: -500})
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDepositBounds(t *testing.T) {
	store := NewInMemoryStore()
	svc := NewService(store, Bounds{DepositMin: 100, DepositMax: 10_000})
	ctx := context.Background()
	account := mustAccount(t, svc, "user-1")

	_, err := svc.Deposit(ctx, DepositInput{AccountID: account.ID, Amount: 50})
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.Deposit(ctx, DepositInput{AccountID: account.ID, Amount: 50_000})
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.Deposit(ctx, DepositInput{AccountID: account.ID, Amount: 5_000})
	require.NoError(t, err)
}

func TestWithdrawInsufficientFundsLeavesBalanceUntouched(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	account := mustAccount(t, svc, "user-1")
	_, err := svc.Deposit(ctx, DepositInput{AccountID: account.ID, Amount: 100_000})
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, WithdrawInput{AccountID: account.ID, Amount: 150_000})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	balance, err := svc.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, money.Amount(100_000), balance)
	reconcile(t, store, account.ID)
}

func TestWithdrawRecordsFailedAttempt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	account := mustAccount(t, svc, "user-1")

	_, err := svc.Withdraw(ctx, WithdrawInput{AccountID: account.ID, Amount: 1_000})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	page, err := svc.GetHistory(ctx, account.ID, EntryFilter{IncludeFailed: true})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	require.Equal(t, EntryStatusFailed, page.Entries[0].Status)
	require.Equal(t, money.Amount(-1_000), page.Entries[0].Amount)

	// Failed attempts are hidden from the default history view.
	page, err = svc.GetHistory(ctx, account.ID, EntryFilter{})
	require.NoError(t, err)
	require.Empty(t, page.Entries)
}

func TestTransferMovesFundsAtomically(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	a := mustAccount(t, svc, "alice")
	b := mustAccount(t, svc, "bob")
	_, err := svc.Deposit(ctx, DepositInput{AccountID: a.ID, Amount: 100_000})
	require.NoError(t, err)

	outcome, err := svc.Transfer(ctx, TransferInput{SourceAccountID: a.ID, DestAccountID: b.ID, Amount: 50_000})
	require.NoError(t, err)
	require.Equal(t, money.Amount(50_000), outcome.SourceBalance)
	require.Equal(t, money.Amount(50_000), outcome.DestBalance)

	require.Equal(t, outcome.SourceEntry.ReferenceCode, outcome.DestEntry.ReferenceCode)
	require.Equal(t, EntryTypeTransferOut, outcome.SourceEntry.Type)
	require.Equal(t, EntryTypeTransferIn, outcome.DestEntry.Type)
	require.Equal(t, money.Amount(-50_000), outcome.SourceEntry.Amount)
	require.Equal(t, money.Amount(50_000), outcome.DestEntry.Amount)
	require.Equal(t, b.ID, outcome.SourceEntry.CounterpartyAccountID)
	require.Equal(t, a.ID, outcome.DestEntry.CounterpartyAccountID)

	// Conservation across the pair.
	balA, _ := svc.GetBalance(ctx, a.ID)
	balB, _ := svc.GetBalance(ctx, b.ID)
	require.Equal(t, money.Amount(100_000), balA+balB)

	reconcile(t, store, a.ID)
	reconcile(t, store, b.ID)
}

func TestTransferRejectsSelfTransfer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := mustAccount(t, svc, "alice")

	_, err := svc.Transfer(ctx, TransferInput{SourceAccountID: a.ID, DestAccountID: a.ID, Amount: 100})
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestTransferInsufficientFunds(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := mustAccount(t, svc, "alice")
	b := mustAccount(t, svc, "bob")

	_, err := svc.Transfer(ctx, TransferInput{SourceAccountID: a.ID, DestAccountID: b.ID, Amount: 1_000})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	balB, err := svc.GetBalance(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, money.Amount(0), balB)
}

func TestTransferToUnknownAccount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := mustAccount(t, svc, "alice")
	_, err := svc.Deposit(ctx, DepositInput{AccountID: a.ID, Amount: 1_000})
	require.NoError(t, err)

	_, err = svc.Transfer(ctx, TransferInput{SourceAccountID: a.ID, DestAccountID: "missing", Amount: 100})
	require.ErrorIs(t, err, ErrAccountNotFound)

	balance, err := svc.GetBalance(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, money.Amount(1_000), balance)
}

func TestDonationIntoSink(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	a := mustAccount(t, svc, "alice")
	_, err := svc.Deposit(ctx, DepositInput{AccountID: a.ID, Amount: 20_000})
	require.NoError(t, err)

	outcome, err := svc.Donate(ctx, DonationInput{
		SourceAccountID: a.ID,
		TargetType:      "tournament",
		TargetID:        "7",
		Amount:          20_000,
		Message:         "good luck",
	})
	require.NoError(t, err)
	require.Equal(t, money.Amount(0), outcome.SourceBalance)
	require.Equal(t, money.Amount(20_000), outcome.DestBalance)
	require.Equal(t, EntryTypeDonation, outcome.SourceEntry.Type)
	require.Equal(t, EntryTypeDonationReceived, outcome.DestEntry.Type)
	require.Equal(t, "tournament", outcome.SourceEntry.RelatedEntityType)
	require.Equal(t, "7", outcome.SourceEntry.RelatedEntityID)

	sink, err := store.GetAccountByOwner(ctx, SinkOwnerID("tournament", "7"))
	require.NoError(t, err)
	require.Equal(t, AccountKindSink, sink.Kind)
	require.Equal(t, money.Amount(20_000), sink.Balance)
	reconcile(t, store, sink.ID)
}

func TestSinkIsNonWithdrawable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := mustAccount(t, svc, "alice")
	_, err := svc.Deposit(ctx, DepositInput{AccountID: a.ID, Amount: 5_000})
	require.NoError(t, err)
	_, err = svc.Donate(ctx, DonationInput{SourceAccountID: a.ID, TargetType: "team", TargetID: "3", Amount: 5_000})
	require.NoError(t, err)

	sink, err := svc.EnsureSink(ctx, "team", "3")
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, WithdrawInput{AccountID: sink.ID, Amount: 1_000})
	require.ErrorIs(t, err, ErrInvalidOperation)

	_, err = svc.Transfer(ctx, TransferInput{SourceAccountID: sink.ID, DestAccountID: a.ID, Amount: 1_000})
	require.ErrorIs(t, err, ErrInvalidOperation)

	_, err = svc.Deposit(ctx, DepositInput{AccountID: sink.ID, Amount: 1_000})
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestTransferIntoSinkRejected(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	a := mustAccount(t, svc, "alice")
	_, err := svc.Deposit(ctx, DepositInput{AccountID: a.ID, Amount: 5_000})
	require.NoError(t, err)
	_, err = svc.Donate(ctx, DonationInput{SourceAccountID: a.ID, TargetType: "team", TargetID: "3", Amount: 1_000})
	require.NoError(t, err)

	// Sink ids are visible to callers via counterparty_account_id in history.
	sink, err := svc.EnsureSink(ctx, "team", "3")
	require.NoError(t, err)

	_, err = svc.Transfer(ctx, TransferInput{SourceAccountID: a.ID, DestAccountID: sink.ID, Amount: 1_000})
	require.ErrorIs(t, err, ErrInvalidOperation)

	got, err := store.GetAccount(ctx, sink.ID)
	require.NoError(t, err)
	require.Equal(t, money.Amount(1_000), got.Balance)

	page, err := store.ListEntries(ctx, sink.ID, EntryFilter{})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	require.Equal(t, EntryTypeDonationReceived, page.Entries[0].Type)
}

func TestSinkTargetTypeRejectsSeparator(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	a := mustAccount(t, svc, "alice")
	_, err := svc.Deposit(ctx, DepositInput{AccountID: a.ID, Amount: 5_000})
	require.NoError(t, err)

	// "a:b"/"c" and "a"/"b:c" would otherwise share one owner key.
	_, err = svc.EnsureSink(ctx, "team:eu", "3")
	require.ErrorIs(t, err, ErrInvalidOperation)

	_, err = svc.Donate(ctx, DonationInput{SourceAccountID: a.ID, TargetType: "team:eu", TargetID: "3", Amount: 1_000})
	require.ErrorIs(t, err, ErrInvalidOperation)

	_, err = store.GetAccountByOwner(ctx, SinkOwnerID("team:eu", "3"))
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestLockedAccountRejectsMutations(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	account := mustAccount(t, svc, "user-1")
	_, err := svc.Deposit(ctx, DepositInput{AccountID: account.ID, Amount: 10_000})
	require.NoError(t, err)

	require.NoError(t, svc.Freeze(ctx, account.ID))

	_, err = svc.Deposit(ctx, DepositInput{AccountID: account.ID, Amount: 1_000})
	require.ErrorIs(t, err, ErrAccountLocked)
	_, err = svc.Withdraw(ctx, WithdrawInput{AccountID: account.ID, Amount: 1_000})
	require.ErrorIs(t, err, ErrAccountLocked)

	other := mustAccount(t, svc, "user-2")
	_, err = svc.Transfer(ctx, TransferInput{SourceAccountID: account.ID, DestAccountID: other.ID, Amount: 1_000})
	require.ErrorIs(t, err, ErrAccountLocked)

	// Reads stay available while frozen.
	balance, err := svc.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, money.Amount(10_000), balance)

	require.NoError(t, svc.Unfreeze(ctx, account.ID))
	_, err = svc.Deposit(ctx, DepositInput{AccountID: account.ID, Amount: 1_000})
	require.NoError(t, err)
}

func TestDepositIdempotentRetry(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	account := mustAccount(t, svc, "user-1")

	first, err := svc.Deposit(ctx, DepositInput{AccountID: account.ID, Amount: 2_500, ReferenceCode: "op-1"})
	require.NoError(t, err)

	replay, err := svc.Deposit(ctx, DepositInput{AccountID: account.ID, Amount: 2_500, ReferenceCode: "op-1"})
	require.ErrorIs(t, err, ErrDuplicateReference)
	require.Equal(t, first.Entry.ID, replay.Entry.ID)
	require.Equal(t, first.Balance, replay.Balance)

	balance, err := svc.GetBalance(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, money.Amount(2_500), balance)
	reconcile(t, store, account.ID)
}

func TestTransferIdempotentRetry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := mustAccount(t, svc, "alice")
	b := mustAccount(t, svc, "bob")
	_, err := svc.Deposit(ctx, DepositInput{AccountID: a.ID, Amount: 10_000})
	require.NoError(t, err)

	first, err := svc.Transfer(ctx, TransferInput{SourceAccountID: a.ID, DestAccountID: b.ID, Amount: 4_000, ReferenceCode: "tx-1"})
	require.NoError(t, err)

	replay, err := svc.Transfer(ctx, TransferInput{SourceAccountID: a.ID, DestAccountID: b.ID, Amount: 4_000, ReferenceCode: "tx-1"})
	require.ErrorIs(t, err, ErrDuplicateReference)
	require.Equal(t, first.SourceEntry.ID, replay.SourceEntry.ID)
	require.Equal(t, first.DestEntry.ID, replay.DestEntry.ID)

	balA, _ := svc.GetBalance(ctx, a.ID)
	balB, _ := svc.GetBalance(ctx, b.ID)
	require.Equal(t, money.Amount(6_000), balA)
	require.Equal(t, money.Amount(4_000), balB)
}

func TestFailedAttemptDoesNotBlockRetry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	account := mustAccount(t, svc, "user-1")

	_, err := svc.Withdraw(ctx, WithdrawInput{AccountID: account.ID, Amount: 1_000, ReferenceCode: "w-1"})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = svc.Deposit(ctx, DepositInput{AccountID: account.ID, Amount: 5_000})
	require.NoError(t, err)

	// The failed attempt left no completed entry, so the same reference code
	// may be retried.
	res, err := svc.Withdraw(ctx, WithdrawInput{AccountID: account.ID, Amount: 1_000, ReferenceCode: "w-1"})
	require.NoError(t, err)
	require.Equal(t, money.Amount(4_000), res.Balance)
}

func TestEnsureAccountIsLazyAndStable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.EnsureAccount(ctx, "owner-9")
	require.NoError(t, err)
	require.Equal(t, money.Amount(0), first.Balance)
	require.Equal(t, AccountStatusActive, first.Status)
	require.Equal(t, AccountKindUser, first.Kind)

	again, err := svc.EnsureAccount(ctx, "owner-9")
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
}
