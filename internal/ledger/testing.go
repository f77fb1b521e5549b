package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/arena-pay/arena_pay/internal/money"
)

// SeedBalance is a test helper that funds an account directly through the
// store, bypassing deposit bounds. It writes a completed deposit entry along
// with the balance update so the reconciliation invariant still holds.
func SeedBalance(ctx context.Context, store Store, accountID string, amount money.Amount) error {
	account, err := store.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	account.Balance += amount
	account.UpdatedAt = now
	entry := Entry{
		ID:            uuid.NewString(),
		AccountID:     account.ID,
		Type:          EntryTypeDeposit,
		Amount:        amount,
		BalanceAfter:  account.Balance,
		Status:        EntryStatusCompleted,
		ReferenceCode: uuid.NewString(),
		Note:          "seed",
		CreatedAt:     now,
	}
	return store.Apply(ctx, []Account{account}, []Entry{entry})
}
