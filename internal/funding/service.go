package funding

import (
	"context"
	"time"

	"github.com/arena-pay/arena_pay/internal/ledger"
	"github.com/arena-pay/arena_pay/internal/money"
)

// Service coordinates deposits into and withdrawals out of wallet accounts.
// Funds are modeled as already settled at the ledger boundary: by the time a
// request reaches this service an upstream processor has confirmed the money
// movement.
type Service struct {
	ledger *ledger.Service
}

// NewService builds a funding service over the ledger.
func NewService(ledgerSvc *ledger.Service) *Service {
	return &Service{ledger: ledgerSvc}
}

// DepositInput captures the data required to credit an account.
type DepositInput struct {
	AccountID     string
	Amount        money.Amount
	ReferenceCode string
	Note          string
}

// WithdrawInput captures the data required to debit an account.
type WithdrawInput struct {
	AccountID     string
	Amount        money.Amount
	ReferenceCode string
	Note          string
}

// Result describes the domain outcome of a funding operation.
type Result struct {
	Balance     money.Amount
	Entry       ledger.Entry
	CompletedAt time.Time
}

// Deposit credits the account with settled funds.
func (s *Service) Deposit(ctx context.Context, input DepositInput) (Result, error) {
	res, err := s.ledger.Deposit(ctx, ledger.DepositInput{
		AccountID:     input.AccountID,
		Amount:        input.Amount,
		ReferenceCode: input.ReferenceCode,
		Note:          input.Note,
	})
	if err != nil {
		return Result{Balance: res.Balance, Entry: res.Entry}, err
	}
	return Result{Balance: res.Balance, Entry: res.Entry, CompletedAt: time.Now().UTC()}, nil
}

// Withdraw debits the account, provided it holds sufficient funds.
func (s *Service) Withdraw(ctx context.Context, input WithdrawInput) (Result, error) {
	res, err := s.ledger.Withdraw(ctx, ledger.WithdrawInput{
		AccountID:     input.AccountID,
		Amount:        input.Amount,
		ReferenceCode: input.ReferenceCode,
		Note:          input.Note,
	})
	if err != nil {
		return Result{Balance: res.Balance, Entry: res.Entry}, err
	}
	return Result{Balance: res.Balance, Entry: res.Entry, CompletedAt: time.Now().UTC()}, nil
}
