package wallet

import (
	"context"
	"time"

	"github.com/arena-pay/arena_pay/internal/ledger"
	"github.com/arena-pay/arena_pay/internal/money"
)

// Service exposes wallet provisioning and read-only projections over the
// ledger. All balance-changing operations live behind the ledger service;
// callers of this package only ever see copies.
type Service struct {
	ledger          *ledger.Service
	stats           *ledger.StatsReader
	defaultPageSize int
}

// NewService builds a wallet service instance.
func NewService(ledgerSvc *ledger.Service, stats *ledger.StatsReader, defaultPageSize int) *Service {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	return &Service{ledger: ledgerSvc, stats: stats, defaultPageSize: defaultPageSize}
}

// Provision lazily creates the wallet account for an owner and returns it.
// Calling it again for the same owner returns the existing account.
func (s *Service) Provision(ctx context.Context, ownerID string) (ledger.Account, error) {
	return s.ledger.EnsureAccount(ctx, ownerID)
}

// Get retrieves account metadata.
func (s *Service) Get(ctx context.Context, accountID string) (ledger.Account, error) {
	return s.ledger.GetAccount(ctx, accountID)
}

// Balance encapsulates available funds for an account at a point in time.
type Balance struct {
	AccountID string
	Amount    money.Amount
	AsOf      time.Time
}

// Balance returns the current ledger balance for the account.
func (s *Service) Balance(ctx context.Context, accountID string) (Balance, error) {
	amount, err := s.ledger.GetBalance(ctx, accountID)
	if err != nil {
		return Balance{}, err
	}
	return Balance{AccountID: accountID, Amount: amount, AsOf: time.Now().UTC()}, nil
}

// History pages through the account's entries, newest first. A missing page
// size falls back to the configured default.
func (s *Service) History(ctx context.Context, accountID string, filter ledger.EntryFilter) (ledger.EntryPage, error) {
	if filter.PageSize <= 0 {
		filter.PageSize = s.defaultPageSize
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	return s.ledger.GetHistory(ctx, accountID, filter)
}

// Stats aggregates the account's completed entries.
func (s *Service) Stats(ctx context.Context, accountID string) (ledger.StatsSummary, error) {
	return s.stats.Summary(ctx, accountID)
}

// Freeze locks the account against all mutations.
func (s *Service) Freeze(ctx context.Context, accountID string) error {
	return s.ledger.Freeze(ctx, accountID)
}

// Unfreeze reactivates a locked account.
func (s *Service) Unfreeze(ctx context.Context, accountID string) error {
	return s.ledger.Unfreeze(ctx, accountID)
}
