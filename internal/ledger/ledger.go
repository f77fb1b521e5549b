package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/arena-pay/arena_pay/internal/money"
)

var (
	// ErrInvalidAmount occurs when an operation amount is zero, negative or
	// outside the configured bounds.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds occurs when the source account lacks available
	// balance to cover a requested posting.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound indicates the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountLocked indicates the account is frozen and rejects all
	// mutating operations until reactivated.
	ErrAccountLocked = errors.New("account locked")

	// ErrInvalidOperation covers structurally invalid requests such as a
	// self-transfer or a withdrawal from a donation sink.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrDuplicateReference indicates the provided reference code was already
	// applied and therefore the operation should be treated as idempotent.
	ErrDuplicateReference = errors.New("duplicate reference code")

	// ErrAccountExists indicates a provisioning conflict for an owner.
	ErrAccountExists = errors.New("account already exists")

	// ErrEntryNotFound is returned by FindEntryByReference when no completed
	// entry matches the reference code.
	ErrEntryNotFound = errors.New("entry not found")
)

// Account statuses. Accounts are never deleted; a locked account keeps its
// history and balance but rejects mutations.
const (
	AccountStatusActive = "active"
	AccountStatusLocked = "locked"
)

// Account kinds. Sink accounts collect donations for a related entity
// (tournament or team prize pool) and can never be a debit source.
const (
	AccountKindUser = "user"
	AccountKindSink = "sink"
)

// Entry types.
const (
	EntryTypeDeposit          = "deposit"
	EntryTypeWithdrawal       = "withdrawal"
	EntryTypeTransferOut      = "transfer_out"
	EntryTypeTransferIn       = "transfer_in"
	EntryTypeDonation         = "donation"
	EntryTypeDonationReceived = "donation_received"
)

// Entry statuses. Failed entries record rejected attempts for audit and carry
// no balance effect.
const (
	EntryStatusCompleted = "completed"
	EntryStatusFailed    = "failed"
)

// Account is one wallet balance record. The balance always equals the sum of
// the amounts of this account's completed entries.
type Account struct {
	ID        string
	OwnerID   string
	Kind      string
	Balance   money.Amount
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Entry is an immutable record of one attempted balance change. Corrections
// are modeled as new entries, never edits.
type Entry struct {
	ID                    string
	AccountID             string
	Type                  string
	Amount                money.Amount
	BalanceAfter          money.Amount
	Status                string
	ReferenceCode         string
	CounterpartyAccountID string
	RelatedEntityType     string
	RelatedEntityID       string
	Note                  string
	CreatedAt             time.Time
}

// EntryFilter narrows a history query. Zero values mean no constraint.
type EntryFilter struct {
	From          time.Time
	To            time.Time
	Type          string
	IncludeFailed bool
	Page          int
	PageSize      int
}

// EntryPage is one page of history, newest first.
type EntryPage struct {
	Entries  []Entry
	Page     int
	PageSize int
	Total    int
}

// Store persists accounts and their append-only entry log. Apply must write
// the provided account updates and entries as a single atomic unit: either
// everything commits or nothing does.
type Store interface {
	CreateAccount(ctx context.Context, account Account) error
	GetAccount(ctx context.Context, id string) (Account, error)
	GetAccountByOwner(ctx context.Context, ownerID string) (Account, error)
	SetAccountStatus(ctx context.Context, id, status string) error
	Apply(ctx context.Context, accounts []Account, entries []Entry) error
	FindEntryByReference(ctx context.Context, referenceCode, entryType string) (Entry, error)
	ListEntries(ctx context.Context, accountID string, filter EntryFilter) (EntryPage, error)
}
