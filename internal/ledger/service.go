package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arena-pay/arena_pay/internal/money"
)

// Bounds constrains deposit and withdrawal amounts. A zero max means
// unbounded.
type Bounds struct {
	DepositMin    money.Amount
	DepositMax    money.Amount
	WithdrawalMin money.Amount
	WithdrawalMax money.Amount
}

// Service is the sole authority for balance-changing operations. Every
// mutation happens inside a per-account critical section, re-reads the
// current balance from the store, validates, and persists the updated
// account together with its entries as one atomic unit.
type Service struct {
	store  Store
	locks  *lockTable
	bounds Bounds
}

// NewService builds a ledger service over the provided store.
func NewService(store Store, bounds Bounds) *Service {
	return &Service{store: store, locks: newLockTable(), bounds: bounds}
}

// OperationResult describes the outcome of a single-account mutation.
type OperationResult struct {
	Balance money.Amount
	Entry   Entry
}

// TransferOutcome describes the outcome of a two-account mutation. Both legs
// share one reference code.
type TransferOutcome struct {
	ReferenceCode string
	SourceBalance money.Amount
	DestBalance   money.Amount
	SourceEntry   Entry
	DestEntry     Entry
}

// EnsureAccount provisions a wallet for the owner if one does not exist yet
// and returns it. Provisioning is lazy: the first balance-affecting reference
// to an owner creates the account with a zero balance.
func (s *Service) EnsureAccount(ctx context.Context, ownerID string) (Account, error) {
	return s.ensure(ctx, ownerID, AccountKindUser)
}

// EnsureSink provisions the donation sink collecting funds for the related
// entity, e.g. a tournament prize pool. Sinks are never a debit source.
func (s *Service) EnsureSink(ctx context.Context, entityType, entityID string) (Account, error) {
	if entityType == "" || entityID == "" {
		return Account{}, fmt.Errorf("%w: donation target is required", ErrInvalidOperation)
	}
	// The owner key joins the components with ":", so a ":" inside the type
	// would collapse distinct targets into one sink.
	if strings.Contains(entityType, ":") {
		return Account{}, fmt.Errorf("%w: donation target type must not contain %q", ErrInvalidOperation, ":")
	}
	return s.ensure(ctx, SinkOwnerID(entityType, entityID), AccountKindSink)
}

// SinkOwnerID derives the owner key under which a donation sink is stored.
func SinkOwnerID(entityType, entityID string) string {
	return fmt.Sprintf("sink:%s:%s", entityType, entityID)
}

func (s *Service) ensure(ctx context.Context, ownerID, kind string) (Account, error) {
	if ownerID == "" {
		return Account{}, fmt.Errorf("%w: owner id is required", ErrInvalidOperation)
	}
	if account, err := s.store.GetAccountByOwner(ctx, ownerID); err == nil {
		return account, nil
	} else if !errors.Is(err, ErrAccountNotFound) {
		return Account{}, err
	}

	now := time.Now().UTC()
	account := Account{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Kind:      kind,
		Balance:   0,
		Status:    AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, ErrAccountExists) {
			// Lost a provisioning race; the winner's account is the one.
			return s.store.GetAccountByOwner(ctx, ownerID)
		}
		return Account{}, err
	}
	return account, nil
}

// DepositInput captures a settled funds movement into an account.
type DepositInput struct {
	AccountID     string
	Amount        money.Amount
	ReferenceCode string
	Note          string
}

// Deposit credits the account and appends the matching entry.
func (s *Service) Deposit(ctx context.Context, input DepositInput) (OperationResult, error) {
	if err := validateBounds(input.Amount, s.bounds.DepositMin, s.bounds.DepositMax); err != nil {
		return OperationResult{}, err
	}
	ref := input.ReferenceCode
	if ref == "" {
		ref = uuid.NewString()
	}

	release := s.locks.acquire(input.AccountID)
	defer release()

	if prior, err := s.store.FindEntryByReference(ctx, ref, EntryTypeDeposit); err == nil {
		return OperationResult{Balance: prior.BalanceAfter, Entry: prior}, ErrDuplicateReference
	} else if !errors.Is(err, ErrEntryNotFound) {
		return OperationResult{}, err
	}

	account, err := s.store.GetAccount(ctx, input.AccountID)
	if err != nil {
		return OperationResult{}, err
	}
	if account.Kind == AccountKindSink {
		return OperationResult{}, fmt.Errorf("%w: sink accounts accept donations only", ErrInvalidOperation)
	}
	if account.Status != AccountStatusActive {
		s.recordFailure(ctx, account, EntryTypeDeposit, input.Amount, ref, "", "", "", input.Note)
		return OperationResult{}, ErrAccountLocked
	}

	now := time.Now().UTC()
	account.Balance += input.Amount
	account.UpdatedAt = now
	entry := Entry{
		ID:            uuid.NewString(),
		AccountID:     account.ID,
		Type:          EntryTypeDeposit,
		Amount:        input.Amount,
		BalanceAfter:  account.Balance,
		Status:        EntryStatusCompleted,
		ReferenceCode: ref,
		Note:          input.Note,
		CreatedAt:     now,
	}
	if err := s.store.Apply(ctx, []Account{account}, []Entry{entry}); err != nil {
		return OperationResult{}, err
	}
	return OperationResult{Balance: account.Balance, Entry: entry}, nil
}

// WithdrawInput captures a settled funds movement out of an account.
type WithdrawInput struct {
	AccountID     string
	Amount        money.Amount
	ReferenceCode string
	Note          string
}

// Withdraw debits the account if it holds sufficient funds.
func (s *Service) Withdraw(ctx context.Context, input WithdrawInput) (OperationResult, error) {
	if err := validateBounds(input.Amount, s.bounds.WithdrawalMin, s.bounds.WithdrawalMax); err != nil {
		return OperationResult{}, err
	}
	ref := input.ReferenceCode
	if ref == "" {
		ref = uuid.NewString()
	}

	release := s.locks.acquire(input.AccountID)
	defer release()

	if prior, err := s.store.FindEntryByReference(ctx, ref, EntryTypeWithdrawal); err == nil {
		return OperationResult{Balance: prior.BalanceAfter, Entry: prior}, ErrDuplicateReference
	} else if !errors.Is(err, ErrEntryNotFound) {
		return OperationResult{}, err
	}

	account, err := s.store.GetAccount(ctx, input.AccountID)
	if err != nil {
		return OperationResult{}, err
	}
	if account.Kind == AccountKindSink {
		return OperationResult{}, fmt.Errorf("%w: sink accounts are non-withdrawable", ErrInvalidOperation)
	}
	if account.Status != AccountStatusActive {
		s.recordFailure(ctx, account, EntryTypeWithdrawal, input.Amount.Neg(), ref, "", "", "", input.Note)
		return OperationResult{}, ErrAccountLocked
	}
	if account.Balance < input.Amount {
		s.recordFailure(ctx, account, EntryTypeWithdrawal, input.Amount.Neg(), ref, "", "", "", input.Note)
		return OperationResult{}, ErrInsufficientFunds
	}

	now := time.Now().UTC()
	account.Balance -= input.Amount
	account.UpdatedAt = now
	entry := Entry{
		ID:            uuid.NewString(),
		AccountID:     account.ID,
		Type:          EntryTypeWithdrawal,
		Amount:        input.Amount.Neg(),
		BalanceAfter:  account.Balance,
		Status:        EntryStatusCompleted,
		ReferenceCode: ref,
		Note:          input.Note,
		CreatedAt:     now,
	}
	if err := s.store.Apply(ctx, []Account{account}, []Entry{entry}); err != nil {
		return OperationResult{}, err
	}
	return OperationResult{Balance: account.Balance, Entry: entry}, nil
}

// TransferInput captures a wallet-to-wallet movement.
type TransferInput struct {
	SourceAccountID string
	DestAccountID   string
	Amount          money.Amount
	ReferenceCode   string
	Note            string
}

// Transfer debits the source and credits the destination as one atomic unit.
// Both legs carry the same reference code; the sum of the two balances is
// conserved.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferOutcome, error) {
	return s.movePair(ctx, movePairInput{
		sourceID: input.SourceAccountID,
		destID:   input.DestAccountID,
		amount:   input.Amount,
		ref:      input.ReferenceCode,
		note:     input.Note,
		outType:  EntryTypeTransferOut,
		inType:   EntryTypeTransferIn,
	})
}

// DonationInput captures a donation from a wallet into a sink collecting for
// a related entity.
type DonationInput struct {
	SourceAccountID string
	TargetType      string
	TargetID        string
	Amount          money.Amount
	ReferenceCode   string
	Message         string
}

// Donate moves funds from a wallet into the donation sink for the target
// entity. Same atomicity and locking rules as Transfer; the sink is
// provisioned lazily.
func (s *Service) Donate(ctx context.Context, input DonationInput) (TransferOutcome, error) {
	sink, err := s.EnsureSink(ctx, input.TargetType, input.TargetID)
	if err != nil {
		return TransferOutcome{}, err
	}
	return s.movePair(ctx, movePairInput{
		sourceID:   input.SourceAccountID,
		destID:     sink.ID,
		amount:     input.Amount,
		ref:        input.ReferenceCode,
		note:       input.Message,
		outType:    EntryTypeDonation,
		inType:     EntryTypeDonationReceived,
		entityType: input.TargetType,
		entityID:   input.TargetID,
	})
}

type movePairInput struct {
	sourceID   string
	destID     string
	amount     money.Amount
	ref        string
	note       string
	outType    string
	inType     string
	entityType string
	entityID   string
}

func (s *Service) movePair(ctx context.Context, input movePairInput) (TransferOutcome, error) {
	if !input.amount.IsPositive() {
		return TransferOutcome{}, ErrInvalidAmount
	}
	if input.sourceID == input.destID {
		return TransferOutcome{}, fmt.Errorf("%w: source and destination are the same account", ErrInvalidOperation)
	}
	ref := input.ref
	if ref == "" {
		ref = uuid.NewString()
	}

	release := s.locks.acquirePair(input.sourceID, input.destID)
	defer release()

	if priorOut, err := s.store.FindEntryByReference(ctx, ref, input.outType); err == nil {
		priorIn, err := s.store.FindEntryByReference(ctx, ref, input.inType)
		if err != nil {
			return TransferOutcome{}, err
		}
		return TransferOutcome{
			ReferenceCode: ref,
			SourceBalance: priorOut.BalanceAfter,
			DestBalance:   priorIn.BalanceAfter,
			SourceEntry:   priorOut,
			DestEntry:     priorIn,
		}, ErrDuplicateReference
	} else if !errors.Is(err, ErrEntryNotFound) {
		return TransferOutcome{}, err
	}

	source, err := s.store.GetAccount(ctx, input.sourceID)
	if err != nil {
		return TransferOutcome{}, err
	}
	dest, err := s.store.GetAccount(ctx, input.destID)
	if err != nil {
		return TransferOutcome{}, err
	}

	if source.Kind == AccountKindSink {
		return TransferOutcome{}, fmt.Errorf("%w: sink accounts are non-withdrawable", ErrInvalidOperation)
	}
	if dest.Kind == AccountKindSink && input.inType != EntryTypeDonationReceived {
		return TransferOutcome{}, fmt.Errorf("%w: sink accounts accept donations only", ErrInvalidOperation)
	}
	if source.Status != AccountStatusActive {
		s.recordFailure(ctx, source, input.outType, input.amount.Neg(), ref, dest.ID, input.entityType, input.entityID, input.note)
		return TransferOutcome{}, ErrAccountLocked
	}
	if dest.Status != AccountStatusActive {
		s.recordFailure(ctx, source, input.outType, input.amount.Neg(), ref, dest.ID, input.entityType, input.entityID, input.note)
		return TransferOutcome{}, ErrAccountLocked
	}
	if source.Balance < input.amount {
		s.recordFailure(ctx, source, input.outType, input.amount.Neg(), ref, dest.ID, input.entityType, input.entityID, input.note)
		return TransferOutcome{}, ErrInsufficientFunds
	}

	now := time.Now().UTC()
	source.Balance -= input.amount
	source.UpdatedAt = now
	dest.Balance += input.amount
	dest.UpdatedAt = now

	out := Entry{
		ID:                    uuid.NewString(),
		AccountID:             source.ID,
		Type:                  input.outType,
		Amount:                input.amount.Neg(),
		BalanceAfter:          source.Balance,
		Status:                EntryStatusCompleted,
		ReferenceCode:         ref,
		CounterpartyAccountID: dest.ID,
		RelatedEntityType:     input.entityType,
		RelatedEntityID:       input.entityID,
		Note:                  input.note,
		CreatedAt:             now,
	}
	in := Entry{
		ID:                    uuid.NewString(),
		AccountID:             dest.ID,
		Type:                  input.inType,
		Amount:                input.amount,
		BalanceAfter:          dest.Balance,
		Status:                EntryStatusCompleted,
		ReferenceCode:         ref,
		CounterpartyAccountID: source.ID,
		RelatedEntityType:     input.entityType,
		RelatedEntityID:       input.entityID,
		Note:                  input.note,
		CreatedAt:             now,
	}

	if err := s.store.Apply(ctx, []Account{source, dest}, []Entry{out, in}); err != nil {
		return TransferOutcome{}, err
	}

	return TransferOutcome{
		ReferenceCode: ref,
		SourceBalance: source.Balance,
		DestBalance:   dest.Balance,
		SourceEntry:   out,
		DestEntry:     in,
	}, nil
}

// GetAccount returns account metadata.
func (s *Service) GetAccount(ctx context.Context, accountID string) (Account, error) {
	return s.store.GetAccount(ctx, accountID)
}

// GetBalance reads the current balance without locking. A read concurrent
// with a mutation may be stale; callers needing strict consistency use the
// balance returned by the mutating operation itself.
func (s *Service) GetBalance(ctx context.Context, accountID string) (money.Amount, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// GetHistory pages through the account's entries, newest first. Only
// completed entries are returned unless the filter opts into failed ones.
func (s *Service) GetHistory(ctx context.Context, accountID string, filter EntryFilter) (EntryPage, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return EntryPage{}, err
	}
	return s.store.ListEntries(ctx, accountID, filter)
}

// Freeze flips the account to locked; all mutations are rejected until
// Unfreeze. Authorizing the freeze is the caller's concern.
func (s *Service) Freeze(ctx context.Context, accountID string) error {
	release := s.locks.acquire(accountID)
	defer release()
	return s.store.SetAccountStatus(ctx, accountID, AccountStatusLocked)
}

// Unfreeze reactivates a locked account.
func (s *Service) Unfreeze(ctx context.Context, accountID string) error {
	release := s.locks.acquire(accountID)
	defer release()
	return s.store.SetAccountStatus(ctx, accountID, AccountStatusActive)
}

// recordFailure appends a failed entry for audit. Failed entries never touch
// the balance, so persistence here is best effort and does not mask the
// operation error.
func (s *Service) recordFailure(ctx context.Context, account Account, entryType string, amount money.Amount, ref, counterparty, entityType, entityID, note string) {
	entry := Entry{
		ID:                    uuid.NewString(),
		AccountID:             account.ID,
		Type:                  entryType,
		Amount:                amount,
		BalanceAfter:          account.Balance,
		Status:                EntryStatusFailed,
		ReferenceCode:         ref,
		CounterpartyAccountID: counterparty,
		RelatedEntityType:     entityType,
		RelatedEntityID:       entityID,
		Note:                  note,
		CreatedAt:             time.Now().UTC(),
	}
	_ = s.store.Apply(ctx, nil, []Entry{entry})
}

func validateBounds(amount, min, max money.Amount) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if min > 0 && amount < min {
		return fmt.Errorf("%w: below minimum %s", ErrInvalidAmount, min)
	}
	if max > 0 && amount > max {
		return fmt.Errorf("%w: above maximum %s", ErrInvalidAmount, max)
	}
	return nil
}
