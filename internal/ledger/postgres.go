package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arena-pay/arena_pay/internal/money"
)

// PostgresStore persists accounts and entries in PostgreSQL. Every Apply runs
// in one transaction with row locks on the touched accounts, so the store is
// a second line of defence under the service's in-process account locks.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateAccount inserts the account unless the owner already has one.
func (s *PostgresStore) CreateAccount(ctx context.Context, account Account) error {
	accountID, err := uuid.Parse(account.ID)
	if err != nil {
		return fmt.Errorf("parse account id: %w", err)
	}
	tag, err := s.db.Exec(ctx, `INSERT INTO accounts (id, owner_id, kind, balance, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (owner_id) DO NOTHING`,
		accountID, account.OwnerID, account.Kind, account.Balance.MinorUnits(), account.Status,
		account.CreatedAt.UTC(), account.UpdatedAt.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountExists
	}
	return nil
}

const accountColumns = `id, owner_id, kind, balance, status, created_at, updated_at`

// GetAccount fetches an account by identifier.
func (s *PostgresStore) GetAccount(ctx context.Context, id string) (Account, error) {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrAccountNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID)
	return scanAccount(row)
}

// GetAccountByOwner fetches the account provisioned for the owner.
func (s *PostgresStore) GetAccountByOwner(ctx context.Context, ownerID string) (Account, error) {
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1`, ownerID)
	return scanAccount(row)
}

// SetAccountStatus flips the account between active and locked.
func (s *PostgresStore) SetAccountStatus(ctx context.Context, id, status string) error {
	accountID, err := uuid.Parse(id)
	if err != nil {
		return ErrAccountNotFound
	}
	tag, err := s.db.Exec(ctx, `UPDATE accounts SET status = $2, updated_at = now() WHERE id = $1`, accountID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Apply persists the account updates and entry appends in one transaction.
func (s *PostgresStore) Apply(ctx context.Context, accounts []Account, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, account := range accounts {
		accountID, err := uuid.Parse(account.ID)
		if err != nil {
			return fmt.Errorf("parse account id: %w", err)
		}
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAccountNotFound
			}
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $2, status = $3, updated_at = $4 WHERE id = $1`,
			accountID, account.Balance.MinorUnits(), account.Status, account.UpdatedAt.UTC()); err != nil {
			return err
		}
	}

	for _, entry := range entries {
		entryID, err := uuid.Parse(entry.ID)
		if err != nil {
			return fmt.Errorf("parse entry id: %w", err)
		}
		accountID, err := uuid.Parse(entry.AccountID)
		if err != nil {
			return fmt.Errorf("parse entry account id: %w", err)
		}
		var counterparty *uuid.UUID
		if entry.CounterpartyAccountID != "" {
			cp, err := uuid.Parse(entry.CounterpartyAccountID)
			if err != nil {
				return fmt.Errorf("parse counterparty id: %w", err)
			}
			counterparty = &cp
		}
		if _, err := tx.Exec(ctx, `INSERT INTO entries
            (id, account_id, type, amount, balance_after, status, reference_code, counterparty_account_id, related_entity_type, related_entity_id, note, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			entryID, accountID, entry.Type, entry.Amount.MinorUnits(), entry.BalanceAfter.MinorUnits(),
			entry.Status, entry.ReferenceCode, counterparty, entry.RelatedEntityType, entry.RelatedEntityID,
			entry.Note, entry.CreatedAt.UTC()); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

const entryColumns = `id, account_id, type, amount, balance_after, status, reference_code,
    COALESCE(counterparty_account_id::text, ''), related_entity_type, related_entity_id, note, created_at`

// FindEntryByReference looks up the completed entry recorded under the
// reference code for the given leg type.
func (s *PostgresStore) FindEntryByReference(ctx context.Context, referenceCode, entryType string) (Entry, error) {
	row := s.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM entries
        WHERE reference_code = $1 AND type = $2 AND status = $3`,
		referenceCode, entryType, EntryStatusCompleted)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, err
	}
	return entry, nil
}

// ListEntries pages through an account's entries, newest first.
func (s *PostgresStore) ListEntries(ctx context.Context, accountID string, filter EntryFilter) (EntryPage, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return EntryPage{}, ErrAccountNotFound
	}

	where := `WHERE account_id = $1`
	args := []any{id}
	if !filter.IncludeFailed {
		args = append(args, EntryStatusCompleted)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(` AND type = $%d`, len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From.UTC())
		where += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.UTC())
		where += fmt.Sprintf(` AND created_at <= $%d`, len(args))
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM entries `+where, args...).Scan(&total); err != nil {
		return EntryPage{}, err
	}

	query := `SELECT ` + entryColumns + ` FROM entries ` + where + ` ORDER BY created_at DESC, id DESC`
	page, pageSize := filter.Page, filter.PageSize
	if pageSize > 0 {
		if page <= 0 {
			page = 1
		}
		args = append(args, pageSize)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
		args = append(args, (page-1)*pageSize)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	} else {
		page, pageSize = 1, total
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return EntryPage{}, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return EntryPage{}, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return EntryPage{}, err
	}

	return EntryPage{Entries: entries, Page: page, PageSize: pageSize, Total: total}, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	var id uuid.UUID
	var balance int64
	if err := row.Scan(&id, &a.OwnerID, &a.Kind, &balance, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	a.ID = id.String()
	a.Balance = money.FromMinorUnits(balance)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	var id, accountID uuid.UUID
	var amount, balanceAfter int64
	if err := row.Scan(&id, &accountID, &e.Type, &amount, &balanceAfter, &e.Status, &e.ReferenceCode,
		&e.CounterpartyAccountID, &e.RelatedEntityType, &e.RelatedEntityID, &e.Note, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	e.ID = id.String()
	e.AccountID = accountID.String()
	e.Amount = money.FromMinorUnits(amount)
	e.BalanceAfter = money.FromMinorUnits(balanceAfter)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}
