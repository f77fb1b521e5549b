package ledger

import (
	"context"
	"sync"
)

type inMemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
	byOwner  map[string]string
	entries  map[string][]Entry
	byRef    map[string]Entry
}

// NewInMemoryStore creates a concurrency-safe in-memory store, used for unit
// tests and dev mode without a database. Entries are held in append order,
// which matches chronological order because all writes happen inside the
// service's account lock.
func NewInMemoryStore() Store {
	return &inMemoryStore{
		accounts: make(map[string]Account),
		byOwner:  make(map[string]string),
		entries:  make(map[string][]Entry),
		byRef:    make(map[string]Entry),
	}
}

func refKey(referenceCode, entryType string) string {
	return entryType + ":" + referenceCode
}

func (s *inMemoryStore) CreateAccount(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.ID]; exists {
		return ErrAccountExists
	}
	if _, exists := s.byOwner[account.OwnerID]; exists {
		return ErrAccountExists
	}
	s.accounts[account.ID] = account
	s.byOwner[account.OwnerID] = account.ID
	return nil
}

func (s *inMemoryStore) GetAccount(_ context.Context, id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (s *inMemoryStore) GetAccountByOwner(_ context.Context, ownerID string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byOwner[ownerID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return s.accounts[id], nil
}

func (s *inMemoryStore) SetAccountStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	account.Status = status
	s.accounts[id] = account
	return nil
}

func (s *inMemoryStore) Apply(_ context.Context, accounts []Account, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range accounts {
		if _, ok := s.accounts[account.ID]; !ok {
			return ErrAccountNotFound
		}
	}
	for _, account := range accounts {
		s.accounts[account.ID] = account
	}
	for _, entry := range entries {
		s.entries[entry.AccountID] = append(s.entries[entry.AccountID], entry)
		if entry.Status == EntryStatusCompleted && entry.ReferenceCode != "" {
			s.byRef[refKey(entry.ReferenceCode, entry.Type)] = entry
		}
	}
	return nil
}

func (s *inMemoryStore) FindEntryByReference(_ context.Context, referenceCode, entryType string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.byRef[refKey(referenceCode, entryType)]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (s *inMemoryStore) ListEntries(_ context.Context, accountID string, filter EntryFilter) (EntryPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Entry
	log := s.entries[accountID]
	for i := len(log) - 1; i >= 0; i-- {
		entry := log[i]
		if entry.Status != EntryStatusCompleted && !filter.IncludeFailed {
			continue
		}
		if filter.Type != "" && entry.Type != filter.Type {
			continue
		}
		if !filter.From.IsZero() && entry.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && entry.CreatedAt.After(filter.To) {
			continue
		}
		matched = append(matched, entry)
	}

	total := len(matched)
	page, pageSize := filter.Page, filter.PageSize
	if pageSize <= 0 {
		return EntryPage{Entries: matched, Page: 1, PageSize: total, Total: total}, nil
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return EntryPage{Entries: matched[start:end], Page: page, PageSize: pageSize, Total: total}, nil
}
