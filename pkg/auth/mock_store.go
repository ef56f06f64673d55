package auth

import (
	"maps"
	"slices"
	"sync"
)

// MockStore keeps accounts in memory. Tests set FailWrites or FailReads to
// make the matching methods error.
type MockStore struct {
	mu       sync.Mutex
	accounts map[string]Account
	writes   int

	FailWrites error
	FailReads  error
}

func NewMockStore(accounts ...*Account) *MockStore {
	m := &MockStore{accounts: make(map[string]Account, len(accounts))}
	for _, a := range accounts {
		m.accounts[a.Username] = *a
	}
	return m
}

// NewMockManager returns a Manager backed by a single empty MockStore
func NewMockManager() (*Manager, *MockStore) {
	store := NewMockStore()
	return NewManagerWithStores(store), store
}

func (m *MockStore) Store(account *Account) error {
	if m.FailWrites != nil {
		return m.FailWrites
	}
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.Username] = *account
	m.writes++
	return nil
}

func (m *MockStore) Retrieve(username string) (*Account, error) {
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

// List returns copies sorted by username
func (m *MockStore) List() ([]*Account, error) {
	if m.FailReads != nil {
		return nil, m.FailReads
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Account, 0, len(m.accounts))
	for _, name := range slices.Sorted(maps.Keys(m.accounts)) {
		account := m.accounts[name]
		out = append(out, &account)
	}
	return out, nil
}

func (m *MockStore) Delete(username string) error {
	if m.FailWrites != nil {
		return m.FailWrites
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[username]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, username)
	m.writes++
	return nil
}

func (m *MockStore) Exists(username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.accounts[username]
	return ok
}

func (m *MockStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

// Writes counts successful Store and Delete calls
func (m *MockStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
