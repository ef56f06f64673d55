package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"igcrawler/pkg/instagram"
)

// Account is one crawl credential: a login pair and, once logged in, the
// session cookies that let later runs skip the login.
type Account struct {
	Username     string    `json:"username"`
	Password     string    `json:"password,omitempty"`
	TOTPSecret   string    `json:"totp_secret,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	CSRFToken    string    `json:"csrf_token,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Credentials returns the login form values of the account
func (a *Account) Credentials() instagram.Credentials {
	return instagram.Credentials{
		Username:   a.Username,
		Password:   a.Password,
		TOTPSecret: a.TOTPSecret,
	}
}

// CachedSession returns the stored session, or nil when the account has
// never logged in.
func (a *Account) CachedSession() *instagram.Session {
	if a.SessionID == "" || a.CSRFToken == "" {
		return nil
	}
	return &instagram.Session{
		Username:  a.Username,
		UserID:    a.UserID,
		SessionID: a.SessionID,
		CSRFToken: a.CSRFToken,
	}
}

// SetSession records the cookies of a fresh login
func (a *Account) SetSession(s *instagram.Session) {
	if s == nil {
		a.UserID, a.SessionID, a.CSRFToken = "", "", ""
		return
	}
	a.UserID = s.UserID
	a.SessionID = s.SessionID
	a.CSRFToken = s.CSRFToken
}

// ParseAccount reads a "login,password[,totp_secret]" credential pair
func ParseAccount(entry string) (*Account, error) {
	parts := strings.Split(entry, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("%w: expected login,password[,totp_secret]", ErrInvalidCredentials)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	account := &Account{Username: parts[0], Password: parts[1]}
	if len(parts) == 3 {
		account.TOTPSecret = parts[2]
	}
	if account.Username == "" || account.Password == "" {
		return nil, fmt.Errorf("%w: login and password are required", ErrInvalidCredentials)
	}
	return account, nil
}

// ParseAccounts parses every entry, keeping command-line order. A login
// given twice keeps its first position and its last password.
func ParseAccounts(entries []string) ([]*Account, error) {
	var accounts []*Account
	seen := make(map[string]int)
	var errs []error

	for i, entry := range entries {
		account, err := ParseAccount(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("credential #%d: %w", i+1, err))
			continue
		}
		if at, ok := seen[account.Username]; ok {
			accounts[at] = account
			continue
		}
		seen[account.Username] = len(accounts)
		accounts = append(accounts, account)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return accounts, nil
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials for a given account
	Store(account *Account) error

	// Retrieve gets credentials for a specific username
	Retrieve(username string) (*Account, error)

	// List returns all stored accounts
	List() ([]*Account, error)

	// Delete removes credentials for a specific username
	Delete(username string) error

	// Exists checks if credentials exist for a username
	Exists(username string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager over the system keychain, an
// encrypted file under the config directory, and the environment.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores builds a manager over explicit stores, first wins
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first available store
func (m *Manager) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return errors.New("username is required")
	}
	if account.Password == "" && account.CachedSession() == nil {
		return errors.New("password or session is required")
	}

	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(username string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(username); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, username)
}

// List returns the stored accounts of every store, the most recently
// modified copy per username, ordered by username.
func (m *Manager) List() ([]*Account, error) {
	accountMap := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if existing, ok := accountMap[account.Username]; !ok || account.LastModified.After(existing.LastModified) {
				accountMap[account.Username] = account
			}
		}
	}

	result := make([]*Account, 0, len(accountMap))
	for _, account := range accountMap {
		result = append(result, account)
	}
	slices.SortFunc(result, func(a, b *Account) int {
		return strings.Compare(a.Username, b.Username)
	})

	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(username string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(username); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, username)
	}

	return nil
}

// getConfigDir returns the igcrawler config directory, creating it
func getConfigDir() (string, error) {
	configDir := filepath.Join(xdg.ConfigHome, "igcrawler")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// SanitizeAccount creates a copy of the account with sensitive data masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	sanitized := *account
	sanitized.Password = maskString(account.Password)
	sanitized.TOTPSecret = maskString(account.TOTPSecret)
	sanitized.SessionID = maskString(account.SessionID)
	sanitized.CSRFToken = maskString(account.CSRFToken)
	return &sanitized
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
