package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvUsername   = "IGCRAWLER_USERNAME"
	EnvPassword   = "IGCRAWLER_PASSWORD"
	EnvTOTPSecret = "IGCRAWLER_TOTP_SECRET"
	EnvSessionID  = "IGCRAWLER_SESSION_ID"
	EnvCSRFToken  = "IGCRAWLER_CSRF_TOKEN"
)

// EnvironmentStore is a read-only CredentialStore holding at most one
// account, described by IGCRAWLER_* variables.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment account. An empty username matches it;
// any other username must equal IGCRAWLER_USERNAME.
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	account := &Account{
		Username:     os.Getenv(EnvUsername),
		Password:     os.Getenv(EnvPassword),
		TOTPSecret:   os.Getenv(EnvTOTPSecret),
		SessionID:    os.Getenv(EnvSessionID),
		CSRFToken:    os.Getenv(EnvCSRFToken),
		LastModified: time.Now(),
	}

	if account.Username == "" || (account.Password == "" && account.CachedSession() == nil) {
		return nil, ErrCredentialsNotFound
	}
	if username != "" && username != account.Username {
		return nil, ErrCredentialsNotFound
	}
	return account, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(username string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(username string) bool {
	_, err := e.Retrieve(username)
	return err == nil
}
