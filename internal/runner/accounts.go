package runner

import (
	"errors"
	"fmt"

	"igcrawler/pkg/auth"
	"igcrawler/pkg/logger"
)

// ErrNoAccounts is returned when neither the command line, the
// configuration nor the credential stores supply an account
var ErrNoAccounts = errors.New("no Instagram accounts configured")

// Accounts resolves the ordered account list of a run. Explicit
// login,password[,totp] entries win; a stored session for the same login is
// attached so the login can be skipped. Without entries every stored
// account is used.
func Accounts(entries []string, manager *auth.Manager, log logger.Logger) ([]*auth.Account, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	accounts, err := auth.ParseAccounts(entries)
	if err != nil {
		return nil, err
	}

	if manager == nil {
		if len(accounts) == 0 {
			return nil, ErrNoAccounts
		}
		return accounts, nil
	}

	if len(accounts) == 0 {
		stored, err := manager.List()
		if err != nil {
			return nil, fmt.Errorf("failed to list stored accounts: %w", err)
		}
		for _, account := range stored {
			if account.Password == "" && account.CachedSession() == nil {
				continue
			}
			accounts = append(accounts, account)
		}
		if len(accounts) == 0 {
			return nil, ErrNoAccounts
		}
		return accounts, nil
	}

	for _, account := range accounts {
		stored, err := manager.Retrieve(account.Username)
		if err != nil {
			if !errors.Is(err, auth.ErrCredentialsNotFound) {
				log.WithError(err).WarnWithFields("cannot read stored account", map[string]interface{}{
					"account": account.Username,
				})
			}
			continue
		}
		// a stored session belongs to the stored password
		if stored.Password == "" || stored.Password == account.Password {
			account.SetSession(stored.CachedSession())
		}
	}
	return accounts, nil
}
