package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igcrawler/pkg/auth"
	"igcrawler/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Instagram credentials",
	Long: `Manage the stored Instagram credential pairs a crawl can use.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)

A crawl without --credentials uses every stored account, in username order.
Never share your credentials or config files!`,
}

var addCmd = &cobra.Command{
	Use:   "add [username]",
	Short: "Store a credential pair",
	Long: `Store an Instagram login and password, and optionally the TOTP secret
of an account with two-factor authentication.

The password and secret are read without echo.`,
	Example: `  # Interactive
  igcrawler auth add

  # With username
  igcrawler auth add scout`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAdd,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored Instagram accounts with sanitized credential information.`,
	Run:   runList,
}

var removeCmd = &cobra.Command{
	Use:     "remove <username>",
	Aliases: []string{"rm"},
	Short:   "Remove a stored account",
	Args:    cobra.ExactArgs(1),
	Run:     runRemove,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(addCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(removeCmd)
}

func credentialManager() *auth.Manager {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}
	return manager
}

func runAdd(cmd *cobra.Command, args []string) {
	manager := credentialManager()
	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		fmt.Print("📱 Instagram username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read username", err.Error())
			os.Exit(1)
		}
		username = input
	}
	username = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(username), "@"))
	if username == "" {
		ui.PrintError("Username is required", "")
		os.Exit(1)
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		fmt.Printf("\n⚠️  Account '%s' already exists. Replace it? (y/N): ", username)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("🔐 Password: ")
	password, err := readPassword(reader)
	if err != nil {
		ui.PrintError("Failed to read password", err.Error())
		os.Exit(1)
	}
	if password == "" {
		ui.PrintError("Password is required", "")
		os.Exit(1)
	}

	fmt.Print("🔑 TOTP secret (press Enter if the account has no 2FA): ")
	secret, err := readPassword(reader)
	if err != nil {
		ui.PrintError("Failed to read TOTP secret", err.Error())
		os.Exit(1)
	}

	account := &auth.Account{
		Username:     username,
		Password:     password,
		TOTPSecret:   strings.ReplaceAll(secret, " ", ""),
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Account saved: %s", username))
	fmt.Println("\nThe first crawl with this account logs in and caches the session.")
	fmt.Printf("   $ igcrawler crawl <target>\n")
	fmt.Println("\n⚠️  Never share your credentials or config files!")
}

func runList(cmd *cobra.Command, args []string) {
	manager := credentialManager()

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'igcrawler auth add' to add an account")
		return
	}

	ui.PrintInfo("Stored Accounts", fmt.Sprintf("%d", len(accounts)))
	fmt.Println()

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Username: %s\n", i+1, sanitized.Username)
		if sanitized.Password != "" {
			fmt.Printf("   Password: %s\n", sanitized.Password)
		}
		if sanitized.TOTPSecret != "" {
			fmt.Printf("   TOTP Secret: %s\n", sanitized.TOTPSecret)
		}
		if sanitized.SessionID != "" {
			fmt.Printf("   Cached Session: %s\n", sanitized.SessionID)
		}
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

func runRemove(cmd *cobra.Command, args []string) {
	manager := credentialManager()

	username := strings.TrimPrefix(args[0], "@")
	if err := manager.Delete(username); err != nil {
		ui.PrintError("Failed to remove account", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Account removed: " + username)
}

// readPassword reads a secret from stdin without echoing
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(password)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
