package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igcrawler/pkg/auth"
	"igcrawler/pkg/config"
	"igcrawler/pkg/ui"
)

var configForce bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igcrawler configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IGCRAWLER_*)
  - .env and ~/.igcrawler.env files
  - Configuration file
  - Default values (lowest priority)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	Long: `Write a configuration file holding every option at its default value.

The file is created at $XDG_CONFIG_HOME/igcrawler/config.yaml unless a
different path is given with --config.`,
	Run: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources.

Credential pairs are masked.`,
	Run: runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the effective configuration, the credential pairs it lists and
whether the checkpoint and log directories can be created.`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)

	initCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	if _, err := os.Stat(configPath); err == nil && !configForce {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite it, run:")
		fmt.Printf("  igcrawler config init --config %s --force\n", configPath)
		os.Exit(1)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store an account with 'igcrawler auth add', or list pairs under instagram.accounts")
	fmt.Println("2. Run 'igcrawler config validate' to check the configuration")
	fmt.Println("3. Start mapping with 'igcrawler crawl <target>'")
}

func loadConfigOrExit(cmd *cobra.Command) *config.Config {
	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	return cfg
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg := loadConfigOrExit(cmd)

	display := *cfg
	display.Instagram.Accounts = maskAccounts(cfg.Instagram.Accounts)

	data, err := yaml.Marshal(&display)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Current Configuration", configSource())
	fmt.Println()
	fmt.Print(string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	ui.PrintInfo("Validating configuration", configSource())

	cfg, err := config.Load(configFile, globalFlags(cmd))
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	warnings := []string{}
	errors := []string{}

	if _, err := auth.ParseAccounts(cfg.Instagram.Accounts); err != nil {
		errors = append(errors, err.Error())
	}
	if len(cfg.Instagram.Accounts) == 0 {
		warnings = append(warnings, "No credential pairs configured; stored accounts will be used")
	}

	if err := os.MkdirAll(cfg.Checkpoint.Directory, 0755); err != nil {
		errors = append(errors, fmt.Sprintf("Cannot create checkpoint directory: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			errors = append(errors, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}
	if cfg.RateLimit.BlockMargin >= cfg.RateLimit.Window {
		warnings = append(warnings, "block margin is not smaller than the rate window")
	}

	if len(errors) > 0 {
		ui.PrintError("Configuration has errors:", "")
		for _, e := range errors {
			fmt.Printf("  - %s\n", e)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:", "")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Credential pairs: %d\n", len(cfg.Instagram.Accounts))
	fmt.Printf("  Transport: %s\n", cfg.Instagram.Transport)
	fmt.Printf("  Rate window: %d requests per %s\n", cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window)
	fmt.Printf("  Block budget: %s (%s)\n", cfg.RateLimit.TotalBlockBudget, cfg.RateLimit.BlockBudgetScope)
	fmt.Printf("  Checkpoints: %s in %s\n", cfg.Checkpoint.Backend, cfg.Checkpoint.Directory)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}

func configSource() string {
	if configFile != "" {
		return configFile
	}
	if _, err := os.Stat(config.DefaultPath()); err == nil {
		return config.DefaultPath()
	}
	return "(defaults and environment)"
}

// maskAccounts hides everything but the login of each credential pair
func maskAccounts(entries []string) []string {
	masked := make([]string, 0, len(entries))
	for _, entry := range entries {
		account, err := auth.ParseAccount(entry)
		if err != nil {
			masked = append(masked, "(invalid)")
			continue
		}
		line := account.Username + ",********"
		if account.TOTPSecret != "" {
			line += ",********"
		}
		masked = append(masked, line)
	}
	return masked
}
