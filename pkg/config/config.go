package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the crawler
type Config struct {
	Instagram  InstagramConfig  `yaml:"instagram" json:"instagram"`
	Crawl      CrawlConfig      `yaml:"crawl" json:"crawl"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" json:"rate_limit"`
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	UI         UIConfig         `yaml:"ui" json:"ui"`
}

// InstagramConfig holds HTTP session settings
type InstagramConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	Transport      string        `yaml:"transport" json:"transport"`
	Proxy          string        `yaml:"proxy" json:"proxy"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	LoginAttempts  int           `yaml:"login_attempts" json:"login_attempts"`
	// Accounts are login,password[,totp_secret] triples
	Accounts []string `yaml:"accounts,omitempty" json:"accounts,omitempty"`
}

// CrawlConfig holds the crawl budgets
type CrawlConfig struct {
	MaxFollowees        int `yaml:"max_followees" json:"max_followees"`
	StarFollowers       int `yaml:"star_followers" json:"star_followers"`
	BadRequestThreshold int `yaml:"bad_request_threshold" json:"bad_request_threshold"`
	LikesMaxAmount      int `yaml:"likes_max_amount" json:"likes_max_amount"`
	LikesThreshold      int `yaml:"likes_threshold" json:"likes_threshold"`
	GhostLikes          int `yaml:"ghost_likes" json:"ghost_likes"`
}

// RateLimitConfig holds the per-session rate controller settings
type RateLimitConfig struct {
	Window            time.Duration `yaml:"window" json:"window"`
	RequestsPerWindow int           `yaml:"requests_per_window" json:"requests_per_window"`
	BlockMargin       time.Duration `yaml:"block_margin" json:"block_margin"`
	TotalBlockBudget  time.Duration `yaml:"total_block_budget" json:"total_block_budget"`
	// BlockBudgetScope is "session" or "global"
	BlockBudgetScope string `yaml:"block_budget_scope" json:"block_budget_scope"`
}

// CheckpointConfig selects where crawl state is persisted
type CheckpointConfig struct {
	Backend   string `yaml:"backend" json:"backend"`
	Directory string `yaml:"directory" json:"directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// UIConfig holds terminal output preferences
type UIConfig struct {
	TUI     bool `yaml:"tui" json:"tui"`
	NoColor bool `yaml:"no_color" json:"no_color"`
}

const (
	ScopeSession = "session"
	ScopeGlobal  = "global"

	BackendFile   = "file"
	BackendSQLite = "sqlite"

	TransportStealth = "stealth"
	TransportStd     = "std"
)

// DefaultConfig returns a Config instance with the crawler's defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			BaseURL:        "https://www.instagram.com",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
			Transport:      TransportStealth,
			RequestTimeout: 30 * time.Second,
			LoginAttempts:  3,
		},
		Crawl: CrawlConfig{
			MaxFollowees:        500,
			StarFollowers:       5000,
			BadRequestThreshold: 10,
			LikesMaxAmount:      500,
			LikesThreshold:      5000,
			GhostLikes:          5,
		},
		RateLimit: RateLimitConfig{
			Window:            11 * time.Minute,
			RequestsPerWindow: 200,
			BlockMargin:       6 * time.Second,
			TotalBlockBudget:  20 * time.Minute,
			BlockBudgetScope:  ScopeSession,
		},
		Checkpoint: CheckpointConfig{
			Backend:   BackendFile,
			Directory: filepath.Join(xdg.DataHome, "igcrawler", "checkpoints"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv overrides fields from IGCRAWLER_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = d
		}
	}

	str("IGCRAWLER_USER_AGENT", &c.Instagram.UserAgent)
	str("IGCRAWLER_TRANSPORT", &c.Instagram.Transport)
	str("IGCRAWLER_PROXY", &c.Instagram.Proxy)
	if v := os.Getenv("IGCRAWLER_ACCOUNTS"); v != "" {
		c.Instagram.Accounts = append(c.Instagram.Accounts, strings.Fields(strings.ReplaceAll(v, ";", " "))...)
	}

	num("IGCRAWLER_MAX_FOLLOWEES", &c.Crawl.MaxFollowees)
	num("IGCRAWLER_STAR_FOLLOWERS", &c.Crawl.StarFollowers)
	num("IGCRAWLER_BAD_REQUEST_THRESHOLD", &c.Crawl.BadRequestThreshold)
	num("IGCRAWLER_LIKES_MAX_AMOUNT", &c.Crawl.LikesMaxAmount)
	num("IGCRAWLER_LIKES_THRESHOLD", &c.Crawl.LikesThreshold)
	num("IGCRAWLER_GHOST_LIKES", &c.Crawl.GhostLikes)

	num("IGCRAWLER_REQUESTS_PER_WINDOW", &c.RateLimit.RequestsPerWindow)
	dur("IGCRAWLER_WINDOW", &c.RateLimit.Window)
	dur("IGCRAWLER_TOTAL_BLOCK_BUDGET", &c.RateLimit.TotalBlockBudget)
	str("IGCRAWLER_BLOCK_BUDGET_SCOPE", &c.RateLimit.BlockBudgetScope)

	str("IGCRAWLER_CHECKPOINT_BACKEND", &c.Checkpoint.Backend)
	str("IGCRAWLER_CHECKPOINT_DIR", &c.Checkpoint.Directory)
	str("IGCRAWLER_LOG_LEVEL", &c.Logging.Level)
	str("IGCRAWLER_LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// DefaultPath is where `config init` writes the configuration
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "igcrawler", "config.yaml")
}

func (c *Config) findConfigFile() string {
	locations := []string{
		".igcrawler.yaml",
		".igcrawler.yml",
		DefaultPath(),
		filepath.Join(xdg.ConfigHome, "igcrawler", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	switch c.Instagram.Transport {
	case TransportStealth, TransportStd:
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Instagram.Transport))
	}
	if c.Instagram.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	}
	if c.Instagram.LoginAttempts <= 0 {
		errs = append(errs, errors.New("login attempts must be positive"))
	}

	if c.Crawl.MaxFollowees <= 0 {
		errs = append(errs, errors.New("max followees must be positive"))
	}
	if c.Crawl.StarFollowers <= 0 {
		errs = append(errs, errors.New("star followers threshold must be positive"))
	}
	if c.Crawl.BadRequestThreshold <= 0 {
		errs = append(errs, errors.New("bad request threshold must be positive"))
	}
	if c.Crawl.LikesMaxAmount < 0 || c.Crawl.LikesThreshold < 0 || c.Crawl.GhostLikes < 0 {
		errs = append(errs, errors.New("like budgets cannot be negative"))
	}

	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate window must be positive"))
	}
	if c.RateLimit.RequestsPerWindow <= 0 {
		errs = append(errs, errors.New("requests per window must be positive"))
	}
	if c.RateLimit.BlockMargin < 0 {
		errs = append(errs, errors.New("block margin cannot be negative"))
	}
	if c.RateLimit.TotalBlockBudget <= 0 {
		errs = append(errs, errors.New("total block budget must be positive"))
	}
	switch c.RateLimit.BlockBudgetScope {
	case ScopeSession, ScopeGlobal:
	default:
		errs = append(errs, fmt.Errorf("block budget scope must be %q or %q", ScopeSession, ScopeGlobal))
	}

	switch c.Checkpoint.Backend {
	case BackendFile, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown checkpoint backend %q", c.Checkpoint.Backend))
	}
	if c.Checkpoint.Directory == "" {
		errs = append(errs, errors.New("checkpoint directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags applies flags that were explicitly set.
// Keys are flag names; absent keys leave the field untouched.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	setInt := func(key string, dst *int) {
		if v, ok := flags[key].(int); ok {
			*dst = v
		}
	}
	setStr := func(key string, dst *string) {
		if v, ok := flags[key].(string); ok && v != "" {
			*dst = v
		}
	}
	setDur := func(key string, dst *time.Duration) {
		if v, ok := flags[key].(time.Duration); ok {
			*dst = v
		}
	}

	if accounts, ok := flags["credentials"].([]string); ok && len(accounts) > 0 {
		c.Instagram.Accounts = append(c.Instagram.Accounts, accounts...)
	}
	setStr("transport", &c.Instagram.Transport)
	setStr("proxy", &c.Instagram.Proxy)

	setInt("max-followees", &c.Crawl.MaxFollowees)
	setInt("star-followers", &c.Crawl.StarFollowers)
	setInt("bad-request-threshold", &c.Crawl.BadRequestThreshold)
	setInt("likes-max-amount", &c.Crawl.LikesMaxAmount)
	setInt("likes-threshold", &c.Crawl.LikesThreshold)
	setInt("ghost-likes", &c.Crawl.GhostLikes)

	setInt("requests-per-window", &c.RateLimit.RequestsPerWindow)
	setDur("window", &c.RateLimit.Window)
	setDur("total-block-budget", &c.RateLimit.TotalBlockBudget)
	setStr("block-budget-scope", &c.RateLimit.BlockBudgetScope)

	setStr("checkpoint-backend", &c.Checkpoint.Backend)
	setStr("checkpoint-dir", &c.Checkpoint.Directory)
	setStr("log-level", &c.Logging.Level)
	setStr("log-file", &c.Logging.File)

	if v, ok := flags["tui"].(bool); ok {
		c.UI.TUI = v
	}
	if v, ok := flags["no-color"].(bool); ok {
		c.UI.NoColor = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".igcrawler.env"))
	}

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
