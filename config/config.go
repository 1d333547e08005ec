package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"matka/models"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP configuration
	ListenAddr string

	// Slot configuration
	SlotMinutes      int // Length of a betting slot
	AdminLeadMinutes int // Minutes before slot end when betting closes
	GameClasses      []string

	// Payout and risk configuration
	Payouts        models.PayoutTable
	LockThresholds models.LockThresholds

	// Wallet configuration
	WalletMode      string // "local" or "remote"
	WalletURL       string // base URL for the remote wallet service
	StartingBalance int64

	// Settlement retry configuration
	SettlementMaxRetryElapsed time.Duration

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// Best effort; real deployments set the environment directly
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ListenAddr:  ":8080",

		SlotMinutes:      45,
		AdminLeadMinutes: 5,
		GameClasses:      []string{"main"},

		Payouts: models.PayoutTable{
			SingleMultiplier: 9,
			TripleMultipliers: map[string]int64{
				"A": 90,
				"B": 80,
				"C": 70,
			},
		},
		LockThresholds: models.LockThresholds{
			SingleThreshold: 50000,
			TripleThresholds: map[string]int64{
				"A": 10000,
				"B": 12000,
				"C": 15000,
			},
		},

		WalletMode:      "local",
		WalletURL:       os.Getenv("WALLET_URL"),
		StartingBalance: 100000,

		SettlementMaxRetryElapsed: 30 * time.Second,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}
	if v := os.Getenv("SLOT_MINUTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.SlotMinutes = parsed
		}
	}
	if v := os.Getenv("ADMIN_LEAD_MINUTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			config.AdminLeadMinutes = parsed
		}
	}
	if v := os.Getenv("GAME_CLASSES"); v != "" {
		config.GameClasses = splitList(v)
	}
	if v := os.Getenv("SINGLE_MULTIPLIER"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			config.Payouts.SingleMultiplier = parsed
		}
	}
	if v := os.Getenv("TRIPLE_MULTIPLIERS"); v != "" {
		if table, err := parseTagTable(v); err == nil && len(table) > 0 {
			config.Payouts.TripleMultipliers = table
		}
	}
	if v := os.Getenv("SINGLE_LOCK_THRESHOLD"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			config.LockThresholds.SingleThreshold = parsed
		}
	}
	if v := os.Getenv("TRIPLE_LOCK_THRESHOLDS"); v != "" {
		if table, err := parseTagTable(v); err == nil && len(table) > 0 {
			config.LockThresholds.TripleThresholds = table
		}
	}
	if v := os.Getenv("WALLET_MODE"); v != "" {
		config.WalletMode = v
	}
	if v := os.Getenv("STARTING_BALANCE"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.StartingBalance = parsed
		}
	}
	if v := os.Getenv("SETTLEMENT_MAX_RETRY_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.SettlementMaxRetryElapsed = time.Duration(parsed) * time.Second
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.WalletMode == "remote" && config.WalletURL == "" {
			return nil, fmt.Errorf("WALLET_URL is required when WALLET_MODE=remote")
		}
	}

	return config, nil
}

// parseTagTable parses "A:90,B:80,C:70" into a class tag table
func parseTagTable(s string) (map[string]int64, error) {
	table := make(map[string]int64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		tag, value, found := strings.Cut(pair, ":")
		if !found {
			return nil, fmt.Errorf("invalid tag table entry %q", pair)
		}
		parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid tag table value %q: %w", value, err)
		}
		table[strings.TrimSpace(tag)] = parsed
	}
	return table, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
