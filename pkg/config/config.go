package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// ScanLivenessWindow bounds how long /ready stays healthy after the
	// last successful scan before it reports the scan loop as stalled.
	ScanLivenessWindow time.Duration

	// Exchange API (Kalshi-like binary prediction market)
	ExchangeBaseURL    string
	ExchangeAPIKeyID   string
	ExchangePrivateKey string // path to private key file used to sign requests

	// Aggregator API (sportsbook odds)
	AggregatorBaseURL string
	AggregatorAPIKey  string

	// Alert channel
	AlertChannelURL string

	// Market discovery
	DiscoveryMaxPages       int
	DiscoveryPageSize       int
	DiscoveryInterPageDelay time.Duration
	DiscoveryInterBookDelay time.Duration
	TradingCutoffMinutes    int
	MinVolume24h            float64
	MaxSpreadCents          float64
	MinDepth                int
	CategoryWhitelist       []string
	CategoryBlacklist       []string
	ContractBlacklist       []string

	// Snapshotter
	SnapshotInterval      time.Duration
	SnapshotRecoveryDelay time.Duration
	DataRetentionDays     int

	// Scanner / aggregator
	DefaultSport        string
	AutoMapEnabled      bool
	SlippageBufferBps   float64
	SportsbookFrictionBps float64
	MinEdgeBps          float64
	MinLiquidity        float64
	MaxStaleness        time.Duration
	MappingRegistryPath string
	LastOpportunitiesPath string
	AlertLogPath        string

	// Backtest / strategy validation
	MinBacktestSamples int
	MinWinRate         float64
	MaxDrawdownPercent float64

	// Risk gate
	MaxDailyLossDollars         float64
	MaxPerMarketExposureDollars float64
	MaxTotalExposureDollars     float64
	MaxOpenPositions            int
	MaxTradesPerDay             int
	DefaultPositionSizeDollars  float64
	UseKellySizing              bool
	KellyFraction               float64
	LimitOnly                   bool
	MinExpectedValue            float64
	ConfidenceThreshold         float64

	// Circuit breaker
	CircuitBreakerEnabled         bool
	CircuitBreakerCheckInterval   time.Duration
	CircuitBreakerTradeMultiplier float64
	CircuitBreakerMinAbsolute     float64
	CircuitBreakerHysteresisRatio float64

	// Order manager / runner
	ExecutionMode        string // "dry_run", "paper", "live"
	ExecutionEnabled     bool
	RunnerTimezone       string
	RunnerDailyTime      string // "HH:MM" in RunnerTimezone
	PaperFillProbability float64
	PaperSlippageCents   int

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
// A .env file (if present) is loaded by the caller via godotenv before this
// runs.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort:           getEnvOrDefault("HTTP_PORT", "8080"),
		ScanLivenessWindow: getDurationOrDefault("SCAN_LIVENESS_WINDOW", 10*time.Minute),

		ExchangeBaseURL:    getEnvOrDefault("EXCHANGE_BASE_URL", "https://trading-api.kalshi.com"),
		ExchangeAPIKeyID:   exchangeAPIKeyID(),
		ExchangePrivateKey: os.Getenv("EXCHANGE_PRIVATE_KEY_PATH"),

		AggregatorBaseURL: getEnvOrDefault("AGGREGATOR_BASE_URL", "https://api.the-odds-api.com"),
		AggregatorAPIKey:  os.Getenv("AGGREGATOR_API_KEY"),

		AlertChannelURL: os.Getenv("ALERT_CHANNEL_URL"),

		DiscoveryMaxPages:       getIntOrDefault("DISCOVERY_MAX_PAGES", 10),
		DiscoveryPageSize:       getIntOrDefault("DISCOVERY_PAGE_SIZE", 100),
		DiscoveryInterPageDelay: getDurationOrDefault("DISCOVERY_INTER_PAGE_DELAY", 500*time.Millisecond),
		DiscoveryInterBookDelay: getDurationOrDefault("DISCOVERY_INTER_BOOK_DELAY", 300*time.Millisecond),
		TradingCutoffMinutes:    getIntOrDefault("TRADING_CUTOFF_MINUTES", 15),
		MinVolume24h:            getFloat64OrDefault("MIN_VOLUME_24H", 100),
		MaxSpreadCents:          getFloat64OrDefault("MAX_SPREAD_CENTS", 5),
		MinDepth:                getIntOrDefault("MIN_DEPTH", 50),
		CategoryWhitelist:       getListOrDefault("CATEGORY_WHITELIST", nil),
		CategoryBlacklist:       getListOrDefault("CATEGORY_BLACKLIST", nil),
		ContractBlacklist:       getListOrDefault("CONTRACT_BLACKLIST", nil),

		SnapshotInterval:      getDurationOrDefault("SNAPSHOT_INTERVAL", 5*time.Minute),
		SnapshotRecoveryDelay: getDurationOrDefault("SNAPSHOT_RECOVERY_DELAY", 60*time.Second),
		DataRetentionDays:     getIntOrDefault("DATA_RETENTION_DAYS", 30),

		DefaultSport:          getEnvOrDefault("DEFAULT_SPORT", "basketball_nba"),
		AutoMapEnabled:        getBoolOrDefault("AUTO_MAP_ENABLED", false),
		SlippageBufferBps:     getFloat64OrDefault("SLIPPAGE_BUFFER_BPS", 10),
		SportsbookFrictionBps: getFloat64OrDefault("SPORTSBOOK_FRICTION_BPS", 20),
		MinEdgeBps:            getFloat64OrDefault("MIN_EDGE_BPS", 50),
		MinLiquidity:          getFloat64OrDefault("MIN_LIQUIDITY", 100),
		MaxStaleness:          getDurationOrDefault("MAX_STALENESS", 2*time.Minute),
		MappingRegistryPath:   getEnvOrDefault("MAPPING_REGISTRY_PATH", "mappings.yaml"),
		LastOpportunitiesPath: getEnvOrDefault("LAST_OPPORTUNITIES_PATH", ".last_opportunities"),
		AlertLogPath:          getEnvOrDefault("ALERT_LOG_PATH", "alerts.jsonl"),

		MinBacktestSamples: getIntOrDefault("MIN_BACKTEST_SAMPLES", 20),
		MinWinRate:         getFloat64OrDefault("MIN_WIN_RATE", 0.55),
		MaxDrawdownPercent: getFloat64OrDefault("MAX_DRAWDOWN_PERCENT", 0.25),

		MaxDailyLossDollars:         getFloat64OrDefault("MAX_DAILY_LOSS_DOLLARS", 500),
		MaxPerMarketExposureDollars: getFloat64OrDefault("MAX_PER_MARKET_EXPOSURE_DOLLARS", 300),
		MaxTotalExposureDollars:     getFloat64OrDefault("MAX_TOTAL_EXPOSURE_DOLLARS", 2000),
		MaxOpenPositions:            getIntOrDefault("MAX_OPEN_POSITIONS", 10),
		MaxTradesPerDay:             getIntOrDefault("MAX_TRADES_PER_DAY", 50),
		DefaultPositionSizeDollars:  getFloat64OrDefault("DEFAULT_POSITION_SIZE_DOLLARS", 50),
		UseKellySizing:              getBoolOrDefault("USE_KELLY_SIZING", true),
		KellyFraction:               getFloat64OrDefault("KELLY_FRACTION", 0.25),
		LimitOnly:                   getBoolOrDefault("LIMIT_ONLY", true),
		MinExpectedValue:            getFloat64OrDefault("MIN_EXPECTED_VALUE", 0.01),
		ConfidenceThreshold:         getFloat64OrDefault("CONFIDENCE_THRESHOLD", 0.5),

		CircuitBreakerEnabled:         getBoolOrDefault("CIRCUIT_BREAKER_ENABLED", true),
		CircuitBreakerCheckInterval:   getDurationOrDefault("CIRCUIT_BREAKER_CHECK_INTERVAL", 300*time.Second),
		CircuitBreakerTradeMultiplier: getFloat64OrDefault("CIRCUIT_BREAKER_TRADE_MULTIPLIER", 3.0),
		CircuitBreakerMinAbsolute:     getFloat64OrDefault("CIRCUIT_BREAKER_MIN_ABSOLUTE", 50.0),
		CircuitBreakerHysteresisRatio: getFloat64OrDefault("CIRCUIT_BREAKER_HYSTERESIS_RATIO", 1.5),

		ExecutionMode:        getEnvOrDefault("EXECUTION_MODE", "paper"),
		ExecutionEnabled:     getBoolOrDefault("EXECUTION_ENABLED", false),
		RunnerTimezone:       getEnvOrDefault("RUNNER_TIMEZONE", "America/New_York"),
		RunnerDailyTime:      getEnvOrDefault("RUNNER_DAILY_TIME", "09:35"),
		PaperFillProbability: getFloat64OrDefault("PAPER_FILL_PROBABILITY", 0.8),
		PaperSlippageCents:   getIntOrDefault("PAPER_SLIPPAGE_CENTS", 1),

		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "kalshi_odds"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "kalshi_odds"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "kalshi_odds"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// exchangeAPIKeyID resolves the canonical key id, falling back to the
// legacy EXCHANGE_API_KEY alias (open question 1, logged once by the
// caller as deprecated when the fallback fires).
func exchangeAPIKeyID() string {
	if v := os.Getenv("EXCHANGE_API_KEY_ID"); v != "" {
		return v
	}
	return os.Getenv("EXCHANGE_API_KEY")
}

// UsedLegacyAPIKeyAlias reports whether the deprecated EXCHANGE_API_KEY
// alias supplied the key id, so the caller can log a deprecation warning
// once at startup.
func UsedLegacyAPIKeyAlias() bool {
	return os.Getenv("EXCHANGE_API_KEY_ID") == "" && os.Getenv("EXCHANGE_API_KEY") != ""
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT cannot be empty")
	}
	if c.ExchangeBaseURL == "" {
		return errors.New("EXCHANGE_BASE_URL cannot be empty")
	}
	if c.AggregatorBaseURL == "" {
		return errors.New("AGGREGATOR_BASE_URL cannot be empty")
	}
	if c.ExecutionMode != "dry_run" && c.ExecutionMode != "paper" && c.ExecutionMode != "live" {
		return fmt.Errorf("EXECUTION_MODE must be 'dry_run', 'paper', or 'live', got %q", c.ExecutionMode)
	}
	if c.ExecutionMode == "live" && c.ExchangePrivateKey == "" {
		return errors.New("EXCHANGE_PRIVATE_KEY_PATH is required when EXECUTION_MODE=live")
	}
	if c.MinWinRate < 0.5 || c.MinWinRate > 1.0 {
		return fmt.Errorf("MIN_WIN_RATE must be in [0.5, 1.0], got %f", c.MinWinRate)
	}
	if c.MaxDrawdownPercent <= 0 || c.MaxDrawdownPercent > 1.0 {
		return fmt.Errorf("MAX_DRAWDOWN_PERCENT must be in (0, 1.0], got %f", c.MaxDrawdownPercent)
	}
	if c.KellyFraction <= 0 || c.KellyFraction > 1.0 {
		return fmt.Errorf("KELLY_FRACTION must be in (0, 1.0], got %f", c.KellyFraction)
	}
	if c.MinBacktestSamples < 1 {
		return fmt.Errorf("MIN_BACKTEST_SAMPLES must be positive, got %d", c.MinBacktestSamples)
	}
	if c.DiscoveryMaxPages < 1 {
		return fmt.Errorf("DISCOVERY_MAX_PAGES must be positive, got %d", c.DiscoveryMaxPages)
	}
	if c.MaxOpenPositions < 1 {
		return fmt.Errorf("MAX_OPEN_POSITIONS must be positive, got %d", c.MaxOpenPositions)
	}
	if c.DataRetentionDays < 1 {
		return fmt.Errorf("DATA_RETENTION_DAYS must be positive, got %d", c.DataRetentionDays)
	}
	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// getListOrDefault parses a comma-separated env var into a string slice,
// trimming whitespace and dropping empty entries.
func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
