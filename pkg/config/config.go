package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: query history)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External services
	LLM        LLMConfig
	MarketData MarketDataConfig
	News       NewsConfig

	// Screening pipeline
	Screener ScreenerConfig
	Session  SessionConfig
	Alerts   AlertsConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Tracing
	TracingEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	HistoryRetentionDays int
}

// Enabled reports whether query history persistence is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// LLMConfig holds language model provider configuration
type LLMConfig struct {
	Provider        string // openai, anthropic, gemini, none
	Model           string
	OpenAIKey       string
	AnthropicKey    string
	GeminiKey       string
	Timeout         time.Duration
	RetryBackoff    time.Duration
	MaxOutputTokens int
}

// APIKey returns the key for the selected provider
func (l LLMConfig) APIKey() string {
	switch l.Provider {
	case "openai":
		return l.OpenAIKey
	case "anthropic":
		return l.AnthropicKey
	case "gemini":
		return l.GeminiKey
	default:
		return ""
	}
}

// MarketDataConfig holds market data provider configuration
type MarketDataConfig struct {
	Provider    string // finnhub, yahoo, static
	FinnhubKey  string
	RatePerMin  int
	Timeout     time.Duration
	Concurrency int
	CacheTTL    time.Duration
	FixturePath string
	LexiconPath string
	WarmupCron  string
}

// NewsConfig holds news source configuration
type NewsConfig struct {
	RSSURL       string // %s = symbol
	MaxArticles  int
	LookbackDays int
}

// ScreenerConfig holds screening limits
type ScreenerConfig struct {
	MaxResults      int
	RateLimitPerMin int
	RequestTimeout  time.Duration
}

// SessionConfig holds session store configuration
type SessionConfig struct {
	TTL time.Duration
}

// AlertsConfig holds price alert checking and email delivery
type AlertsConfig struct {
	CheckCron string

	// SMTP (optional: email delivery of triggered alerts)
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
}

// EmailEnabled reports whether triggered alerts can be emailed
func (a AlertsConfig) EmailEnabled() bool {
	return a.SMTPHost != "" && a.MailFrom != ""
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:                  getEnv("DATABASE_URL", ""),
			MaxConns:             getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:             getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime:      getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime:      getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
			HistoryRetentionDays: getEnvAsInt("HISTORY_RETENTION_DAYS", 30),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		LLM: LLMConfig{
			Provider:        strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			Model:           getEnv("LLM_MODEL", ""),
			OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:    getEnv("ANTHROPIC_API_KEY", ""),
			GeminiKey:       getEnv("GEMINI_API_KEY", ""),
			Timeout:         getEnvAsDuration("LLM_TIMEOUT", "8s"),
			RetryBackoff:    getEnvAsDuration("LLM_RETRY_BACKOFF", "500ms"),
			MaxOutputTokens: getEnvAsInt("LLM_MAX_TOKENS", 800),
		},

		MarketData: MarketDataConfig{
			Provider:    strings.ToLower(getEnv("MARKET_DATA_PROVIDER", "finnhub")),
			FinnhubKey:  getEnv("FINNHUB_API_KEY", ""),
			RatePerMin:  getEnvAsInt("FINNHUB_RATE_PER_MIN", 60),
			Timeout:     getEnvAsDuration("MARKET_DATA_TIMEOUT", "5s"),
			Concurrency: getEnvAsInt("MARKET_DATA_CONCURRENCY", 8),
			CacheTTL:    getEnvAsDuration("MARKET_DATA_CACHE_TTL", "10m"),
			FixturePath: getEnv("MARKET_DATA_FIXTURE", ""),
			LexiconPath: getEnv("LEXICON_PATH", ""),
			WarmupCron:  getEnv("UNIVERSE_WARMUP_CRON", "0 */15 * * * *"),
		},

		News: NewsConfig{
			RSSURL:       getEnv("NEWS_RSS_URL", "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"),
			MaxArticles:  getEnvAsInt("NEWS_MAX_ARTICLES", 10),
			LookbackDays: getEnvAsInt("NEWS_LOOKBACK_DAYS", 7),
		},

		Screener: ScreenerConfig{
			MaxResults:      getEnvAsInt("SCREENER_MAX_RESULTS", 25),
			RateLimitPerMin: getEnvAsInt("SCREEN_RATE_PER_MIN", 30),
			RequestTimeout:  getEnvAsDuration("SCREEN_REQUEST_TIMEOUT", "20s"),
		},

		Session: SessionConfig{
			TTL: getEnvAsDuration("SESSION_TTL", "24h"),
		},

		Alerts: AlertsConfig{
			CheckCron: getEnv("ALERT_CHECK_CRON", "0 */5 * * * *"),
			SMTPHost:  getEnv("SMTP_HOST", ""),
			SMTPPort:  getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:  getEnv("SMTP_USER", ""),
			SMTPPass:  getEnv("SMTP_PASS", ""),
			MailFrom:  getEnv("ALERT_MAIL_FROM", ""),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		TracingEnabled: getEnvAsBool("TRACING_ENABLED", false),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.LLM.Provider {
	case "openai", "anthropic", "gemini", "none":
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of: openai, anthropic, gemini, none")
	}

	switch c.MarketData.Provider {
	case "finnhub":
		if c.MarketData.FinnhubKey == "" {
			return fmt.Errorf("FINNHUB_API_KEY is required for the finnhub provider")
		}
	case "yahoo":
	case "static":
		if c.MarketData.FixturePath == "" {
			return fmt.Errorf("MARKET_DATA_FIXTURE is required for the static provider")
		}
	default:
		return fmt.Errorf("MARKET_DATA_PROVIDER must be one of: finnhub, yahoo, static")
	}

	if c.Screener.MaxResults <= 0 {
		return fmt.Errorf("SCREENER_MAX_RESULTS must be positive")
	}
	if c.MarketData.Concurrency <= 0 {
		return fmt.Errorf("MARKET_DATA_CONCURRENCY must be positive")
	}
	if c.LLM.Timeout <= 0 || c.MarketData.Timeout <= 0 || c.Screener.RequestTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT, MARKET_DATA_TIMEOUT and SCREEN_REQUEST_TIMEOUT must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
