package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

// Backends accepted by DATA_BACKEND.
var ValidBackends = []string{"memory", "file", "sqlite", "postgres"}

type Config struct {
	// HTTP Server
	Port               string        `koanf:"PORT"`
	CORSAllowedOrigins string        `koanf:"CORS_ALLOWED_ORIGINS"`
	RateLimitPerMinute int           `koanf:"RATE_LIMIT_PER_MINUTE"`
	ShutdownTimeout    time.Duration `koanf:"SHUTDOWN_TIMEOUT"`
	// Only set behind a reverse proxy that overwrites X-Forwarded-For.
	TrustProxyHeaders bool `koanf:"TRUST_PROXY_HEADERS"`

	// Ledger
	DataBackend string `koanf:"DATA_BACKEND"`
	LedgerKey   string `koanf:"LEDGER_KEY"`
	DataDir     string `koanf:"DATA_DIR"`

	// SQLite
	SQLiteDBPath string `koanf:"SQLITE_DB_PATH"`

	// PostgreSQL
	PostgresHost     string `koanf:"POSTGRES_HOST"`
	PostgresPort     int    `koanf:"POSTGRES_PORT"`
	PostgresDB       string `koanf:"POSTGRES_DB"`
	PostgresUser     string `koanf:"POSTGRES_USER"`
	PostgresPassword string `koanf:"POSTGRES_PASSWORD"`
	PostgresSSLMode  string `koanf:"POSTGRES_SSLMODE"`

	// AMQP, disabled when the URL is empty
	AMQPURL      string `koanf:"AMQP_URL"`
	AMQPExchange string `koanf:"AMQP_EXCHANGE"`
	AMQPQueue    string `koanf:"AMQP_QUEUE"`

	// Google Sheets mirror
	GoogleSpreadsheetID      string `koanf:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName          string `koanf:"GOOGLE_SHEET_NAME"`
	GoogleServiceAccountFile string `koanf:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleServiceAccountJSON string `koanf:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	MirrorSchedule           string `koanf:"MIRROR_SCHEDULE"`

	// Search cache
	SearchCacheSize int           `koanf:"SEARCH_CACHE_SIZE"`
	SearchCacheTTL  time.Duration `koanf:"SEARCH_CACHE_TTL"`

	// Logging
	LogLevel  string `koanf:"LOG_LEVEL"`
	LogFormat string `koanf:"LOG_FORMAT"`
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Port:               "8081",
		CORSAllowedOrigins: "http://localhost:3000",
		RateLimitPerMinute: 60,
		ShutdownTimeout:    10 * time.Second,

		DataBackend: "memory",
		LedgerKey:   "transactions",
		DataDir:     "./data",

		SQLiteDBPath: "./data/finviz.db",

		PostgresHost:    "localhost",
		PostgresPort:    5432,
		PostgresDB:      "finviz",
		PostgresUser:    "finviz",
		PostgresSSLMode: "disable",

		AMQPExchange: "finviz",
		AMQPQueue:    "ledger_changes",

		GoogleSheetName: "Transactions",
		MirrorSchedule:  "@every 15m",

		SearchCacheSize: 128,
		SearchCacheTTL:  5 * time.Minute,

		LogLevel:  "INFO",
		LogFormat: "text",
	}
}

// Load overlays environment variables on top of Default.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// PostgresDSN builds a libpq-style connection URL.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:     c.PostgresDB,
		RawQuery: url.Values{"sslmode": {c.PostgresSSLMode}}.Encode(),
	}
	return u.String()
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// MirrorEnabled reports whether a spreadsheet mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(ValidBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, ValidBackends))
	}

	if strings.TrimSpace(c.LedgerKey) == "" {
		errors = append(errors, "ledger key cannot be empty")
	}

	switch c.DataBackend {
	case "file":
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.PostgresHost == "" {
			errors = append(errors, "POSTGRES_HOST is required when using postgres backend")
		}
		if c.PostgresDB == "" {
			errors = append(errors, "POSTGRES_DB is required when using postgres backend")
		}
		if c.PostgresPort < 1 || c.PostgresPort > 65535 {
			errors = append(errors, fmt.Sprintf("invalid postgres port %d: must be between 1 and 65535", c.PostgresPort))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MirrorEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the sheets mirror")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
		if _, err := cron.ParseStandard(c.MirrorSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid mirror schedule '%s': %v", c.MirrorSchedule, err))
		}
	}

	if c.SearchCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid search cache size %d: must be at least 1", c.SearchCacheSize))
	}
	if c.SearchCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid search cache TTL %v: must be positive", c.SearchCacheTTL))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
