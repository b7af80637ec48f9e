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
)

var (
	validBackends  = []string{"memory", "sqlite"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// Memory backend snapshot; empty keeps entries in memory only
	DataFile string

	// AMQP; an empty URL disables change events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Statistics cache
	StatsCacheSize int
	StatsCacheTTL  time.Duration

	LogLevel string

	// Google Sheets report export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Icon generation
	GeminiAPIKey string
	IconModel    string

	// Worker: percentage of the budget that triggers the early warning
	BudgetAlertThreshold float64
}

func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "8081"),
		DataBackend: getEnv("DATA_BACKEND", "sqlite"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/gasolina.db"),
		DataFile:     getEnv("DATA_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "gasolina"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "entry_events"),

		StatsCacheSize: getEnvInt("STATS_CACHE_SIZE", 32),
		StatsCacheTTL:  getEnvDuration("STATS_CACHE_TTL", 5*time.Minute),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Gasolina"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		IconModel:    getEnv("ICON_MODEL", "gemini-2.5-flash-image"),

		BudgetAlertThreshold: getEnvFloat("BUDGET_ALERT_THRESHOLD", 80),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(c.SQLiteDBPath); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create SQLite database directory: %v", err))
		}
	}

	if c.DataBackend == "memory" && c.DataFile != "" {
		if err := ensureDir(c.DataFile); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create data file directory: %v", err))
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

	if c.StatsCacheSize < 1 || c.StatsCacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid stats cache size %d: must be between 1 and 10000", c.StatsCacheSize))
	}
	if c.StatsCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid stats cache ttl %v: must not be negative", c.StatsCacheTTL))
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.BudgetAlertThreshold <= 0 || c.BudgetAlertThreshold > 100 {
		errors = append(errors, fmt.Sprintf("invalid budget alert threshold %v: must be in (0, 100]", c.BudgetAlertThreshold))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateSheetsExport checks the settings the Google Sheets report needs.
func (c *Config) ValidateSheetsExport() error {
	var errors []string
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for sheets export")
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, "GOOGLE_SHEET_NAME is required for sheets export")
	}
	if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets export")
	}
	if len(errors) > 0 {
		return fmt.Errorf("sheets export configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// IconEnabled reports whether icon generation is configured.
func (c *Config) IconEnabled() bool {
	return c.GeminiAPIKey != ""
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
