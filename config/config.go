package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresPings    int

	MaxRetries        int
	NavigationDelay   time.Duration
	ReadyTimeout      time.Duration
	SelectWait        time.Duration
	PageDelayMin      time.Duration
	PageDelayMax      time.Duration
	PagePauseMin      time.Duration
	PagePauseMax      time.Duration
	SourceCooldown    time.Duration
	HTTPTimeout       time.Duration
	StealthTransport  bool
	DrivenFallback    bool
	ChromeBin         string
	Headless          bool
	NavigationTimeout time.Duration

	WarehousePath    string
	ConsolidatedPath string
	SourcesFile      string

	LogLevel string
	LogColor bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", true),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "tea_admin"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "tea_trade_data"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresPings:    getEnvInt("POSTGRES_PINGS", 10),

		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		NavigationDelay:   getEnvDuration("NAVIGATION_RETRY_DELAY", 15*time.Second),
		ReadyTimeout:      getEnvDuration("READY_TIMEOUT", 20*time.Second),
		SelectWait:        getEnvDuration("SELECT_WAIT", 5*time.Second),
		PageDelayMin:      getEnvDuration("PAGE_DELAY_MIN", 8*time.Second),
		PageDelayMax:      getEnvDuration("PAGE_DELAY_MAX", 45*time.Second),
		PagePauseMin:      getEnvDuration("PAGE_PAUSE_MIN", 3*time.Second),
		PagePauseMax:      getEnvDuration("PAGE_PAUSE_MAX", 8*time.Second),
		SourceCooldown:    getEnvDuration("SOURCE_COOLDOWN", 300*time.Second),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		StealthTransport:  getEnvBool("STEALTH_TRANSPORT", true),
		DrivenFallback:    getEnvBool("DRIVEN_FALLBACK", true),
		ChromeBin:         getEnv("CHROME_BIN", ""),
		Headless:          getEnvBool("HEADLESS", true),
		NavigationTimeout: getEnvDuration("NAVIGATION_TIMEOUT", 60*time.Second),

		WarehousePath:    getEnv("WAREHOUSE_PATH", "./data_warehouse"),
		ConsolidatedPath: getEnv("CONSOLIDATED_PATH", "./Data/Consolidated"),
		SourcesFile:      getEnv("SOURCES_FILE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogColor: getEnvBool("LOG_COLOR", true),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("15s", "2m") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
