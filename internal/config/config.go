package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	Environment string
	LogLevel    string

	DBPath string

	// CongressDate is the fixed reference date used for age computation.
	CongressDate time.Time

	// GuestIDFloor is the reserved floor for synthetic guest IDs. Every
	// issued guest ID is strictly greater than this value, which must sit
	// above any plausible membership-registry number.
	GuestIDFloor int64

	// DataDir holds exported feed files picked up by the CSV feed sources.
	DataDir string

	// HousingNightlyRate is the provider's flat unit price for housing line
	// items. Bed counts are backed out of fee totals by division, so this
	// must track the provider's price.
	HousingNightlyRate float64

	// SeedDemo writes sample feed exports into DataDir on startup, for
	// local development without access to the real reports.
	SeedDemo bool

	OverridesPath string
	ResolverPath  string

	SyncEnabled      bool
	SyncBaseInterval time.Duration
	SyncMaxInterval  time.Duration
}

const defaultCongressDate = "2026-07-11"

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:            getenv("APP_SERVICE", "badgefile"),
		Environment:        getenv("ENVIRONMENT", "development"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		DBPath:             getenv("DATABASE_PATH", "badgefile.db"),
		DataDir:            getenv("DATA_DIR", "data"),
		SeedDemo:           getenvBool("SEED_DEMO", false),
		CongressDate:       getenvDate("CONGRESS_DATE", defaultCongressDate),
		GuestIDFloor:       getenvInt64("GUEST_ID_FLOOR", 70_000_000),
		HousingNightlyRate: getenvFloat("HOUSING_NIGHTLY_RATE", 68),
		OverridesPath:      getenv("OVERRIDES_PATH", "overrides.yml"),
		ResolverPath:       getenv("RESOLVER_CONFIG_PATH", ""),
		SyncEnabled:        getenvBool("SYNC_ENABLED", false),
		SyncBaseInterval:   getenvDuration("SYNC_BASE_INTERVAL", 30*time.Second),
		SyncMaxInterval:    getenvDuration("SYNC_MAX_INTERVAL", 10*time.Minute),
	}

	return cfg
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvInt64(key string, fallback int64) int64 {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDate(key, fallback string) time.Time {
	raw := getenv(key, fallback)
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		parsed, _ = time.Parse("2006-01-02", fallback)
	}
	return parsed
}
