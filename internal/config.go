package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// State sources.
const (
	StateSourceMemory   = "memory"
	StateSourcePostgres = "postgres"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Application base URL; /nav/follow only redirects within it
	BaseURL string

	// Navigation behaviour
	NavScrollThresholdPx int
	NavWidthBreakpointPx int
	NavDefaultWidthPx    int // assumed until the browser reports a width

	// Visitor sessions
	SessionTTL               time.Duration
	ViewportReportsPerSecond int

	// Application state source
	StateSource     string // "memory" or "postgres"
	CatalogSeedPath string // YAML seed for the memory source
	DatabaseUrl     string

	// Storage Configuration
	StorageProvider string // "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string // Base directory for local file storage
	LocalStorageURL  string // Base URL for accessing local files

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string // Optional custom domain URL

	// Brand
	BrandName         string
	BrandLogoSource   string // image uploaded as the navigation logo when absent
	BrandLogoHeightPx int

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Base URL defaults to localhost for development
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		NavScrollThresholdPx: getEnvInt("NAV_SCROLL_THRESHOLD_PX", 70),
		NavWidthBreakpointPx: getEnvInt("NAV_WIDTH_BREAKPOINT_PX", 480),
		NavDefaultWidthPx:    getEnvInt("NAV_DEFAULT_WIDTH_PX", 1024),

		SessionTTL:               getEnvDuration("SESSION_TTL", 30*time.Minute),
		ViewportReportsPerSecond: getEnvInt("VIEWPORT_REPORTS_PER_SECOND", 20),

		StateSource:     getEnv("STATE_SOURCE", StateSourceMemory),
		CatalogSeedPath: getEnv("CATALOG_SEED_PATH", ""),
		DatabaseUrl:     getEnv("DATABASE_URL", ""),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./storage"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/files"),

		// R2 configuration (production only)
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		BrandName:         getEnv("BRAND_NAME", "Shop"),
		BrandLogoSource:   getEnv("BRAND_LOGO_SOURCE", ""),
		BrandLogoHeightPx: getEnvInt("BRAND_LOGO_HEIGHT_PX", 48),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.NavScrollThresholdPx < 0 {
		return fmt.Errorf("NAV_SCROLL_THRESHOLD_PX must not be negative, got: %d", cfg.NavScrollThresholdPx)
	}
	if cfg.NavWidthBreakpointPx <= 0 {
		return fmt.Errorf("NAV_WIDTH_BREAKPOINT_PX must be positive, got: %d", cfg.NavWidthBreakpointPx)
	}
	if cfg.NavDefaultWidthPx <= 0 {
		return fmt.Errorf("NAV_DEFAULT_WIDTH_PX must be positive, got: %d", cfg.NavDefaultWidthPx)
	}
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got: %s", cfg.SessionTTL)
	}
	if cfg.ViewportReportsPerSecond <= 0 {
		return fmt.Errorf("VIEWPORT_REPORTS_PER_SECOND must be positive, got: %d", cfg.ViewportReportsPerSecond)
	}

	switch cfg.StateSource {
	case StateSourceMemory:
	case StateSourcePostgres:
		if cfg.DatabaseUrl == "" {
			return fmt.Errorf("DATABASE_URL is required when STATE_SOURCE is 'postgres'")
		}
	default:
		return fmt.Errorf("STATE_SOURCE must be either 'memory' or 'postgres', got: %s", cfg.StateSource)
	}

	// Validate storage configuration
	if cfg.StorageProvider == "r2" {
		if cfg.R2AccountID == "" {
			return fmt.Errorf("R2_ACCOUNT_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return fmt.Errorf("R2_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
	} else if cfg.StorageProvider != "local" {
		return fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", cfg.StorageProvider)
	}

	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (cfg *Config) IsDevelopment() bool {
	return cfg.Env == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
