package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Log       LogConfig
	Providers ProviderConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Pretty bool
}

// ProviderConfig holds upstream market data, FX and CPI settings.
type ProviderConfig struct {
	Timeout         time.Duration
	RequestsPerSec  float64
	FxCacheTTL      time.Duration
	PriceCacheTTL   time.Duration
	CPICacheTTL     time.Duration
	LiveWindow      time.Duration
	YahooBaseURL    string
	BLSBaseURL      string
	BLSSeriesID     string
	ExpectationsURL string
	TCMBURL         string
	BankSpread      float64
}

// SchedulerConfig controls the background cache warm-up jobs.
type SchedulerConfig struct {
	Enabled bool
	FxSpec  string
	CPISpec string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/virtual_portfolio.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost",
			}),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnv("LOG_PRETTY", "true") == "true",
		},
		Providers: ProviderConfig{
			YahooBaseURL:    getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			BLSBaseURL:      getEnv("BLS_BASE_URL", "https://api.bls.gov/publicAPI/v2/timeseries/data/"),
			BLSSeriesID:     getEnv("BLS_SERIES_ID", "CUSR0000SA0"),
			ExpectationsURL: getEnv("CPI_EXPECTATIONS_URL", "https://www.clevelandfed.org/api/InflationExpectation/csv"),
			TCMBURL:         getEnv("TCMB_URL", "https://www.tcmb.gov.tr/kurlar/today.xml"),
		},
		Scheduler: SchedulerConfig{
			Enabled: getEnv("SCHEDULER_ENABLED", "true") == "true",
			FxSpec:  getEnv("SCHEDULER_FX_SPEC", "@every 5m"),
			CPISpec: getEnv("SCHEDULER_CPI_SPEC", "0 6 * * *"),
		},
	}

	var err error
	if config.Providers.Timeout, err = getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if config.Providers.FxCacheTTL, err = getEnvDuration("FX_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if config.Providers.PriceCacheTTL, err = getEnvDuration("PRICE_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if config.Providers.CPICacheTTL, err = getEnvDuration("CPI_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if config.Providers.LiveWindow, err = getEnvDuration("LIVE_PRICE_WINDOW", 10*time.Minute); err != nil {
		return nil, err
	}
	if config.Providers.RequestsPerSec, err = getEnvFloat("PROVIDER_RATE_LIMIT", 2); err != nil {
		return nil, err
	}
	if config.Providers.BankSpread, err = getEnvFloat("BANK_FX_SPREAD", 0.015); err != nil {
		return nil, err
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number for %s: %w", key, err)
	}
	return f, nil
}
