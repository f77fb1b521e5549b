package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arena-pay/arena_pay/internal/money"
)

const (
	defaultAppName         = "ArenaPay"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultPageSize        = 20
	defaultMutationsPerMin = 30
)

// Config captures application runtime configuration loaded from environment
// variables.
type Config struct {
	AppName         string
	AppEnv          string
	Port            string
	LogLevel        string
	DatabaseURL     string
	RedisURL        string
	ShutdownPeriod  time.Duration
	IdempotencyTTL  time.Duration
	DepositMin      money.Amount
	DepositMax      money.Amount
	WithdrawalMin   money.Amount
	WithdrawalMax   money.Amount
	HistoryPageSize int
	MutationsPerMin int
}

// Load reads configuration values from the environment and populates a
// Config instance. Outside of dev mode the database and Redis URLs are
// required; in dev the service falls back to in-memory backends.
func Load() (Config, error) {
	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		AppEnv:          getEnv("APP_ENV", defaultAppEnv),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		ShutdownPeriod:  defaultShutdownDelay,
		IdempotencyTTL:  defaultIdempotencyTTL,
		HistoryPageSize: defaultPageSize,
		MutationsPerMin: defaultMutationsPerMin,
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv("IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
		}
		cfg.IdempotencyTTL = d
	}

	var err error
	if cfg.DepositMin, err = amountEnv("DEPOSIT_MIN"); err != nil {
		return Config{}, err
	}
	if cfg.DepositMax, err = amountEnv("DEPOSIT_MAX"); err != nil {
		return Config{}, err
	}
	if cfg.WithdrawalMin, err = amountEnv("WITHDRAWAL_MIN"); err != nil {
		return Config{}, err
	}
	if cfg.WithdrawalMax, err = amountEnv("WITHDRAWAL_MAX"); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("HISTORY_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid HISTORY_PAGE_SIZE: %q", v)
		}
		cfg.HistoryPageSize = n
	}

	if v := os.Getenv("MUTATIONS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid MUTATIONS_PER_MINUTE: %q", v)
		}
		cfg.MutationsPerMin = n
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// amountEnv parses a bound either as minor units (AMOUNT) or as a decimal
// string (AMOUNT_DECIMAL suffix), e.g. DEPOSIT_MAX_DECIMAL=5000.00.
func amountEnv(name string) (money.Amount, error) {
	if v := os.Getenv(name + "_DECIMAL"); v != "" {
		amount, err := money.Parse(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_DECIMAL: %w", name, err)
		}
		return amount, nil
	}
	if v := os.Getenv(name); v != "" {
		units, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", name, err)
		}
		return money.FromMinorUnits(units), nil
	}
	return 0, nil
}

// IsDev reports whether the app runs in a development environment, where
// in-memory backends are acceptable.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
