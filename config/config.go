package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server       ServerConfig
	CoreDatabase DatabaseConfig
	PGDatabase   DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	AWS          AWSConfig
	Razorpay     RazorpayConfig
	Billing      BillingConfig
	Payments     PaymentsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	RunReportWorker    bool   // consume report jobs inside the API process
}

// DatabaseConfig holds one PostgreSQL segment's connection URI.
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// Expiry returns the token lifetime.
func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpireHours) * time.Hour
}

// AWSConfig holds AWS credentials and the reports bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ReportsBucket        string
	PresignExpireMinutes int
}

// RazorpayConfig holds gateway credentials. KeyID may be empty (order creation then returns 503),
// KeySecret is required because every verification depends on it.
type RazorpayConfig struct {
	KeyID     string
	KeySecret string
}

// BillingConfig controls calendar arithmetic for rent.
type BillingConfig struct {
	Timezone string
	Currency string
}

// Location loads the billing time zone.
func (c BillingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// PaymentsConfig holds payment feature switches.
type PaymentsConfig struct {
	DummyEnabled bool
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			RunReportWorker:    getEnvBool("RUN_REPORT_WORKER", true),
		},
		CoreDatabase: DatabaseConfig{URL: getEnv("CORE_DATABASE_URL", "")},
		PGDatabase:   DatabaseConfig{URL: getEnv("PG_DATABASE_URL", "")},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", ""),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "ap-south-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ReportsBucket:        getEnv("AWS_S3_REPORTS_BUCKET", "smartnex-reports"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Razorpay: RazorpayConfig{
			KeyID:     getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		},
		Billing: BillingConfig{
			Timezone: getEnv("BILLING_TIMEZONE", "Asia/Kolkata"),
			Currency: getEnv("BILLING_CURRENCY", "INR"),
		},
		Payments: PaymentsConfig{
			DummyEnabled: getEnvBool("PAYMENTS_DUMMY_ENABLED", false),
		},
	}
	return cfg, nil
}

// Validate reports every missing or malformed setting the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.CoreDatabase.URL == "" {
		errs = append(errs, errors.New("CORE_DATABASE_URL is required"))
	}
	if c.PGDatabase.URL == "" {
		errs = append(errs, errors.New("PG_DATABASE_URL is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWT.ExpireHours <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRE_HOURS must be positive"))
	}
	if c.Razorpay.KeySecret == "" {
		errs = append(errs, errors.New("RAZORPAY_KEY_SECRET is required"))
	}
	if _, err := c.Billing.Location(); err != nil {
		errs = append(errs, fmt.Errorf("BILLING_TIMEZONE: %w", err))
	}
	return errors.Join(errs...)
}

// SplitOrigins returns the configured CORS origins.
func (c ServerConfig) SplitOrigins() []string {
	return splitTrim(c.CORSAllowedOrigins, ",")
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
