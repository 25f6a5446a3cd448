package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "dealerforge.yaml"

// DefaultEnvFile is the dotenv file loaded into the process environment.
const DefaultEnvFile = ".env"

// Load returns a Config using the hierarchy: defaults < YAML < .env < ENV.
// Both files are optional; missing files are not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile, DefaultEnvFile)
}

// LoadFrom returns a Config loaded from the given YAML and dotenv paths.
// Variables already present in the environment win over the dotenv file.
func LoadFrom(yamlPath, envPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	if err := loadDotenv(envPath); err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadDotenv loads path into the process environment without overriding
// variables that are already set.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "DEALERFORGE_PORT")
	setList(&cfg.Server.CORSOrigins, "DEALERFORGE_CORS_ORIGINS")
	setInt64(&cfg.Server.BodyLimit, "DEALERFORGE_BODY_LIMIT")
	setDuration(&cfg.Server.RequestTimeout, "DEALERFORGE_REQUEST_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "DEALERFORGE_SHUTDOWN_TIMEOUT")

	setString(&cfg.Storage.Driver, "DEALERFORGE_STORAGE_DRIVER")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	if os.Getenv("DATABASE_URL") == "" {
		if dsn := dsnFromParts(); dsn != "" {
			cfg.Postgres.DSN = dsn
		}
	}
	setInt32(&cfg.Postgres.MaxConns, "DEALERFORGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "DEALERFORGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "DEALERFORGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "DEALERFORGE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "DEALERFORGE_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Stream, "DEALERFORGE_NATS_STREAM")

	setString(&cfg.Logging.Level, "DEALERFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "DEALERFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "DEALERFORGE_LOG_ASYNC")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setDuration(&cfg.Auth.TokenTTL, "DEALERFORGE_TOKEN_TTL")
	setInt(&cfg.Auth.BcryptCost, "DEALERFORGE_BCRYPT_COST")
	setString(&cfg.Auth.DefaultAdminPassword, "DEALERFORGE_DEFAULT_ADMIN_PASSWORD")
	setBool(&cfg.Auth.LegacyAdminUsername, "DEALERFORGE_LEGACY_ADMIN_USERNAME")
	setString(&cfg.Auth.BootstrapSuperAdminUser, "DEALERFORGE_SUPERADMIN_USERNAME")
	setString(&cfg.Auth.BootstrapSuperAdminPassword, "DEALERFORGE_SUPERADMIN_PASSWORD")
	setString(&cfg.Auth.SecretsFile, "DEALERFORGE_SECRETS_FILE")
	setInt(&cfg.Auth.HashConcurrency, "DEALERFORGE_HASH_CONCURRENCY")

	setDuration(&cfg.Cache.TenantStatusTTL, "DEALERFORGE_TENANT_STATUS_TTL")
	setInt64(&cfg.Cache.MaxCostBytes, "DEALERFORGE_CACHE_MAX_COST_BYTES")

	setFloat64(&cfg.Rate.RequestsPerSecond, "DEALERFORGE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "DEALERFORGE_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "DEALERFORGE_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "DEALERFORGE_RATE_MAX_IDLE_TIME")

	setBool(&cfg.OTEL.Enabled, "DEALERFORGE_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "DEALERFORGE_OTEL_INSECURE")
	setFloat64(&cfg.OTEL.SampleRate, "DEALERFORGE_OTEL_SAMPLE_RATE")
}

// dsnFromParts builds a DSN from the discrete DB_* variables used by older
// deployments. Returns "" unless DB_HOST is set.
func dsnFromParts() string {
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD")),
		Host:     host + ":" + port,
		Path:     "/" + os.Getenv("DB_NAME"),
		RawQuery: "sslmode=" + envOr("DB_SSLMODE", "disable"),
	}
	return u.String()
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Server.BodyLimit < 1 {
		return errors.New("server.body_limit must be >= 1")
	}
	switch cfg.Storage.Driver {
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.driver %q is not one of postgres, memory", cfg.Storage.Driver)
	}
	if len(cfg.Auth.JWTSecret) < 32 {
		return errors.New("auth.jwt_secret must be at least 32 characters")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31 {
		return errors.New("auth.bcrypt_cost must be between 4 and 31")
	}
	if cfg.Auth.DefaultAdminPassword != "" && len(cfg.Auth.DefaultAdminPassword) < 8 {
		return errors.New("auth.default_admin_password must be at least 8 characters")
	}
	if cfg.Auth.HashConcurrency < 0 {
		return errors.New("auth.hash_concurrency must not be negative")
	}
	if cfg.Cache.TenantStatusTTL < 0 {
		return errors.New("cache.tenant_status_ttl must not be negative")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.OTEL.SampleRate < 0 || cfg.OTEL.SampleRate > 1 {
		return errors.New("otel.sample_rate must be between 0 and 1")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*dst = out
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
