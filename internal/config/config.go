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

const defaultJWTSecret = "dev-secret"

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Detector  DetectorConfig
	Events    EventsConfig
	Bootstrap BootstrapConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSAllowedOrigins    []string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
	// ConnectAttempts bounds the startup ping retries.
	ConnectAttempts int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr                    string
	Password                string
	DB                      int
	AnalysisCacheTTLMinutes int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int
	PasswordMinLength     int
	Argon2Time            uint32
	Argon2MemoryKiB       uint32
	Argon2Threads         uint8
}

// DetectorConfig points at the external defect-detection model server.
type DetectorConfig struct {
	URL                 string
	TimeoutSeconds      int
	ConfidenceThreshold float64
	MaxUploadBytes      int
}

// EventsConfig controls forwarding of domain events to a broker.
type EventsConfig struct {
	AMQPURL string
	Queue   string
}

// BootstrapConfig seeds the first administrator account.
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	threshold, err := strconv.ParseFloat(getEnv("DETECTOR_CONFIDENCE_THRESHOLD", "0.3"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DETECTOR_CONFIDENCE_THRESHOLD: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "roadguard-api"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSAllowedOrigins:    getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("POSTGRES_DSN"),
			MaxConns:        int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:        int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:   getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			ConnectAttempts: getEnvAsInt("POSTGRES_CONNECT_ATTEMPTS", 5),
		},
		Redis: RedisConfig{
			Addr:                    os.Getenv("REDIS_ADDR"),
			Password:                os.Getenv("REDIS_PASSWORD"),
			DB:                      redisDB,
			AnalysisCacheTTLMinutes: getEnvAsInt("REDIS_ANALYSIS_CACHE_TTL_MINUTES", 60),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", defaultJWTSecret),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 30),
			RefreshTokenTTLDays:   getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_DAYS", 7),
			PasswordMinLength:     getEnvAsInt("AUTH_PASSWORD_MIN_LENGTH", 5),
			Argon2Time:            uint32(getEnvAsInt("AUTH_ARGON2_TIME", 1)),
			Argon2MemoryKiB:       uint32(getEnvAsInt("AUTH_ARGON2_MEMORY_KIB", 19*1024)),
			Argon2Threads:         uint8(getEnvAsInt("AUTH_ARGON2_THREADS", 1)),
		},
		Detector: DetectorConfig{
			URL:                 os.Getenv("DETECTOR_URL"),
			TimeoutSeconds:      getEnvAsInt("DETECTOR_TIMEOUT_SECONDS", 30),
			ConfidenceThreshold: threshold,
			MaxUploadBytes:      getEnvAsInt("DETECTOR_MAX_UPLOAD_BYTES", 10*1024*1024),
		},
		Events: EventsConfig{
			AMQPURL: os.Getenv("AMQP_URL"),
			Queue:   getEnv("AMQP_QUEUE", "roadguard.events"),
		},
		Bootstrap: BootstrapConfig{
			AdminEmail:    os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
			AdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
			AdminName:     getEnv("BOOTSTRAP_ADMIN_NAME", "Administrator"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must not be empty"))
	}
	if c.App.Env == "production" && c.Auth.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be set in production"))
	}
	if c.Auth.AccessTokenTTLMinutes <= 0 {
		errs = append(errs, errors.New("AUTH_ACCESS_TOKEN_TTL_MINUTES must be positive"))
	}
	if c.Auth.RefreshTokenTTLDays <= 0 {
		errs = append(errs, errors.New("AUTH_REFRESH_TOKEN_TTL_DAYS must be positive"))
	}
	if c.Auth.Argon2Time == 0 || c.Auth.Argon2MemoryKiB == 0 || c.Auth.Argon2Threads == 0 {
		errs = append(errs, errors.New("argon2 parameters must be positive"))
	}
	if (c.Bootstrap.AdminEmail == "") != (c.Bootstrap.AdminPassword == "") {
		errs = append(errs, errors.New("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of minted access tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the lifetime of issued refresh tokens.
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLDays) * 24 * time.Hour
}

// AnalysisCacheTTL returns how long detector results are cached.
func (r RedisConfig) AnalysisCacheTTL() time.Duration {
	return time.Duration(r.AnalysisCacheTTLMinutes) * time.Minute
}

// Timeout returns the detector call timeout.
func (d DetectorConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
