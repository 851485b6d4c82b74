// internal/config/config.go
package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// LegacyDefaultSecret is the fallback secret shipped by earlier releases.
	LegacyDefaultSecret = "your-secret-key-here-change-in-production"

	minSecretLength = 32
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Session     SessionConfig
	Password    PasswordConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Bootstrap   BootstrapConfig
	Log         LogConfig
	Licensing   LicensingConfig

	// GeneratedSecret is set when Validate had to mint an ephemeral
	// development secret.
	GeneratedSecret bool
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	StaticDir    string
}

type DatabaseConfig struct {
	Driver       string
	Path         string
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LockTimeout  time.Duration
	LogLevel     string
}

type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	MaxPerUser int
}

type PasswordConfig struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

type RateLimitConfig struct {
	GeneralPerSecond float64
	GeneralBurst     int
	LoginPerMinute   int
	CheckPerMinute   int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type BootstrapConfig struct {
	AdminUsername string
	AdminPassword string
}

type LogConfig struct {
	Level  string
	Format string
}

type LicensingConfig struct {
	RequireAdminAuth bool
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	environment := getEnv("ENVIRONMENT", EnvDevelopment)

	config := &Config{
		Environment: environment,
		Server: ServerConfig{
			Port:         getEnv("PORT", getEnv("SERVER_PORT", "8000")),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			StaticDir:    getEnv("STATIC_DIR", ""),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Path:         getEnv("DB_PATH", "licenses.db"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "licenses"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LockTimeout:  getEnvAsDuration("DB_LOCK_TIMEOUT", 10*time.Second),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		Session: SessionConfig{
			Secret:     getEnv("SECRET_KEY", ""),
			TTL:        getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			MaxPerUser: getEnvAsInt("SESSION_MAX_PER_USER", 5),
		},
		Password: PasswordConfig{
			Memory:      uint32(getEnvAsInt("PASSWORD_ARGON2_MEMORY_KIB", 64*1024)),
			Iterations:  uint32(getEnvAsInt("PASSWORD_ARGON2_ITERATIONS", 3)),
			Parallelism: uint8(getEnvAsInt("PASSWORD_ARGON2_PARALLELISM", 2)),
		},
		RateLimit: RateLimitConfig{
			GeneralPerSecond: getEnvAsFloat("RATE_LIMIT_GENERAL_PER_SECOND", 10),
			GeneralBurst:     getEnvAsInt("RATE_LIMIT_GENERAL_BURST", 20),
			LoginPerMinute:   getEnvAsInt("RATE_LIMIT_LOGIN_PER_MINUTE", 10),
			CheckPerMinute:   getEnvAsInt("RATE_LIMIT_CHECK_PER_MINUTE", 60),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Bootstrap: BootstrapConfig{
			AdminUsername: getEnv("BOOTSTRAP_ADMIN_USERNAME", "admin"),
			AdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", defaultLogFormat(environment)),
		},
		Licensing: LicensingConfig{
			RequireAdminAuth: getEnvAsBool("LICENSE_ADMIN_REQUIRE_AUTH", false),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// Validate reports every configuration problem at once. In development an
// empty session secret is replaced by a random one that lives only as long
// as the process.
func (c *Config) Validate() error {
	var errs []string

	switch {
	case c.Session.Secret == "" && c.IsDevelopment():
		secret, err := randomSecret()
		if err != nil {
			return fmt.Errorf("generate development secret: %w", err)
		}
		c.Session.Secret = secret
		c.GeneratedSecret = true
	case c.Session.Secret == "":
		errs = append(errs, "SECRET_KEY is required")
	case !c.IsDevelopment() && c.Session.Secret == LegacyDefaultSecret:
		errs = append(errs, "SECRET_KEY must not be the default placeholder")
	case !c.IsDevelopment() && len(c.Session.Secret) < minSecretLength:
		errs = append(errs, fmt.Sprintf("SECRET_KEY must be at least %d characters", minSecretLength))
	}

	if c.Session.TTL <= 0 {
		errs = append(errs, "SESSION_TTL must be positive")
	}
	if c.Session.MaxPerUser < 1 {
		errs = append(errs, "SESSION_MAX_PER_USER must be >= 1")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, "DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.Password == "" && c.Environment == EnvProduction {
			errs = append(errs, "database password is required in production")
		}
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER %q is not supported (sqlite, postgres)", c.Database.Driver))
	}
	if c.Database.LockTimeout <= 0 {
		errs = append(errs, "DB_LOCK_TIMEOUT must be positive")
	}

	if c.Password.Memory < 8*uint32(c.Password.Parallelism) || c.Password.Iterations < 1 || c.Password.Parallelism < 1 {
		errs = append(errs, "argon2 parameters are out of range")
	}

	if c.RateLimit.GeneralPerSecond <= 0 || c.RateLimit.GeneralBurst <= 0 {
		errs = append(errs, "general rate limit must be positive")
	}
	if c.RateLimit.LoginPerMinute <= 0 || c.RateLimit.CheckPerMinute <= 0 {
		errs = append(errs, "login and license check rate limits must be positive")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 48)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func defaultLogFormat(environment string) string {
	if environment == EnvProduction {
		return "json"
	}
	return "text"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
