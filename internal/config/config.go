package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries everything the process needs at startup. It is built once
// in main and handed to component constructors; nothing reads the
// environment after Load returns.
type Config struct {
	Addr             string
	Port             int
	Env              string
	DatabaseURL      string
	MigratePath      string
	JWTSecret        string
	JWTExpiresIn     time.Duration
	DBConnectRetries int
	DBConnectDelay   time.Duration
}

const (
	defaultAddr         = "0.0.0.0"
	defaultPort         = 8080
	defaultEnv          = "development"
	defaultMigratePath  = "migrations"
	defaultJWTExpiresIn = 24 * time.Hour
	defaultDBRetries    = 10
	defaultDBDelay      = 5 * time.Second
)

// Load reads configuration from environment variables, falling back to
// defaults. JWT_SECRET has no default and must be set.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:             getEnv("ADDR", defaultAddr),
		Env:              getEnv("APP_ENV", defaultEnv),
		MigratePath:      getEnv("MIGRATE_PATH", defaultMigratePath),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		Port:             defaultPort,
		JWTExpiresIn:     defaultJWTExpiresIn,
		DBConnectRetries: defaultDBRetries,
		DBConnectDelay:   defaultDBDelay,
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 || p > 65535 {
			return nil, fmt.Errorf("PORT must be an integer between 1 and 65535, got %q", v)
		}
		cfg.Port = p
	}

	if v := os.Getenv("JWT_EXPIRES_IN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("JWT_EXPIRES_IN must be a positive duration, got %q", v)
		}
		cfg.JWTExpiresIn = d
	}

	if v := os.Getenv("DB_CONNECT_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("DB_CONNECT_RETRIES must be a positive integer, got %q", v)
		}
		cfg.DBConnectRetries = n
	}

	if v := os.Getenv("DB_CONNECT_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("DB_CONNECT_DELAY must be a duration, got %q", v)
		}
		cfg.DBConnectDelay = d
	}

	cfg.DatabaseURL = databaseURL()
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database configuration missing: set DATABASE_URL or DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME")
	}

	return cfg, nil
}

// databaseURL prefers a full DATABASE_URL and otherwise assembles a DSN
// from the individual DB_* variables.
func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	host := os.Getenv("DB_HOST")
	port := getEnv("DB_PORT", "5432")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	name := os.Getenv("DB_NAME")
	if host == "" || user == "" || password == "" || name == "" {
		return ""
	}
	sslmode := getEnv("DB_SSLMODE", "disable")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, name, sslmode)
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Addr, c.Port)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
